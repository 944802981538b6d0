package profile

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/util"
	"github.com/kapu/interview-teleprompter-go/pkg/errors"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

const DefaultName = "startup"

// Registry caches parsed built-in profiles.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]*Profile),
	}
}

func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Load returns the built-in profile called name.
func Load(name string) (*Profile, error) {
	return DefaultRegistry().Load(name)
}

// Names lists the built-in profiles.
func Names() []string {
	entries, err := fs.ReadDir(profileFS, "profiles")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Load(name string) (*Profile, error) {
	name = util.Normalize(name)
	if name == "" {
		name = DefaultName
	}

	r.mu.RLock()
	if p, ok := r.profiles[name]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	data, err := profileFS.ReadFile(path.Join("profiles", name+".yaml"))
	if err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("unknown profile %q", name), "profile", name)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", name, err)
	}

	r.mu.Lock()
	if cached, ok := r.profiles[name]; ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.profiles[name] = p
	r.mu.Unlock()

	return p, nil
}

// LoadFile parses a profile kept outside the binary.
func LoadFile(filename string) (*Profile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", filename, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", filename, err)
	}
	return p, nil
}

// Parse decodes and validates a profile document. Unknown fields are rejected.
func Parse(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	normalize(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// keyword tables are matched against lower-cased questions
func normalize(p *Profile) {
	for i := range p.Analysis.QuestionTypes {
		p.Analysis.QuestionTypes[i].Keywords = lowerAll(p.Analysis.QuestionTypes[i].Keywords)
	}
	for i := range p.Analysis.Topics {
		p.Analysis.Topics[i].Keyword = util.Normalize(p.Analysis.Topics[i].Keyword)
	}
	p.Analysis.Seniority.Senior = lowerAll(p.Analysis.Seniority.Senior)
	p.Analysis.Seniority.Junior = lowerAll(p.Analysis.Seniority.Junior)
	for i := range p.Citations {
		p.Citations[i].Triggers = lowerAll(p.Citations[i].Triggers)
	}
	for i := range p.References {
		if p.References[i].Kind == "" {
			p.References[i].Kind = domain.ReferenceKindPaper
		}
	}
}

func Validate(p *Profile) error {
	if p.Name == "" {
		return errors.NewValidationError("profile name is required", "name", p.Name)
	}
	if p.Responses.Acknowledgment == "" {
		return errors.NewValidationError("acknowledgment is required", "responses.acknowledgment", "")
	}
	if p.Responses.PersonalConnection == "" {
		return errors.NewValidationError("personal connection is required", "responses.personal_connection", "")
	}

	for _, rule := range p.Analysis.QuestionTypes {
		if _, ok := domain.ParseQuestionType(string(rule.Type)); !ok {
			return errors.NewValidationError("unknown question type", "analysis.question_types", rule.Type)
		}
		if len(rule.Keywords) == 0 {
			return errors.NewValidationError("question type needs keywords", "analysis.question_types", rule.Type)
		}
	}

	labels := make(map[domain.TopicLabel]struct{})
	for _, rule := range p.Analysis.Topics {
		if rule.Keyword == "" || rule.Label == "" {
			return errors.NewValidationError("topic rule needs keyword and label", "analysis.topics", rule)
		}
		labels[rule.Label] = struct{}{}
	}

	general, ok := p.Responses.Paragraphs[domain.QuestionTypeGeneral]
	if !ok || general.Fallback == "" {
		return errors.NewValidationError("general paragraph fallback is required", "responses.paragraphs.general", "")
	}
	for qt, set := range p.Responses.Paragraphs {
		if _, ok := domain.ParseQuestionType(string(qt)); !ok {
			return errors.NewValidationError("unknown paragraph type", "responses.paragraphs", qt)
		}
		for _, v := range set.Variants {
			for _, label := range v.Topics {
				if _, ok := labels[label]; !ok {
					return errors.NewValidationError("variant references unknown topic", "responses.paragraphs."+string(qt), label)
				}
			}
		}
	}
	for _, d := range p.Responses.TechnicalDetails {
		if _, ok := labels[d.Topic]; !ok {
			return errors.NewValidationError("detail references unknown topic", "responses.technical_details", d.Topic)
		}
	}

	ids := make(map[string]struct{}, len(p.References))
	for _, ref := range p.References {
		if ref.ID == "" || ref.Title == "" {
			return errors.NewValidationError("reference needs id and title", "references", ref.ID)
		}
		if _, dup := ids[ref.ID]; dup {
			return errors.NewValidationError("duplicate reference id", "references", ref.ID)
		}
		ids[ref.ID] = struct{}{}
	}
	for _, c := range p.Citations {
		if _, ok := ids[c.Reference]; !ok {
			return errors.NewValidationError("citation references unknown work", "citations", c.Reference)
		}
	}

	return nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := util.Normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
