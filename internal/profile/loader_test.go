package profile

import (
	stderrors "errors"
	"testing"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/pkg/errors"
)

func TestBuiltinProfilesLoad(t *testing.T) {
	names := Names()
	if len(names) != 2 || names[0] != "academic" || names[1] != "startup" {
		t.Fatalf("unexpected built-in profiles: %v", names)
	}

	for _, name := range names {
		p, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%s) returned error: %v", name, err)
		}
		if p.Name != name {
			t.Fatalf("profile %s declares name %q", name, p.Name)
		}
		if p.Responses.Acknowledgment != "That's a great question." {
			t.Fatalf("profile %s has unexpected acknowledgment %q", name, p.Responses.Acknowledgment)
		}
		if len(p.Features) != 6 {
			t.Fatalf("profile %s: expected 6 features, got %d", name, len(p.Features))
		}
	}
}

func TestLoadDefaultsToStartup(t *testing.T) {
	p, err := NewRegistry().Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Context.Recruiter != "Anika Bansal" {
		t.Fatalf("unexpected recruiter %q", p.Context.Recruiter)
	}
}

func TestLoadCachesProfile(t *testing.T) {
	reg := NewRegistry()
	a, err := reg.Load("academic")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	b, _ := reg.Load("ACADEMIC")
	if a != b {
		t.Fatalf("expected cached profile instance")
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	_, err := NewRegistry().Load("bank")
	var nf *errors.NotFoundError
	if !stderrors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAcademicReferences(t *testing.T) {
	p, err := Load("academic")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	ref, ok := p.Reference("QEP-VLA-2025")
	if !ok {
		t.Fatalf("expected personal work reference")
	}
	if ref.Kind != domain.ReferenceKindPersonal || ref.Author != "Frank van Laarhoven" {
		t.Fatalf("unexpected personal work: %+v", ref)
	}

	paper, ok := p.Reference("rWifiSLAM-2022")
	if !ok || paper.Year != 2022 || len(paper.Authors) != 5 {
		t.Fatalf("unexpected paper: %+v", paper)
	}
	if len(p.Citations) != 3 {
		t.Fatalf("expected 3 citation rules, got %d", len(p.Citations))
	}
}

func TestTopicLabelsDistinctInTableOrder(t *testing.T) {
	p, err := Load("academic")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	labels := p.TopicLabels()
	want := []domain.TopicLabel{
		"Research Methodologies",
		"Academic Collaboration",
		"AI/ML Research",
		"Technical Innovation",
		"Academic Teaching",
		"Research Publications",
	}
	if len(labels) != len(want) {
		t.Fatalf("got %v, want %v", labels, want)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("got %v, want %v", labels, want)
		}
	}
}

func TestParseRejectsBrokenProfiles(t *testing.T) {
	cases := map[string]string{
		"unknown field": `
name: x
bogus: true
`,
		"unknown type": `
name: x
analysis:
  question_types:
    - type: gossip
      keywords: [tea]
responses:
  acknowledgment: hi
  personal_connection: bye
  paragraphs:
    general: {fallback: generic}
`,
		"variant unknown topic": `
name: x
analysis:
  topics:
    - {keyword: go, label: Go}
responses:
  acknowledgment: hi
  personal_connection: bye
  paragraphs:
    general:
      variants:
        - topics: [Rust]
          text: crab
      fallback: generic
`,
		"citation unknown reference": `
name: x
responses:
  acknowledgment: hi
  personal_connection: bye
  paragraphs:
    general: {fallback: generic}
citations:
  - reference: nope
    triggers: [x]
`,
		"missing general": `
name: x
responses:
  acknowledgment: hi
  personal_connection: bye
`,
	}

	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestParseLowercasesKeywords(t *testing.T) {
	doc := `
name: custom
analysis:
  question_types:
    - type: motivation
      keywords: [WHY, " Excited "]
  topics:
    - {keyword: GoLang, label: Go}
responses:
  acknowledgment: hi
  personal_connection: bye
  paragraphs:
    general: {fallback: generic}
`
	p, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	kw := p.Analysis.QuestionTypes[0].Keywords
	if kw[0] != "why" || kw[1] != "excited" {
		t.Fatalf("keywords not normalized: %v", kw)
	}
	if p.Analysis.Topics[0].Keyword != "golang" {
		t.Fatalf("topic keyword not normalized: %q", p.Analysis.Topics[0].Keyword)
	}
}
