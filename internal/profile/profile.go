package profile

import (
	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

// Profile is one interview context: who is asking, and the keyword tables and canned
// prose used to answer them.
type Profile struct {
	Name        string                  `yaml:"name"`
	Description string                  `yaml:"description"`
	Context     domain.CandidateProfile `yaml:"context"`
	Features    []string                `yaml:"features"`
	Analysis    AnalysisTables          `yaml:"analysis"`
	Responses   ResponseTables          `yaml:"responses"`
	Citations   []CitationRule          `yaml:"citations"`
	References  []domain.Reference      `yaml:"references"`
}

type AnalysisTables struct {
	// QuestionTypes is checked in order; the first group with a hit wins.
	QuestionTypes []TypeRule     `yaml:"question_types"`
	Topics        []TopicRule    `yaml:"topics"`
	Seniority     SeniorityRules `yaml:"seniority"`
}

type TypeRule struct {
	Type     domain.QuestionType `yaml:"type"`
	Keywords []string            `yaml:"keywords"`
}

type TopicRule struct {
	Keyword string            `yaml:"keyword"`
	Label   domain.TopicLabel `yaml:"label"`
}

type SeniorityRules struct {
	Senior []string `yaml:"senior"`
	Junior []string `yaml:"junior"`
}

type ResponseTables struct {
	Acknowledgment     string                               `yaml:"acknowledgment"`
	Paragraphs         map[domain.QuestionType]ParagraphSet `yaml:"paragraphs"`
	TechnicalDetails   []DetailSentence                     `yaml:"technical_details"`
	PersonalConnection string                               `yaml:"personal_connection"`
}

// ParagraphSet picks the first variant whose topics intersect the classification,
// falling back to Fallback.
type ParagraphSet struct {
	Variants []ParagraphVariant `yaml:"variants"`
	Fallback string             `yaml:"fallback"`
}

type ParagraphVariant struct {
	Topics []domain.TopicLabel `yaml:"topics"`
	Text   string              `yaml:"text"`
}

type DetailSentence struct {
	Topic domain.TopicLabel `yaml:"topic"`
	Text  string            `yaml:"text"`
}

type CitationRule struct {
	Reference string   `yaml:"reference"`
	Triggers  []string `yaml:"triggers"`
}

// Reference looks up a citable work by id.
func (p *Profile) Reference(id string) (*domain.Reference, bool) {
	for i := range p.References {
		if p.References[i].ID == id {
			return &p.References[i], true
		}
	}
	return nil, false
}

// TopicLabels returns the distinct labels of the topic table in table order.
func (p *Profile) TopicLabels() []domain.TopicLabel {
	seen := make(map[domain.TopicLabel]struct{}, len(p.Analysis.Topics))
	out := make([]domain.TopicLabel, 0, len(p.Analysis.Topics))
	for _, rule := range p.Analysis.Topics {
		if _, ok := seen[rule.Label]; ok {
			continue
		}
		seen[rule.Label] = struct{}{}
		out = append(out, rule.Label)
	}
	return out
}
