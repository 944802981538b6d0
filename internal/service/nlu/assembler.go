package nlu

import (
	"strings"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
)

// Assembler stitches canned fragments into one response. Output depends only on the
// classification and the profile tables.
type Assembler struct {
	tables profile.ResponseTables
}

func NewAssembler(tables profile.ResponseTables) *Assembler {
	return &Assembler{tables: tables}
}

// Assemble joins acknowledgment, the type paragraph, per-topic detail sentences and
// the personal connection with single spaces. question is accepted for parity with
// citation lookup; the fragments are selected from the classification alone.
func (a *Assembler) Assemble(_ string, c domain.QuestionClassification) string {
	parts := make([]string, 0, 4+len(c.Topics))
	parts = append(parts, a.tables.Acknowledgment)

	if p := a.paragraph(c); p != "" {
		parts = append(parts, p)
	}

	parts = append(parts, a.details(c)...)
	parts = append(parts, a.tables.PersonalConnection)

	return strings.Join(parts, " ")
}

// Fragments exposes the pieces separately for the ask tool and the API preview.
func (a *Assembler) Fragments(c domain.QuestionClassification) Fragments {
	return Fragments{
		Acknowledgment:     a.tables.Acknowledgment,
		Paragraph:          a.paragraph(c),
		Details:            a.details(c),
		PersonalConnection: a.tables.PersonalConnection,
	}
}

type Fragments struct {
	Acknowledgment     string   `json:"acknowledgment"`
	Paragraph          string   `json:"paragraph"`
	Details            []string `json:"details"`
	PersonalConnection string   `json:"personal_connection"`
}

func (a *Assembler) paragraph(c domain.QuestionClassification) string {
	set, ok := a.tables.Paragraphs[c.Type]
	if !ok {
		set = a.tables.Paragraphs[domain.QuestionTypeGeneral]
	}
	for _, variant := range set.Variants {
		for _, label := range variant.Topics {
			if c.HasTopic(label) {
				return variant.Text
			}
		}
	}
	if set.Fallback != "" {
		return set.Fallback
	}
	return a.tables.Paragraphs[domain.QuestionTypeGeneral].Fallback
}

// details are emitted in table order, not detection order
func (a *Assembler) details(c domain.QuestionClassification) []string {
	out := make([]string, 0)
	for _, d := range a.tables.TechnicalDetails {
		if c.HasTopic(d.Topic) {
			out = append(out, d.Text)
		}
	}
	return out
}
