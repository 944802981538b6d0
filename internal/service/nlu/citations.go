package nlu

import (
	"strings"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// Citer maps trigger words in a question onto citable works.
type Citer struct {
	rules  []profile.CitationRule
	lookup func(id string) (*domain.Reference, bool)
}

func NewCiter(p *profile.Profile) *Citer {
	return &Citer{rules: p.Citations, lookup: p.Reference}
}

// Cite returns the referenced works in rule order, each at most once.
func (c *Citer) Cite(question string) []domain.Reference {
	text := util.Normalize(question)
	if text == "" || len(c.rules) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	refs := make([]domain.Reference, 0)
	for _, rule := range c.rules {
		if !util.ContainsAny(text, rule.Triggers) {
			continue
		}
		if _, dup := seen[rule.Reference]; dup {
			continue
		}
		seen[rule.Reference] = struct{}{}
		if ref, ok := c.lookup(rule.Reference); ok {
			refs = append(refs, *ref)
		}
	}
	return refs
}

// RefsSuffix renders " (Refs: t1; t2)" or "" when refs is empty.
func RefsSuffix(refs []domain.Reference) string {
	if len(refs) == 0 {
		return ""
	}
	titles := make([]string, 0, len(refs))
	for _, r := range refs {
		titles = util.AppendUnique(titles, r.Title)
	}
	return " (Refs: " + strings.Join(titles, "; ") + ")"
}
