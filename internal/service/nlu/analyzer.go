package nlu

import (
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// Analyzer classifies questions with a profile's keyword tables. It is safe for
// concurrent use; the tables are read-only.
type Analyzer struct {
	tables profile.AnalysisTables
}

func NewAnalyzer(tables profile.AnalysisTables) *Analyzer {
	return &Analyzer{tables: tables}
}

// Analyze is total: any input, including "", yields a valid classification.
func (a *Analyzer) Analyze(question string) domain.QuestionClassification {
	text := util.Normalize(question)

	return domain.QuestionClassification{
		Type:           a.detectType(text),
		Topics:         a.detectTopics(text),
		TechnicalLevel: a.detectLevel(text),
	}
}

func (a *Analyzer) detectType(text string) domain.QuestionType {
	if text == "" {
		return domain.QuestionTypeGeneral
	}
	for _, rule := range a.tables.QuestionTypes {
		if util.ContainsAny(text, rule.Keywords) {
			return rule.Type
		}
	}
	return domain.QuestionTypeGeneral
}

// topics are additive and deduplicated in table order
func (a *Analyzer) detectTopics(text string) []domain.TopicLabel {
	topics := make([]domain.TopicLabel, 0)
	if text == "" {
		return topics
	}
	for _, rule := range a.tables.Topics {
		if rule.Keyword == "" || !util.ContainsAny(text, []string{rule.Keyword}) {
			continue
		}
		seen := false
		for _, t := range topics {
			if t == rule.Label {
				seen = true
				break
			}
		}
		if !seen {
			topics = append(topics, rule.Label)
		}
	}
	return topics
}

func (a *Analyzer) detectLevel(text string) domain.TechnicalLevel {
	switch {
	case util.ContainsAny(text, a.tables.Seniority.Senior):
		return domain.TechnicalLevelSenior
	case util.ContainsAny(text, a.tables.Seniority.Junior):
		return domain.TechnicalLevelJunior
	default:
		return domain.TechnicalLevelIntermediate
	}
}
