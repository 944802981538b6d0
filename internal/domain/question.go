package domain

import (
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

type QuestionType string

const (
	QuestionTypeGeneral      QuestionType = "general"
	QuestionTypeExperience   QuestionType = "experience"
	QuestionTypeMethodology  QuestionType = "methodology"
	QuestionTypeMotivation   QuestionType = "motivation"
	QuestionTypeCompensation QuestionType = "compensation"
	QuestionTypeChallenge    QuestionType = "challenge"
	QuestionTypeLeadership   QuestionType = "leadership"
	QuestionTypeAcademic     QuestionType = "academic"
)

var questionTypes = []QuestionType{
	QuestionTypeGeneral,
	QuestionTypeExperience,
	QuestionTypeMethodology,
	QuestionTypeMotivation,
	QuestionTypeCompensation,
	QuestionTypeChallenge,
	QuestionTypeLeadership,
	QuestionTypeAcademic,
}

// ParseQuestionType maps profile data onto a known type. ok is false for unknown names.
func ParseQuestionType(raw string) (QuestionType, bool) {
	norm := util.Normalize(raw)
	for _, qt := range questionTypes {
		if string(qt) == norm {
			return qt, true
		}
	}
	return QuestionTypeGeneral, false
}

type TechnicalLevel string

const (
	TechnicalLevelJunior       TechnicalLevel = "junior"
	TechnicalLevelIntermediate TechnicalLevel = "intermediate"
	TechnicalLevelSenior       TechnicalLevel = "senior"
)

// TopicLabel is a canonical topic drawn from a profile's keyword table.
type TopicLabel string

// QuestionClassification is the analyzer output for one question.
type QuestionClassification struct {
	Type           QuestionType   `json:"type"`
	Topics         []TopicLabel   `json:"topics"`
	TechnicalLevel TechnicalLevel `json:"technical_level"`
}

// HasTopic reports whether label was detected.
func (c QuestionClassification) HasTopic(label TopicLabel) bool {
	for _, t := range c.Topics {
		if t == label {
			return true
		}
	}
	return false
}

// TopicStrings returns the topics as plain strings for logging and templates.
func (c QuestionClassification) TopicStrings() []string {
	out := make([]string, len(c.Topics))
	for i, t := range c.Topics {
		out[i] = string(t)
	}
	return out
}
