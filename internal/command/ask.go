package command

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/pkg/errors"
)

// AskCommand previews the answer to a typed question without touching the log.
type AskCommand struct {
	deps *Dependencies
}

func NewAskCommand(deps *Dependencies) *AskCommand {
	return &AskCommand{deps: deps}
}

func (c *AskCommand) Name() string        { return "ask" }
func (c *AskCommand) Description() string { return "Classify and answer a question offline" }

func (c *AskCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext) (*domain.CommandResult, error) {
	c.deps.Metrics.ObserveControl(c.Name(), cmdCtx.Source)

	question := strings.TrimSpace(cmdCtx.StringParam("question"))
	if question == "" {
		return nil, errors.NewValidationError("question is required", "question", "")
	}
	if utf8.RuneCountInString(question) > constants.AskLimits.MaxQuestionLength {
		return nil, errors.NewValidationError("question is too long", "question", utf8.RuneCountInString(question))
	}

	answer := c.deps.Responder.Answer(question)

	return &domain.CommandResult{
		OK:      true,
		Message: answer.Response,
		Data: map[string]any{
			"question":        answer.Question,
			"type":            answer.Classification.Type,
			"topics":          answer.Classification.TopicStrings(),
			"technical_level": answer.Classification.TechnicalLevel,
			"response":        answer.Response,
			"fragments":       answer.Fragments,
			"citations":       answer.Citations,
		},
	}, nil
}
