package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
)

// Command is one control operation reachable from HTTP and the control socket.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext) (*domain.CommandResult, error)
}

// Controller is the capture loop as seen by the control surface.
type Controller interface {
	Start(ctx context.Context) (domain.StartResult, error)
	Stop() bool
	IsRunning() bool
}

type Asker interface {
	Answer(question string) *nlu.Answer
}

type Dependencies struct {
	Controller Controller
	Session    *conversation.Session
	Responder  Asker
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

func (d *Dependencies) logger() *zap.Logger {
	if d == nil || d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// statusResult wraps the current session status into a successful result.
func (d *Dependencies) statusResult(ok bool, message string) *domain.CommandResult {
	status := d.Session.Status()
	return &domain.CommandResult{OK: ok, Message: message, Status: &status}
}
