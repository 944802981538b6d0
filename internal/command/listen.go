package command

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/pkg/errors"
)

const (
	MsgListeningStarted = "Teleprompter listening started"
	MsgAlreadyRunning   = "Teleprompter is already running"
	MsgListeningStopped = "Teleprompter listening stopped"
)

type StartCommand struct {
	deps *Dependencies
}

func NewStartCommand(deps *Dependencies) *StartCommand {
	return &StartCommand{deps: deps}
}

func (c *StartCommand) Name() string        { return "start" }
func (c *StartCommand) Description() string { return "Start the capture loop" }

// Execute detaches from the caller's context so the loop outlives the request.
func (c *StartCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext) (*domain.CommandResult, error) {
	c.deps.Metrics.ObserveControl(c.Name(), cmdCtx.Source)

	res, err := c.deps.Controller.Start(context.WithoutCancel(ctx))
	if err != nil {
		c.deps.logger().Error("Failed to start capture loop",
			zap.String("source", cmdCtx.Source),
			zap.Error(err),
		)
		return nil, errors.NewServiceError("failed to start listening", "capture", "start", err)
	}

	if res.AlreadyRunning {
		return c.deps.statusResult(false, MsgAlreadyRunning), nil
	}

	stealth := cmdCtx.BoolParam("stealth_mode", true)
	c.deps.logger().Info("Listening started",
		zap.String("source", cmdCtx.Source),
		zap.Bool("stealth_mode", stealth),
	)
	result := c.deps.statusResult(true, MsgListeningStarted)
	result.Data = map[string]any{"stealth_mode": stealth}
	return result, nil
}

type StopCommand struct {
	deps *Dependencies
}

func NewStopCommand(deps *Dependencies) *StopCommand {
	return &StopCommand{deps: deps}
}

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop the capture loop" }

func (c *StopCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext) (*domain.CommandResult, error) {
	c.deps.Metrics.ObserveControl(c.Name(), cmdCtx.Source)

	if c.deps.Controller.Stop() {
		c.deps.logger().Info("Listening stopped", zap.String("source", cmdCtx.Source))
	}
	return c.deps.statusResult(true, MsgListeningStopped), nil
}

type StatusCommand struct {
	deps *Dependencies
}

func NewStatusCommand(deps *Dependencies) *StatusCommand {
	return &StatusCommand{deps: deps}
}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Show listening state and the latest exchange" }

func (c *StatusCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext) (*domain.CommandResult, error) {
	c.deps.Metrics.ObserveControl(c.Name(), cmdCtx.Source)

	state := domain.CaptureStateIdle
	if c.deps.Controller.IsRunning() {
		state = domain.CaptureStateListening
	}
	return c.deps.statusResult(true, state.String()), nil
}
