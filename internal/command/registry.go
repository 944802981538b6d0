package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

// ErrUnknownCommand is returned when a command dispatch is attempted for an
// unregistered key.
var ErrUnknownCommand = errors.New("unknown command")

// Registry stores command handlers keyed by their canonical names.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[string]Command
	aliasKeys map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[string]Command),
		aliasKeys: make(map[string]string),
	}
}

// NewDefaultRegistry registers every control command plus the HTTP-era aliases.
func NewDefaultRegistry(deps *Dependencies) *Registry {
	r := NewRegistry()
	r.Register(NewStartCommand(deps))
	r.Register(NewStopCommand(deps))
	r.Register(NewStatusCommand(deps))
	r.Register(NewAskCommand(deps))
	r.Register(NewHelpCommand(r))

	r.RegisterAlias("start_listening", "start")
	r.RegisterAlias("stop_listening", "stop")
	return r
}

// Register adds a command handler to the registry. The handler name is stored
// in lowercase form to provide case-insensitive lookups.
func (r *Registry) Register(handler Command) {
	if handler == nil {
		return
	}

	name := strings.ToLower(handler.Name())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

func (r *Registry) RegisterAlias(alias, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliasKeys[strings.ToLower(alias)] = strings.ToLower(target)
}

// Execute runs the handler registered for key.
func (r *Registry) Execute(ctx context.Context, cmdCtx *domain.CommandContext, key string) (*domain.CommandResult, error) {
	if r == nil {
		return nil, fmt.Errorf("command registry is nil")
	}

	handler := r.getHandler(key)
	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, key)
	}
	if cmdCtx == nil {
		cmdCtx = domain.NewCommandContext("internal", nil)
	}

	return handler.Execute(ctx, cmdCtx)
}

func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// List returns the registered commands sorted by name.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (r *Registry) getHandler(key string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key == "" {
		return nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if target, ok := r.aliasKeys[key]; ok {
		key = target
	}
	if handler, ok := r.handlers[key]; ok {
		return handler
	}
	return nil
}
