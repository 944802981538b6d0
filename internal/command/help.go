package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

type HelpCommand struct {
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{registry: registry}
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "List available commands" }

func (c *HelpCommand) Execute(_ context.Context, _ *domain.CommandContext) (*domain.CommandResult, error) {
	var sb strings.Builder
	commands := make(map[string]any)
	for _, cmd := range c.registry.List() {
		fmt.Fprintf(&sb, "%-8s %s\n", cmd.Name(), cmd.Description())
		commands[cmd.Name()] = cmd.Description()
	}
	return &domain.CommandResult{
		OK:      true,
		Message: strings.TrimRight(sb.String(), "\n"),
		Data:    map[string]any{"commands": commands},
	}, nil
}
