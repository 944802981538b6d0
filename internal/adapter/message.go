package adapter

import (
	"regexp"
	"strings"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// MessageAdapter turns typed control lines ("start", "ask why this role?") into
// commands for the registry or the control socket.
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter accepts an optional prefix such as "/" that lines may carry.
func NewMessageAdapter(prefix string) *MessageAdapter {
	return &MessageAdapter{prefix: prefix}
}

// ParsedCommand is one parsed control line. Key is the registry key, which may
// be an alias.
type ParsedCommand struct {
	Type       domain.CommandType
	Key        string
	Params     map[string]any
	RawMessage string
}

func (ma *MessageAdapter) ParseLine(line string) *ParsedCommand {
	text := strings.TrimSpace(line)
	if text == "" {
		return ma.createUnknownCommand("")
	}

	commandText := text
	if ma.prefix != "" {
		commandText = strings.TrimSpace(strings.TrimPrefix(text, ma.prefix))
	}

	parts := strings.Fields(commandText)
	if len(parts) == 0 {
		return ma.createUnknownCommand(text)
	}

	cmd := strings.ToLower(parts[0])
	rest := strings.TrimSpace(commandText[len(parts[0]):])

	switch {
	case ma.isStartCommand(cmd):
		return &ParsedCommand{Type: domain.CommandStart, Key: "start", Params: map[string]any{}, RawMessage: text}
	case ma.isStopCommand(cmd):
		return &ParsedCommand{Type: domain.CommandStop, Key: "stop", Params: map[string]any{}, RawMessage: text}
	case cmd == "status":
		return &ParsedCommand{Type: domain.CommandStatus, Key: "status", Params: map[string]any{}, RawMessage: text}
	case ma.isAskCommand(cmd):
		return &ParsedCommand{
			Type:       domain.CommandAsk,
			Key:        "ask",
			Params:     map[string]any{"question": ma.sanitizeQuestion(rest)},
			RawMessage: text,
		}
	case cmd == "help" || cmd == "?":
		return &ParsedCommand{Type: domain.CommandUnknown, Key: "help", Params: map[string]any{}, RawMessage: text}
	}

	return ma.createUnknownCommand(text)
}

func (ma *MessageAdapter) isStartCommand(cmd string) bool {
	return util.Contains([]string{"start", "start_listening", "listen"}, cmd)
}

func (ma *MessageAdapter) isStopCommand(cmd string) bool {
	return util.Contains([]string{"stop", "stop_listening", "pause"}, cmd)
}

func (ma *MessageAdapter) isAskCommand(cmd string) bool {
	return cmd == "ask" || cmd == "q"
}

func (ma *MessageAdapter) createUnknownCommand(text string) *ParsedCommand {
	return &ParsedCommand{
		Type:       domain.CommandUnknown,
		Params:     map[string]any{},
		RawMessage: text,
	}
}

// sanitizeQuestion strips control characters and clips to the ask limit.
func (ma *MessageAdapter) sanitizeQuestion(input string) string {
	cleaned := controlCharsPattern.ReplaceAllString(input, " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if runes := []rune(cleaned); len(runes) > constants.AskLimits.MaxQuestionLength {
		cleaned = string(runes[:constants.AskLimits.MaxQuestionLength])
	}
	return cleaned
}
