package adapter

import (
	"fmt"
	"strings"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
)

// ResponseFormatter renders teleprompter data for terminals.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

// FormatAnswer renders a classified question and its suggested response.
func (f *ResponseFormatter) FormatAnswer(answer *nlu.Answer) string {
	if answer == nil {
		return f.FormatError("no answer")
	}
	return f.render("answer", answer, answer.Response)
}

func (f *ResponseFormatter) FormatEntry(entry domain.ConversationEntry) string {
	return f.render("entry", entry, entry.Text)
}

func (f *ResponseFormatter) FormatStatus(status domain.ListeningStatus) string {
	return f.render("status", status, fmt.Sprintf("listening=%v", status.IsListening))
}

// FormatCommandResult renders a control reply: the message, then the status
// block when one is attached.
func (f *ResponseFormatter) FormatCommandResult(res *domain.CommandResult) string {
	if res == nil {
		return f.FormatError("empty reply")
	}

	var sb strings.Builder
	if res.OK {
		sb.WriteString(res.Message)
	} else {
		sb.WriteString(f.FormatError(res.Message))
	}
	if res.Status != nil {
		sb.WriteString("\n\n")
		sb.WriteString(f.FormatStatus(*res.Status))
	}
	return sb.String()
}

func (f *ResponseFormatter) FormatError(message string) string {
	return fmt.Sprintf("error: %s", message)
}

// render falls back to plain text if a template fails, so output is never lost.
func (f *ResponseFormatter) render(name string, data any, fallback string) string {
	out, err := executeFormatterTemplate(name, data)
	if err != nil {
		return fallback
	}
	return out
}

func speakerLabel(s domain.Speaker) string {
	switch s {
	case domain.SpeakerInterviewer:
		return "Interviewer"
	case domain.SpeakerAssistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// wrapText breaks text at spaces so no line exceeds width runes, unless a
// single word is longer.
func wrapText(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 || width <= 0 {
		return text
	}

	var sb strings.Builder
	lineLen := 0
	for i, w := range words {
		wl := len([]rune(w))
		if i > 0 {
			if lineLen+1+wl > width {
				sb.WriteByte('\n')
				lineLen = 0
			} else {
				sb.WriteByte(' ')
				lineLen++
			}
		}
		sb.WriteString(w)
		lineLen += wl
	}
	return sb.String()
}
