package adapter

import (
	"strings"
	"testing"
	"time"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
)

func TestFormatAnswer(t *testing.T) {
	f := NewResponseFormatter()
	answer := &nlu.Answer{
		Question: "How do you defend federated learning?",
		Classification: domain.QuestionClassification{
			Type:           domain.QuestionTypeAcademic,
			Topics:         []domain.TopicLabel{"AI/ML"},
			TechnicalLevel: domain.TechnicalLevelSenior,
		},
		Response: "My research covers robust aggregation.",
		Citations: []domain.Reference{
			{ID: "SecureFed-2024", Title: "SecureFed", Year: 2024},
			{ID: "QEP-VLA-2025", Title: "QEP-VLA"},
		},
	}

	out := f.FormatAnswer(answer)

	for _, want := range []string{
		"Q: How do you defend federated learning?",
		"[academic | senior | AI/ML]",
		"My research covers robust aggregation.",
		"References:\n  1. SecureFed (2024)\n  2. QEP-VLA",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("FormatAnswer output missing %q:\n%s", want, out)
		}
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatalf("output should not end with a newline: %q", out)
	}
}

func TestFormatAnswerWithoutCitations(t *testing.T) {
	out := NewResponseFormatter().FormatAnswer(&nlu.Answer{
		Question:       "Hello?",
		Classification: domain.QuestionClassification{Type: domain.QuestionTypeGeneral, TechnicalLevel: domain.TechnicalLevelIntermediate},
		Response:       "Hi.",
	})
	if strings.Contains(out, "References") {
		t.Fatalf("unexpected references block:\n%s", out)
	}
	if !strings.Contains(out, "[general | intermediate]") {
		t.Fatalf("unexpected header:\n%s", out)
	}
}

func TestFormatEntry(t *testing.T) {
	entry := domain.ConversationEntry{
		Speaker:   domain.SpeakerInterviewer,
		Text:      "Tell me about yourself",
		Timestamp: time.Date(2025, 9, 17, 10, 30, 5, 0, time.UTC),
	}
	got := NewResponseFormatter().FormatEntry(entry)
	if got != "[10:30:05] Interviewer: Tell me about yourself" {
		t.Fatalf("FormatEntry = %q", got)
	}
}

func TestFormatCommandResult(t *testing.T) {
	f := NewResponseFormatter()
	status := domain.ListeningStatus{IsListening: true, ConversationCount: 4, SessionID: "abc", Profile: "startup"}

	out := f.FormatCommandResult(&domain.CommandResult{OK: true, Message: "Teleprompter listening started", Status: &status})
	for _, want := range []string{"Teleprompter listening started", "Session:   abc (startup)", "Listening: yes", "Entries:   4"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Question:") {
		t.Fatalf("empty question should be omitted:\n%s", out)
	}

	out = f.FormatCommandResult(&domain.CommandResult{OK: false, Message: "Teleprompter is already running"})
	if out != "error: Teleprompter is already running" {
		t.Fatalf("failure result = %q", out)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Fatalf("wrapText = %q", got)
	}
	if got := wrapText("", 10); got != "" {
		t.Fatalf("wrapText(empty) = %q", got)
	}
}
