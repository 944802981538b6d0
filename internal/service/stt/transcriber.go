package stt

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/kapu/interview-teleprompter-go/pkg/errors"
)

var (
	// ErrNoSpeech means the clip held nothing to transcribe.
	ErrNoSpeech = errors.New("stt: no speech detected")
	// ErrUnintelligible means speech was heard but could not be recognized.
	ErrUnintelligible = errors.New("stt: speech not recognized")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("stt: service unavailable")
)

// Transcriber turns one WAV-encoded utterance into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Pinger is implemented by transcribers that can cheaply check their backend.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// IsSilent reports whether err is one of the benign recognition outcomes that the
// capture loop skips without logging.
func IsSilent(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrUnintelligible)
}

// cleanTranscript trims recognizer output and maps empty results to ErrUnintelligible.
func cleanTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"")
	if text == "" || strings.EqualFold(text, unintelligibleMarker) {
		return "", ErrUnintelligible
	}
	return text, nil
}

const unintelligibleMarker = "UNINTELLIGIBLE"

// providerError wraps a backend failure as an API error carrying the upstream
// status, or 502 when the SDK did not report one.
func providerError(provider, model string, err error) error {
	code := statusOf(err)
	if code == 0 {
		code = http.StatusBadGateway
	}
	return apperrors.NewAPIError(provider+" transcription failed", code, map[string]any{
		"provider": provider,
		"model":    model,
	}).WithCause(err)
}
