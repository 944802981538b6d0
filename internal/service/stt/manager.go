package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// Manager routes transcription to a primary backend, falls back to a secondary one,
// and stops calling both while the circuit breaker is open.
type Manager struct {
	primary        Transcriber
	fallback       Transcriber
	circuitBreaker *util.CircuitBreaker
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

type ManagerConfig struct {
	Primary        Transcriber
	Fallback       Transcriber
	EnableFallback bool
	Metrics        *metrics.Metrics
	Now            util.Clock
}

func NewManager(cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	primary, fallback := cfg.Primary, cfg.Fallback
	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		return nil, fmt.Errorf("no speech-to-text backend configured")
	}
	if !cfg.EnableFallback {
		fallback = nil
	}

	m := &Manager{
		primary:  primary,
		fallback: fallback,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
	m.circuitBreaker = util.NewCircuitBreaker(util.CircuitBreakerConfig{
		Name:                "stt",
		FailureThreshold:    constants.CircuitBreakerConfig.FailureThreshold,
		ResetTimeout:        constants.CircuitBreakerConfig.ResetTimeout,
		HealthCheckInterval: constants.CircuitBreakerConfig.HealthCheckInterval,
		HealthCheck:         m.healthCheckPing,
		Now:                 cfg.Now,
	}, logger)

	fields := []zap.Field{zap.String("primary", primary.Name())}
	if fallback != nil {
		fields = append(fields, zap.String("fallback", fallback.Name()))
	}
	logger.Info("Speech-to-text ready", fields...)

	return m, nil
}

func (m *Manager) Name() string {
	return "manager"
}

func (m *Manager) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if !m.circuitBreaker.CanExecute() {
		status := m.circuitBreaker.GetStatus()
		m.logger.Warn("Speech-to-text unavailable (circuit open)",
			zap.String("state", status.State.String()),
			zap.Int("failure_count", status.FailureCount),
		)
		return "", ErrUnavailable
	}

	text, primaryErr := m.invoke(ctx, m.primary, wav)
	if primaryErr == nil || IsSilent(primaryErr) {
		m.circuitBreaker.RecordSuccess()
		return text, primaryErr
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if m.fallback != nil {
		m.logger.Warn("Primary transcription failed, trying fallback",
			zap.String("primary", m.primary.Name()),
			zap.Error(primaryErr),
		)
		text, fallbackErr := m.invoke(ctx, m.fallback, wav)
		if fallbackErr == nil || IsSilent(fallbackErr) {
			m.circuitBreaker.RecordSuccess()
			return text, fallbackErr
		}

		m.recordFailure(primaryErr)
		m.recordFailure(fallbackErr)
		return "", fallbackErr
	}

	m.recordFailure(primaryErr)
	return "", primaryErr
}

func (m *Manager) invoke(ctx context.Context, t Transcriber, wav []byte) (string, error) {
	start := time.Now()
	text, err := t.Transcribe(ctx, wav)
	m.metrics.ObserveSTT(t.Name(), err == nil || IsSilent(err), time.Since(start).Seconds())
	return text, err
}

func (m *Manager) recordFailure(err error) {
	if !isServiceFailure(err) {
		return
	}

	timeout := constants.CircuitBreakerConfig.ResetTimeout
	if isRateLimitError(err) {
		timeout = constants.CircuitBreakerConfig.RateLimitTimeout
	}
	m.circuitBreaker.RecordFailure(timeout)
}

func (m *Manager) healthCheckPing() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthy := false
	for _, t := range []Transcriber{m.primary, m.fallback} {
		if p, ok := t.(Pinger); ok && p.Ping(ctx) {
			healthy = true
		}
	}

	m.logger.Info("Health Check: Result", zap.Bool("healthy", healthy))
	return healthy
}

func (m *Manager) GetCircuitStatus() util.CircuitBreakerStatus {
	return m.circuitBreaker.GetStatus()
}

func (m *Manager) ResetCircuit() {
	m.circuitBreaker.Reset()
}

var statusRegex = regexp.MustCompile(`\b(5\d{2})\b`)

// statusOf extracts the HTTP status from SDK errors, or 0.
func statusOf(err error) int {
	var oaErr *openai.Error
	if errors.As(err, &oaErr) {
		return oaErr.StatusCode
	}
	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var gErrPtr *genai.APIError
	if errors.As(err, &gErrPtr) && gErrPtr != nil {
		return gErrPtr.Code
	}
	return 0
}

func isServiceFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if code := statusOf(err); code != 0 {
		return code >= 500 || code == http.StatusTooManyRequests
	}

	msg := err.Error()
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "ETIMEDOUT") {
		return true
	}
	if isRateLimitError(err) {
		return true
	}
	if matches := statusRegex.FindStringSubmatch(msg); len(matches) > 1 {
		code, convErr := strconv.Atoi(matches[1])
		return convErr == nil && code >= 500
	}
	return false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	if code := statusOf(err); code != 0 {
		return code == http.StatusTooManyRequests
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Rate limit") || strings.Contains(msg, "quota")
}
