package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/audio"
	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/metrics"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
	"github.com/kapu/interview-teleprompter-go/internal/service/stt"
)

// ErrCaptureDisabled is returned by Start when no recorder or transcriber is wired.
var ErrCaptureDisabled = errors.New("capture is disabled")

// Recorder yields one utterance per Capture call, or audio.ErrNoSpeech.
type Recorder interface {
	Open() error
	Capture(ctx context.Context) ([]float32, error)
	Close() error
}

type Responder interface {
	Answer(question string) *nlu.Answer
}

type Config struct {
	Recorder     Recorder
	Transcriber  stt.Transcriber
	Responder    Responder
	Session      *conversation.Session
	Metrics      *metrics.Metrics
	SampleRate   int
	ErrorBackoff time.Duration
}

// Controller owns the single background capture loop of the process.
type Controller struct {
	recorder     Recorder
	transcriber  stt.Transcriber
	responder    Responder
	session      *conversation.Session
	metrics      *metrics.Metrics
	sampleRate   int
	errorBackoff time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewController(cfg Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = constants.CaptureConfig.SampleRate
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = constants.CaptureConfig.ErrorBackoff
	}
	return &Controller{
		recorder:     cfg.Recorder,
		transcriber:  cfg.Transcriber,
		responder:    cfg.Responder,
		session:      cfg.Session,
		metrics:      cfg.Metrics,
		sampleRate:   cfg.SampleRate,
		errorBackoff: cfg.ErrorBackoff,
		logger:       logger,
	}
}

func (c *Controller) Enabled() bool {
	return c.recorder != nil && c.transcriber != nil
}

// Start launches the loop unless one is already running. ctx bounds the loop's
// lifetime; callers holding a request context should detach it first.
func (c *Controller) Start(ctx context.Context) (domain.StartResult, error) {
	if !c.Enabled() {
		return domain.StartResult{}, ErrCaptureDisabled
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return domain.StartResult{AlreadyRunning: true}, nil
	}
	if err := c.recorder.Open(); err != nil {
		return domain.StartResult{}, err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.run(loopCtx, c.done)

	c.session.SetListening(true)
	c.metrics.SetListening(true)
	c.logger.Info("Capture loop started", zap.String("session_id", c.session.ID()))

	return domain.StartResult{Started: true}, nil
}

// Stop cancels the loop and waits for it to exit. It reports whether a loop was
// running; stopping an idle controller is a no-op.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done
	return true
}

func (c *Controller) State() domain.CaptureState {
	if c.IsRunning() {
		return domain.CaptureStateListening
	}
	return domain.CaptureStateIdle
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer func() {
		if err := c.recorder.Close(); err != nil {
			c.logger.Warn("Failed to close recorder", zap.Error(err))
		}

		// Cleared under the lock so a Start that wins the next slot cannot be
		// overwritten by this exit.
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.session.SetListening(false)
		c.metrics.SetListening(false)
		c.mu.Unlock()

		c.logger.Info("Capture loop stopped", zap.String("session_id", c.session.ID()))
		close(done)
	}()

	for ctx.Err() == nil {
		c.step(ctx)
	}
}

// step runs one capture, transcribe and answer cycle. Every failure is logged and
// swallowed.
func (c *Controller) step(ctx context.Context) {
	samples, err := c.recorder.Capture(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.Is(err, audio.ErrNoSpeech):
		c.metrics.ObserveUtterance("timeout")
		return
	default:
		c.metrics.ObserveUtterance("audio_error")
		c.logger.Warn("Audio capture failed", zap.Error(err))
		c.backoff(ctx)
		return
	}

	wav, err := audio.EncodeWAV(samples, c.sampleRate)
	if err != nil {
		c.metrics.ObserveUtterance("audio_error")
		c.logger.Warn("Failed to encode utterance", zap.Error(err))
		return
	}

	text, err := c.transcriber.Transcribe(ctx, wav)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case stt.IsSilent(err):
		c.metrics.ObserveUtterance("unrecognized")
		return
	default:
		c.metrics.ObserveUtterance("stt_error")
		c.logger.Warn("Transcription failed", zap.Error(err))
		c.backoff(ctx)
		return
	}

	c.metrics.ObserveUtterance("recognized")
	c.Process(text)
}

// Process records a recognized question and its answer in the session.
func (c *Controller) Process(text string) *nlu.Answer {
	c.session.RecordQuestion(text)
	answer := c.responder.Answer(text)
	c.session.RecordAnswer(text, answer.Response)
	c.metrics.SetConversationEntries(c.session.Log().Len())

	c.logger.Info("Question answered",
		zap.String("type", string(answer.Classification.Type)),
		zap.Strings("topics", answer.Classification.TopicStrings()),
		zap.Int("citations", len(answer.Citations)),
	)
	return answer
}

func (c *Controller) backoff(ctx context.Context) {
	t := time.NewTimer(c.errorBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
