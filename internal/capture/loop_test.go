package capture

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/audio"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/profile"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/service/nlu"
	"github.com/kapu/interview-teleprompter-go/internal/service/stt"
)

// fakeRecorder replays scripted results, then blocks until cancelled.
type fakeRecorder struct {
	mu      sync.Mutex
	script  []error
	opened  int
	closed  int
	openErr error
}

func (r *fakeRecorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return r.openErr
	}
	r.opened++
	return nil
}

func (r *fakeRecorder) Capture(ctx context.Context) ([]float32, error) {
	r.mu.Lock()
	if len(r.script) > 0 {
		err := r.script[0]
		r.script = r.script[1:]
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return []float32{0.2, -0.2, 0.2, -0.2}, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *fakeRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

type fakeTranscriber struct {
	mu    sync.Mutex
	texts []string
	errs  []error
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(context.Context, []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	if err != nil {
		return "", err
	}
	text := f.texts[0]
	f.texts = f.texts[1:]
	return text, nil
}

func newController(t *testing.T, rec *fakeRecorder, tr *fakeTranscriber) (*Controller, *conversation.Session) {
	t.Helper()
	p, err := profile.Load("startup")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	session := conversation.NewSession(p.Name, zap.NewNop())
	c := NewController(Config{
		Recorder:     rec,
		Transcriber:  tr,
		Responder:    nlu.NewResponder(p, zap.NewNop()),
		Session:      session,
		ErrorBackoff: time.Millisecond,
	}, zap.NewNop())
	return c, session
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestLoopAnswersRecognizedUtterance(t *testing.T) {
	rec := &fakeRecorder{script: []error{audio.ErrNoSpeech, nil}}
	tr := &fakeTranscriber{texts: []string{"Why are you interested in this position?"}}
	c, session := newController(t, rec, tr)

	res, err := c.Start(context.Background())
	if err != nil || !res.Started {
		t.Fatalf("Start = %+v, %v", res, err)
	}
	waitFor(t, func() bool { return session.Log().Len() == 2 })

	if !c.Stop() {
		t.Fatalf("Stop should report a running loop")
	}

	entries := session.Log().All()
	if entries[0].Speaker != domain.SpeakerInterviewer || entries[0].Text != "Why are you interested in this position?" {
		t.Fatalf("unexpected interviewer entry: %+v", entries[0])
	}
	if entries[1].Speaker != domain.SpeakerAssistant || !strings.HasPrefix(entries[1].Text, "That's a great question.") {
		t.Fatalf("unexpected assistant entry: %+v", entries[1])
	}

	status := session.Status()
	if status.IsListening || status.CurrentQuestion != entries[0].Text || status.LastResponse != entries[1].Text {
		t.Fatalf("unexpected status after stop: %+v", status)
	}
	if c.State() != domain.CaptureStateIdle {
		t.Fatalf("State = %s, want IDLE", c.State())
	}
	if rec.opened != 1 || rec.closed != 1 {
		t.Fatalf("recorder opened %d / closed %d times", rec.opened, rec.closed)
	}
}

func TestStartTwiceReportsAlreadyRunning(t *testing.T) {
	rec := &fakeRecorder{}
	c, session := newController(t, rec, &fakeTranscriber{})

	if res, _ := c.Start(context.Background()); !res.Started {
		t.Fatalf("first Start should start the loop")
	}
	res, err := c.Start(context.Background())
	if err != nil || res.Started || !res.AlreadyRunning {
		t.Fatalf("second Start = %+v, %v", res, err)
	}
	if rec.opened != 1 {
		t.Fatalf("recorder opened %d times, want 1", rec.opened)
	}
	if !session.IsListening() || c.State() != domain.CaptureStateListening {
		t.Fatalf("expected LISTENING")
	}

	c.Stop()
	if c.Stop() {
		t.Fatalf("second Stop should be a no-op")
	}
}

func TestRestartAfterCancelKeepsListeningFlag(t *testing.T) {
	c, session := newController(t, &fakeRecorder{}, &fakeTranscriber{})

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		if res, err := c.Start(ctx); err != nil || !res.Started {
			t.Fatalf("cycle %d: Start = %+v, %v", i, res, err)
		}
		go cancel()

		for {
			res, err := c.Start(context.Background())
			if err != nil {
				t.Fatalf("cycle %d: restart error: %v", i, err)
			}
			if res.Started {
				break
			}
		}
		if !c.IsRunning() || !session.IsListening() {
			t.Fatalf("cycle %d: running=%v listening=%v", i, c.IsRunning(), session.IsListening())
		}

		c.Stop()
		if session.IsListening() {
			t.Fatalf("cycle %d: still listening after Stop", i)
		}
	}
}

func TestStopWhenIdleIsNoop(t *testing.T) {
	c, session := newController(t, &fakeRecorder{}, &fakeTranscriber{})
	if c.Stop() {
		t.Fatalf("Stop on idle controller reported running")
	}
	if session.IsListening() {
		t.Fatalf("idle session should not be listening")
	}
}

func TestLoopSurvivesFailures(t *testing.T) {
	rec := &fakeRecorder{script: []error{errors.New("input overflowed"), nil, nil, nil}}
	tr := &fakeTranscriber{
		errs:  []error{stt.ErrUnintelligible, errors.New("503 Service Unavailable"), nil},
		texts: []string{"How do you lead a team?"},
	}
	c, session := newController(t, rec, tr)

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, func() bool { return session.Log().Len() == 2 })
	c.Stop()

	latest, ok := session.Log().Latest()
	if !ok || latest.Speaker != domain.SpeakerAssistant {
		t.Fatalf("expected assistant entry last, got %+v", latest)
	}
}

func TestStartPropagatesOpenError(t *testing.T) {
	rec := &fakeRecorder{openErr: errors.New("no default input device")}
	c, session := newController(t, rec, &fakeTranscriber{})

	if _, err := c.Start(context.Background()); err == nil {
		t.Fatalf("expected open error")
	}
	if c.IsRunning() || session.IsListening() {
		t.Fatalf("controller should stay idle after a failed start")
	}
}

func TestStartWithoutBackendsIsDisabled(t *testing.T) {
	c := NewController(Config{Session: conversation.NewSession("startup", nil)}, nil)
	if _, err := c.Start(context.Background()); !errors.Is(err, ErrCaptureDisabled) {
		t.Fatalf("expected ErrCaptureDisabled, got %v", err)
	}
}

func TestParentCancelStopsLoop(t *testing.T) {
	c, session := newController(t, &fakeRecorder{}, &fakeTranscriber{})
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()
	waitFor(t, func() bool { return !c.IsRunning() })
	waitFor(t, func() bool { return !session.IsListening() })
}
