package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedSource struct {
	frames [][]float32
	tail   []float32
	reads  int
	err    error
}

func (s *scriptedSource) ReadFrame() ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := s.reads
	s.reads++
	if i < len(s.frames) {
		return s.frames[i], nil
	}
	return s.tail, nil
}

func constFrame(v float32) []float32 {
	f := make([]float32, 10)
	for i := range f {
		f[i] = v
	}
	return f
}

func repeat(frame []float32, n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = frame
	}
	return out
}

// 10 samples per frame at 1 kHz: one frame is 10ms
var testSegmenter = NewSegmenter(SegmenterConfig{
	SampleRate:       1000,
	FrameSize:        10,
	SilenceRMS:       0.1,
	SilenceHang:      30 * time.Millisecond,
	MinSpeechSamples: 50,
})

var (
	quiet = constFrame(0.01)
	loud  = constFrame(0.5)
)

func TestSegmenterTimesOutOnSilence(t *testing.T) {
	src := &scriptedSource{tail: quiet}

	_, err := testSegmenter.Next(context.Background(), src, 50*time.Millisecond, time.Second)
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
	if src.reads != 5 {
		t.Fatalf("expected 5 frame reads before timeout, got %d", src.reads)
	}
}

func TestSegmenterEndsOnTrailingSilence(t *testing.T) {
	frames := append(repeat(quiet, 2), repeat(loud, 20)...)
	src := &scriptedSource{frames: frames, tail: quiet}

	got, err := testSegmenter.Next(context.Background(), src, 50*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if len(got) != 230 {
		t.Fatalf("expected 20 loud + 3 hang frames (230 samples), got %d", len(got))
	}
}

func TestSegmenterHonoursPhraseLimit(t *testing.T) {
	src := &scriptedSource{tail: loud}

	got, err := testSegmenter.Next(context.Background(), src, 50*time.Millisecond, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 10 frames (100 samples), got %d", len(got))
	}
}

func TestSegmenterDropsShortBlips(t *testing.T) {
	src := &scriptedSource{frames: [][]float32{loud}, tail: quiet}

	if _, err := testSegmenter.Next(context.Background(), src, 50*time.Millisecond, time.Second); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech for a 40-sample clip, got %v", err)
	}
}

func TestSegmenterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &scriptedSource{tail: loud}
	if _, err := testSegmenter.Next(ctx, src, time.Second, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if src.reads != 0 {
		t.Fatalf("no frame should be read after cancel")
	}
}

func TestSegmenterPropagatesReadErrors(t *testing.T) {
	boom := errors.New("input overflowed")
	src := &scriptedSource{err: boom}

	if _, err := testSegmenter.Next(context.Background(), src, time.Second, time.Second); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestFrameRMS(t *testing.T) {
	if got := FrameRMS(nil); got != 0 {
		t.Fatalf("FrameRMS(nil) = %v", got)
	}
	if got := FrameRMS([]float32{0.5, -0.5, 0.5, -0.5}); got < 0.4999 || got > 0.5001 {
		t.Fatalf("FrameRMS = %v, want 0.5", got)
	}
}
