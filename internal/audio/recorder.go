package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

type RecorderConfig struct {
	Segmenter       SegmenterConfig
	ListenTimeout   time.Duration
	PhraseTimeLimit time.Duration
}

// Recorder captures utterances from the default input device.
type Recorder struct {
	cfg       RecorderConfig
	segmenter *Segmenter
	logger    *zap.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []float32
}

func NewRecorder(cfg RecorderConfig, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		cfg:       cfg,
		segmenter: NewSegmenter(cfg.Segmenter),
		logger:    logger,
	}
}

// Open initializes PortAudio and starts the input stream.
func (r *Recorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	r.buf = make([]float32, r.cfg.Segmenter.FrameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.Segmenter.SampleRate), len(r.buf), r.buf)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	r.stream = stream
	r.logger.Info("Microphone opened",
		zap.Int("sample_rate", r.cfg.Segmenter.SampleRate),
		zap.Int("frame_size", r.cfg.Segmenter.FrameSize),
	)
	return nil
}

func (r *Recorder) ReadFrame() ([]float32, error) {
	if r.stream == nil {
		return nil, fmt.Errorf("input stream is not open")
	}
	if err := r.stream.Read(); err != nil {
		return nil, err
	}
	return r.buf, nil
}

// Capture returns the next utterance, or ErrNoSpeech after the listen timeout.
func (r *Recorder) Capture(ctx context.Context) ([]float32, error) {
	return r.segmenter.Next(ctx, r, r.cfg.ListenTimeout, r.cfg.PhraseTimeLimit)
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil
	}
	stopErr := r.stream.Stop()
	closeErr := r.stream.Close()
	r.stream = nil
	portaudio.Terminate()
	r.logger.Info("Microphone closed")

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// CheckMicrophone reports whether a default input device is present.
func CheckMicrophone() (string, error) {
	if err := portaudio.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return "", err
	}
	if dev == nil || dev.MaxInputChannels < 1 {
		return "", fmt.Errorf("default device has no input channels")
	}
	return dev.Name, nil
}
