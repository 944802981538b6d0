package audio

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrNoSpeech is returned when no utterance starts within the listen timeout or the
// captured clip is too short to be speech.
var ErrNoSpeech = errors.New("audio: no speech before timeout")

// FrameSource yields fixed-size mono frames. The returned slice may be reused by
// the next call.
type FrameSource interface {
	ReadFrame() ([]float32, error)
}

type SegmenterConfig struct {
	SampleRate       int
	FrameSize        int
	SilenceRMS       float64
	SilenceHang      time.Duration
	MinSpeechSamples int
}

// Segmenter cuts one utterance out of a frame stream using an RMS energy gate.
type Segmenter struct {
	cfg SegmenterConfig
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

func (s *Segmenter) frames(d time.Duration) int {
	frameDur := time.Duration(s.cfg.FrameSize) * time.Second / time.Duration(s.cfg.SampleRate)
	if frameDur <= 0 {
		return 0
	}
	n := int(d / frameDur)
	if n < 1 {
		n = 1
	}
	return n
}

// Next waits up to listenTimeout for speech to start, then records until trailing
// silence or phraseLimit. ctx is checked between frames.
func (s *Segmenter) Next(ctx context.Context, src FrameSource, listenTimeout, phraseLimit time.Duration) ([]float32, error) {
	waitFrames := s.frames(listenTimeout)
	maxFrames := s.frames(phraseLimit)
	hangFrames := s.frames(s.cfg.SilenceHang)

	out := make([]float32, 0, s.cfg.SampleRate*3)
	speaking := false
	silent := 0
	recorded := 0

	for waited := 0; ; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.ReadFrame()
		if err != nil {
			return nil, err
		}
		loud := FrameRMS(frame) > s.cfg.SilenceRMS

		if !speaking {
			if !loud {
				waited++
				if waited >= waitFrames {
					return nil, ErrNoSpeech
				}
				continue
			}
			speaking = true
		}

		out = append(out, frame...)
		recorded++

		if loud {
			silent = 0
		} else {
			silent++
			if silent >= hangFrames {
				break
			}
		}
		if recorded >= maxFrames {
			break
		}
	}

	if len(out) < s.cfg.MinSpeechSamples {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func FrameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, x := range f {
		sum += float64(x * x)
	}
	return math.Sqrt(sum / float64(len(f)))
}
