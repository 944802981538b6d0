package constants

import (
	"image/color"
	"time"
)

var CaptureConfig = struct {
	ListenTimeout    time.Duration
	PhraseTimeLimit  time.Duration
	SampleRate       int
	FrameSize        int
	SilenceRMS       float64
	SilenceHang      time.Duration
	MinSpeechSamples int
	ErrorBackoff     time.Duration
}{
	ListenTimeout:    1 * time.Second,  // wait for speech to begin
	PhraseTimeLimit:  10 * time.Second, // hard cap on a single utterance
	SampleRate:       16000,            // 16 kHz mono
	FrameSize:        320,              // 20ms frames
	SilenceRMS:       0.015,
	SilenceHang:      600 * time.Millisecond, // trailing silence ending an utterance
	MinSpeechSamples: 16000 / 4,              // shorter clips are treated as noise
	ErrorBackoff:     250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    10 * time.Minute,
	HealthCheckInterval: 2 * time.Minute,
}

var STTConfig = struct {
	RequestTimeout     time.Duration
	MaxRetries         int
	DefaultOpenAIModel string
	DefaultGeminiModel string
	Language           string
}{
	RequestTimeout:     20 * time.Second,
	MaxRetries:         1,
	DefaultOpenAIModel: "whisper-1",
	DefaultGeminiModel: "gemini-2.5-flash",
	Language:           "en",
}

var ResponseCacheConfig = struct {
	Size int
	TTL  time.Duration
}{
	Size: 256,
	TTL:  30 * time.Minute,
}

var WebSocketConfig = struct {
	WriteTimeout         time.Duration
	PingInterval         time.Duration
	PongWait             time.Duration
	BroadcastWorkers     int
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}{
	WriteTimeout:         5 * time.Second,
	PingInterval:         30 * time.Second,
	PongWait:             60 * time.Second,
	BroadcastWorkers:     8,
	MaxReconnectAttempts: 5,
	ReconnectDelay:       3 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout  time.Duration
	EventsChannel string
	LogKeyPrefix  string
	LogTTL        time.Duration
}{
	ReadyTimeout:  5 * time.Second,
	EventsChannel: "teleprompter:events",
	LogKeyPrefix:  "teleprompter:session:",
	LogTTL:        24 * time.Hour,
}

var QRConfig = struct {
	Size       int
	Foreground color.RGBA
	Background color.RGBA
}{
	Size:       290, // 29 modules * box size 10
	Foreground: color.RGBA{R: 0, G: 255, B: 136, A: 255},
	Background: color.RGBA{R: 26, G: 26, B: 26, A: 255},
}

var ServerConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}{
	ReadTimeout:     15 * time.Second,
	WriteTimeout:    15 * time.Second,
	ShutdownTimeout: 10 * time.Second,
}

var AskLimits = struct {
	MaxQuestionLength int
}{
	MaxQuestionLength: 1000,
}
