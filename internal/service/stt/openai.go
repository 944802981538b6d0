package stt

import (
	"bytes"
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
)

type OpenAIConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	Language string
}

// OpenAITranscriber calls the audio transcription endpoint (Whisper).
type OpenAITranscriber struct {
	client   openai.Client
	model    string
	language string
	logger   *zap.Logger
}

// NewOpenAITranscriber returns nil when no API key is configured.
func NewOpenAITranscriber(cfg OpenAIConfig, logger *zap.Logger) *OpenAITranscriber {
	if cfg.APIKey == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(constants.STTConfig.RequestTimeout),
		option.WithMaxRetries(constants.STTConfig.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = constants.STTConfig.DefaultOpenAIModel
	}

	return &OpenAITranscriber{
		client:   openai.NewClient(opts...),
		model:    model,
		language: cfg.Language,
		logger:   logger,
	}
}

func (o *OpenAITranscriber) Name() string {
	return "openai"
}

func (o *OpenAITranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", ErrNoSpeech
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "utterance.wav", "audio/wav"),
		Model: openai.AudioModel(o.model),
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	start := time.Now()
	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", providerError(o.Name(), o.model, err)
	}

	o.logger.Debug("OpenAI transcription received",
		zap.String("model", o.model),
		zap.Int("length", len(resp.Text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return cleanTranscript(resp.Text)
}

func (o *OpenAITranscriber) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := o.client.Models.Get(ctx, o.model); err != nil {
		o.logger.Debug("OpenAI ping failed", zap.Error(err))
		return false
	}
	return true
}
