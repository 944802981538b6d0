package stt

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kapu/interview-teleprompter-go/internal/constants"
)

type GeminiConfig struct {
	APIKey   string
	Model    string
	Language string
}

const transcribePrompt = "Transcribe the spoken %s in this audio clip verbatim. " +
	"Reply with the transcript only, no quotes or commentary. " +
	"If there is no intelligible speech reply with exactly " + unintelligibleMarker + "."

// GeminiTranscriber sends the clip inline to a multimodal Gemini model.
type GeminiTranscriber struct {
	client   *genai.Client
	model    string
	language string
	logger   *zap.Logger
}

func NewGeminiTranscriber(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = constants.STTConfig.DefaultGeminiModel
	}
	language := cfg.Language
	if language == "" {
		language = constants.STTConfig.Language
	}

	return &GeminiTranscriber{
		client:   client,
		model:    model,
		language: language,
		logger:   logger,
	}, nil
}

func (g *GeminiTranscriber) Name() string {
	return "gemini"
}

func (g *GeminiTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", ErrNoSpeech
	}

	ctx, cancel := context.WithTimeout(ctx, constants.STTConfig.RequestTimeout)
	defer cancel()

	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 512,
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(transcribePrompt, languageName(g.language))),
			genai.NewPartFromBytes(wav, "audio/wav"),
		}, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", providerError(g.Name(), g.model, err)
	}

	text := resp.Text()
	g.logger.Debug("Gemini transcription received",
		zap.String("model", g.model),
		zap.Int("length", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return cleanTranscript(text)
}

func (g *GeminiTranscriber) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		g.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}
	return true
}

func languageName(code string) string {
	switch code {
	case "en":
		return "English"
	case "nl":
		return "Dutch"
	case "de":
		return "German"
	case "fr":
		return "French"
	default:
		return code
	}
}
