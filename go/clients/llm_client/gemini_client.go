package llm_client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/mcdev12/mailagent/go/internal/config"
	"github.com/mcdev12/mailagent/go/internal/mailerr"
)

// Completer turns an ordered list of prompt segments into model text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// contentGenerator is the slice of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient completes prompts with the Gemini API. A fresh SDK client is built per call.
type GeminiClient struct {
	cfg       config.LLMConfig
	newModels func(ctx context.Context, apiKey string) (contentGenerator, error)
}

// NewGeminiClient creates a client. The API key is validated on each call, not here.
func NewGeminiClient(cfg config.LLMConfig) *GeminiClient {
	if cfg.ModelName == "" {
		cfg.ModelName = config.DefaultModelName
	}
	return &GeminiClient{
		cfg:       cfg,
		newModels: newGenaiModels,
	}
}

func newGenaiModels(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return client.Models, nil
}

// Complete implements Completer. It makes exactly one request and never retries.
func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := c.cfg.Validate(); err != nil {
		return "", err
	}

	models, err := c.newModels(ctx, c.cfg.APIKey)
	if err != nil {
		return "", mailerr.Wrap(mailerr.KindModel, "llm.complete", "LLM request failed", err)
	}

	prompt := FlattenPrompt(messages)

	log.Debug().
		Str("model", c.cfg.ModelName).
		Int("prompt_len", len(prompt)).
		Msg("calling Gemini")

	res, err := models.GenerateContent(ctx, c.cfg.ModelName, genai.Text(prompt), nil)
	if err != nil {
		return "", mailerr.Wrap(mailerr.KindModel, "llm.complete", "LLM request failed", err)
	}

	return res.Text(), nil
}
