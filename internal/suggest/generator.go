// AngelaMos | 2026
// generator.go

package suggest

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/carterperez-dev/mystery-message/internal/config"
)

const defaultModel = "gemini-2.0-flash"

const prompt = "Create a list of three open-ended and engaging questions formatted as a single string. " +
	"Each question should be separated by '||'. These questions are for an anonymous social " +
	"messaging platform, like Qooh.me, and should be suitable for a diverse audience. Avoid " +
	"personal or sensitive topics, focusing instead on universal themes that encourage friendly " +
	"interaction. For example, your output should be structured like this: 'What's a hobby " +
	"you've recently started?||If you could have dinner with any historical figure, who would " +
	"it be?||What's a simple thing that makes you happy?'. Ensure the questions are intriguing, " +
	"foster curiosity, and contribute to a positive and welcoming conversational environment."

var errEmptyCompletion = errors.New("model returned no text")

// Generator produces the raw "||" separated suggestion string.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiGenerator(
	ctx context.Context,
	cfg config.SuggestConfig,
) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrSuggestionsDisabled
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &GeminiGenerator{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(cfg.Temperature),
			TopK:            genai.Ptr(cfg.TopK),
			TopP:            genai.Ptr(cfg.TopP),
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context) (string, error) {
	result, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		g.config,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", errEmptyCompletion
	}

	return text, nil
}
