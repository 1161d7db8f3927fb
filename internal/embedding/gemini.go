package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	intlogger "career-agent/internal/logger"
	"career-agent/internal/utils"
)

const (
	defaultModel     = "gemini-embedding-001"
	defaultDimension = 768
	retryBaseDelay   = 500 * time.Millisecond
)

// Gemini embeds text through the Gemini API.
type Gemini struct {
	client     *genai.Client
	modelName  string
	dimension  int
	maxRetries int
	logger     *zap.Logger
}

// NewGemini creates a Gemini-backed embedding provider.
func NewGemini(ctx context.Context, apiKey, model string, dimension, maxRetries int, logger *zap.Logger) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if dimension <= 0 {
		dimension = defaultDimension
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Gemini{
		client:     client,
		modelName:  model,
		dimension:  dimension,
		maxRetries: maxRetries,
		logger:     intlogger.WithCommonFields(logger, "gemini", model),
	}, nil
}

func (g *Gemini) Dimension() int {
	if g == nil {
		return 0
	}
	return g.dimension
}

// Embed returns the embedding vector for the given text. Empty or
// whitespace-only input yields the zero vector without an API call.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	if g == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	if strings.TrimSpace(text) == "" {
		return Zero(g.dimension), nil
	}

	if g.client == nil {
		return nil, errors.New("gemini embedder is not initialized")
	}

	cfg := &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(g.dimension)),
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Debug("retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := utils.WaitFor(ctx, time.Duration(attempt)*retryBaseDelay); err != nil {
				return nil, err
			}
		}

		resp, err := g.client.Models.EmbedContent(ctx, g.modelName, genai.Text(text), cfg)
		if err != nil {
			lastErr = fmt.Errorf("embed content: %w", err)
			continue
		}

		vec, err := firstVector(resp)
		if err != nil {
			lastErr = err
			continue
		}

		if len(vec) != g.dimension {
			return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), g.dimension)
		}
		return vec, nil
	}

	return nil, lastErr
}

func firstVector(resp *genai.EmbedContentResponse) ([]float64, error) {
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, errors.New("gemini api returned no embeddings")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, errors.New("gemini api returned an empty embedding")
	}

	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec, nil
}
