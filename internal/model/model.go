// Package model invokes the generative text backend.
// Failures are returned as classified errors (see Kind) so the caller can
// choose between backoff, model fallback, and abandoning the request.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Invoker generates text for a prompt with a named model.
type Invoker interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// System is the configured model backend.
type System interface {
	Invoker
	// Models returns the configured fallback order.
	Models() []string
}

type gemini struct {
	client          *genai.Client
	models          []string
	temperature     float32
	maxOutputTokens int32
	timeout         time.Duration
	logger          *slog.Logger
}

// New creates a Gemini-backed System. The client is created eagerly;
// no request is made until Generate is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if len(cfg.Models) == 0 {
		return nil, ErrNoModels
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &gemini{
		client:          client,
		models:          cfg.Models,
		temperature:     float32(cfg.Temperature),
		maxOutputTokens: int32(cfg.MaxOutputTokens),
		timeout:         cfg.TimeoutDuration(),
		logger:          logger.With("system", "model"),
	}, nil
}

func (g *gemini) Models() []string {
	return g.models
}

func (g *gemini) Generate(ctx context.Context, model, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temperature := g.temperature
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		kind := classify(err)
		g.logger.WarnContext(ctx, "generate failed",
			"model", model,
			"kind", kind,
			"duration", time.Since(start),
			"error", err,
		)
		return "", Classify(kind, model, err)
	}

	text := resp.Text()
	g.logger.DebugContext(ctx, "generate complete",
		"model", model,
		"chars", len(text),
		"duration", time.Since(start),
	)

	return text, nil
}

func classify(err error) Kind {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ClassifyStatus(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return ClassifyStatus(apiErrPtr.Code, apiErrPtr.Message)
	}
	return classifyTransport(err)
}
