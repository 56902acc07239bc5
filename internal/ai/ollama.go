package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"compassbot/internal/config"
	"compassbot/internal/model"
)

// ollamaProvider runs generation against a local Ollama server.
type ollamaProvider struct {
	cfg    *config.AIConfig
	client *api.Client
}

func newOllamaProvider(cfg *config.AIConfig) (*ollamaProvider, error) {
	if cfg.BaseURL == "" {
		return nil, genErr("base URL is required for the Ollama provider")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, genErr("invalid Ollama base URL %q: %w", cfg.BaseURL, err)
	}
	return &ollamaProvider{
		cfg:    cfg,
		client: api.NewClient(base, http.DefaultClient),
	}, nil
}

func (p *ollamaProvider) Name() string { return string(config.ProviderOllama) }

func (p *ollamaProvider) generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt,
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", genErr("ollama generate: %w", err)
	}
	return sb.String(), nil
}

func (p *ollamaProvider) GenerateQuestions(ctx context.Context, count int, lang model.Language) ([]model.Question, error) {
	content, err := p.generate(ctx, questionPrompt(count, lang, formatWrappedObject))
	if err != nil {
		return nil, err
	}
	return parseQuestions(content)
}

func (p *ollamaProvider) Analyze(ctx context.Context, scores model.Scores, lang model.Language) (model.Analysis, error) {
	content, err := p.generate(ctx, analysisPrompt(scores, lang))
	if err != nil {
		return model.Analysis{}, err
	}
	return parseAnalysis(content)
}
