package ai

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"compassbot/internal/config"
	"compassbot/internal/model"
)

// geminiProvider talks to the Gemini API through the official SDK.
type geminiProvider struct {
	cfg      *config.AIConfig
	client   *genai.Client
	initOnce sync.Once
	initErr  error
}

func newGeminiProvider(cfg *config.AIConfig) *geminiProvider {
	// Client creation needs a context, so it is deferred to first use.
	return &geminiProvider{cfg: cfg}
}

func (p *geminiProvider) Name() string { return string(config.ProviderGemini) }

// ensureClient initializes the SDK client exactly once; the provider is
// shared across handler goroutines.
func (p *geminiProvider) ensureClient(ctx context.Context) error {
	p.initOnce.Do(func() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			p.initErr = genErr("gemini client init: %w", err)
			return
		}
		p.client = client
	})
	return p.initErr
}

func (p *geminiProvider) GenerateQuestions(ctx context.Context, count int, lang model.Language) ([]model.Question, error) {
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	result, err := p.client.Models.GenerateContent(ctx, p.cfg.Model,
		genai.Text(questionPrompt(count, lang, formatBareArray)), cfg)
	if err != nil {
		return nil, genErr("gemini call: %w", err)
	}
	return parseQuestions(result.Text())
}

func (p *geminiProvider) Analyze(ctx context.Context, scores model.Scores, lang model.Language) (model.Analysis, error) {
	if err := p.ensureClient(ctx); err != nil {
		return model.Analysis{}, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"quadrantName":        {Type: genai.TypeString},
				"quadrantDescription": {Type: genai.TypeString},
				"behavioralAnalysis":  {Type: genai.TypeString},
			},
		},
	}
	result, err := p.client.Models.GenerateContent(ctx, p.cfg.Model,
		genai.Text(analysisPrompt(scores, lang)), cfg)
	if err != nil {
		return model.Analysis{}, genErr("gemini call: %w", err)
	}
	return parseAnalysis(result.Text())
}
