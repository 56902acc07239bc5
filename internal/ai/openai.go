package ai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"compassbot/internal/config"
	"compassbot/internal/model"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openAIProvider covers every OpenAI-compatible chat endpoint: OpenRouter
// and user-supplied custom backends.
type openAIProvider struct {
	cfg    *config.AIConfig
	client openai.Client
}

func newOpenAIProvider(cfg *config.AIConfig) (*openAIProvider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Provider == config.ProviderCustom {
			return nil, genErr("base URL is required for the custom provider")
		}
		baseURL = openRouterBaseURL
	}

	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &openAIProvider{
		cfg:    cfg,
		client: openai.NewClient(opts...),
	}, nil
}

func (p *openAIProvider) Name() string { return string(p.cfg.Provider) }

func (p *openAIProvider) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", genErr("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", genErr("invalid response structure from AI model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openAIProvider) GenerateQuestions(ctx context.Context, count int, lang model.Language) ([]model.Question, error) {
	content, err := p.complete(ctx, questionPrompt(count, lang, formatWrappedObject))
	if err != nil {
		return nil, err
	}
	return parseQuestions(content)
}

func (p *openAIProvider) Analyze(ctx context.Context, scores model.Scores, lang model.Language) (model.Analysis, error) {
	content, err := p.complete(ctx, analysisPrompt(scores, lang))
	if err != nil {
		return model.Analysis{}, err
	}
	return parseAnalysis(content)
}
