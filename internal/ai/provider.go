// Package ai adapts the interchangeable generation backends behind one
// Provider contract. Every failure mode (network, bad status, unparsable
// body, schema mismatch) surfaces as a *GenerationError with the cause
// retained for logging. No retries happen at this layer.
package ai

import (
	"context"
	"fmt"

	"compassbot/internal/config"
	"compassbot/internal/model"
)

// Provider is the uniform generation backend contract.
type Provider interface {
	// GenerateQuestions returns count schema-validated questions in lang.
	GenerateQuestions(ctx context.Context, count int, lang model.Language) ([]model.Question, error)

	// Analyze returns the AI-written interpretation of final scores.
	Analyze(ctx context.Context, scores model.Scores, lang model.Language) (model.Analysis, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// GenerationError is the single error kind for backend failures.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Cause)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func genErr(format string, args ...interface{}) *GenerationError {
	return &GenerationError{Cause: fmt.Errorf(format, args...)}
}

// NewProvider selects the provider variant for the configuration. Adding
// a backend means adding one variant here; callers never branch on the
// provider name.
func NewProvider(cfg *config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return newGeminiProvider(cfg), nil
	case config.ProviderOpenRouter, config.ProviderCustom:
		return newOpenAIProvider(cfg)
	case config.ProviderOllama:
		return newOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider %q", cfg.Provider)
	}
}
