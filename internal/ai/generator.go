package ai

import (
	"context"
	"time"

	"compassbot/internal/config"
	"compassbot/internal/metrics"
	"compassbot/internal/model"
)

// Generator wraps a Provider with the per-call time budget and
// instrumentation. Retry policy stays with the caller; the quiz service
// treats any failure as terminal for that attempt.
type Generator struct {
	provider Provider
	timeout  time.Duration
}

// NewGenerator builds the configured provider variant.
func NewGenerator(cfg *config.AIConfig) (*Generator, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{
		provider: provider,
		timeout:  time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

// NewGeneratorWithProvider wires an explicit provider. Test hook.
func NewGeneratorWithProvider(provider Provider, timeout time.Duration) *Generator {
	return &Generator{provider: provider, timeout: timeout}
}

// GenerateQuestions asks the backend for count questions in lang.
func (g *Generator) GenerateQuestions(ctx context.Context, count int, lang model.Language) ([]model.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	questions, err := g.provider.GenerateQuestions(ctx, count, lang)
	g.observe("questions", start, err)
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Analyze asks the backend for the final analysis.
func (g *Generator) Analyze(ctx context.Context, scores model.Scores, lang model.Language) (model.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	analysis, err := g.provider.Analyze(ctx, scores, lang)
	g.observe("analysis", start, err)
	return analysis, err
}

func (g *Generator) observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.GenerationCalls.WithLabelValues(g.provider.Name(), op, status).Inc()
	metrics.GenerationDuration.WithLabelValues(g.provider.Name(), op).Observe(time.Since(start).Seconds())
}
