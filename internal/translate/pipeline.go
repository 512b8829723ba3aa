package translate

import (
	"context"
	"fmt"

	"github.com/tindervale/babelglass/internal/cache"
	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/metrics"
)

// Pipeline wires normalization, placeholder protection, glossary hinting,
// the two-level cache, and the streaming API client into the single
// operation the scheduler's P1 translate task invokes.
type Pipeline struct {
	Cache    *cache.TwoLevel
	Client   *Client
	Glossary Glossary
	Metrics  *metrics.Registry
}

// Request is one translation request as submitted by a capture stage.
type Request struct {
	SourceLang string
	TargetLang string
	Text       string
}

// Outcome is what the pipeline produced, including whether it was served
// from cache (in which case onToken was called exactly once, with the full
// restored text).
type Outcome struct {
	Text      string
	FromCache bool
}

// Run executes normalize -> protect -> L1/L2 lookup -> (on a miss: glossary
// -> API call -> cache write of the placeholder-form text) -> restore,
// checking guard.ShouldContinue before the network call and again after it
// so a cancelled generation never produces a late render.
func (p *Pipeline) Run(ctx context.Context, guard cancel.Guard, req Request, onToken TokenCallback) (*Outcome, error) {
	normalized := Normalize(req.Text)
	protected := Protect(normalized)

	key := cache.Key(req.SourceLang, req.TargetLang, p.Glossary.Version, protected.Text)
	if cached, hit := p.Cache.Lookup(key); hit {
		text := Restore(cached, protected.Placeholders)
		if onToken != nil {
			onToken(text)
		}
		return &Outcome{Text: text, FromCache: true}, nil
	}

	if !guard.ShouldContinue() {
		return nil, fmt.Errorf("translate: cancelled before api call")
	}

	matches := p.Glossary.Matches(normalized)
	hint := Hint(matches)
	systemPrompt := SystemPrompt(req.SourceLang, req.TargetLang, hint)
	maxTokens := ClampMaxTokens(len(protected.Text))

	result, err := p.Client.Translate(ctx, systemPrompt, protected.Text, maxTokens, onToken)
	if err != nil {
		return nil, fmt.Errorf("translate: api call: %w", err)
	}

	if !guard.ShouldContinue() {
		return nil, fmt.Errorf("translate: cancelled after api call")
	}

	if p.Metrics != nil {
		p.Metrics.Record(metrics.MetricTranslateLatency, result.LatencyMs)
	}

	if err := p.Cache.Store(key, result.Text); err != nil {
		return nil, fmt.Errorf("translate: cache store: %w", err)
	}

	return &Outcome{Text: Restore(result.Text, protected.Placeholders)}, nil
}
