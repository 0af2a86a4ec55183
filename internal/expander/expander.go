// Package expander turns a free-text query into a list of search phrases.
package expander

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"stylefinder/internal/llm"
	"stylefinder/internal/logging"
)

const promptTemplate = `You are a fashion search assistant. Analyze this user query: "%s"

Extract the key fashion terms, colors, categories, and style preferences.
Generate multiple search variations to find relevant products.

Output only the search terms separated by commas, like:
red dress, formal dress, evening wear, party dress`

// Config tunes the generator call.
type Config struct {
	// Timeout bounds one generator call. Zero means no extra bound.
	Timeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
}

// Expander asks a text generator for search variations of a query.
// It never fails: any problem degrades to the query itself.
type Expander struct {
	gen     llm.Generator
	cb      *gobreaker.CircuitBreaker[string]
	timeout time.Duration
}

// New creates an Expander. A nil generator makes every expansion fall back.
func New(gen llm.Generator, cfg Config) *Expander {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := cfg.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "term-expander",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return &Expander{gen: gen, cb: cb, timeout: cfg.Timeout}
}

// Prompt renders the expansion instruction for query.
func Prompt(query string) string {
	return fmt.Sprintf(promptTemplate, query)
}

// Expand returns the distinct phrases generated for query in generation
// order, or just the query when generation fails or yields nothing.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	fallback := []string{query}
	if e.gen == nil {
		return fallback
	}

	raw, err := e.cb.Execute(func() (string, error) {
		callCtx := ctx
		if e.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		return e.gen.Generate(callCtx, Prompt(query))
	})
	if err != nil {
		ev := logging.Warn()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			ev = logging.Debug()
		}
		ev.Err(err).Str("query", query).Msg("term expansion failed, using raw query")
		return fallback
	}

	terms := ParseTerms(raw)
	if len(terms) == 0 {
		logging.Warn().Str("query", query).Msg("term expansion returned no terms, using raw query")
		return fallback
	}
	logging.Debug().Str("query", query).Strs("terms", terms).Msg("query expanded")
	return terms
}

// ParseTerms splits a comma separated generator response into trimmed,
// non-empty, distinct phrases, keeping their first occurrence order.
func ParseTerms(raw string) []string {
	parts := strings.Split(raw, ",")
	terms := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}
