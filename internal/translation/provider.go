package translation

import (
	"context"
	"fmt"
	"sync"
)

// Provider is the lookup contract shared by all translation backends.
// Implementations return typed errors from this package and never panic
// across the boundary.
type Provider interface {
	// GetMeaning resolves a short explanation for word.
	GetMeaning(ctx context.Context, word string) (*Meaning, error)

	// GetPhonetic resolves transcription variants for word. Backends
	// without phonetic data return an empty list.
	GetPhonetic(ctx context.Context, word string) (*PhoneticInfo, error)

	// GetBatchPhonetics resolves phonetics for all words concurrently.
	// Every element settles: one failed word never fails the batch.
	GetBatchPhonetics(ctx context.Context, words []string) []BatchResult

	// IsAvailable reports whether the provider can serve lookups right
	// now. nil means available.
	IsAvailable(ctx context.Context) error

	// Config returns a copy of the current API configuration.
	Config() Config

	// UpdateConfig replaces the API configuration.
	UpdateConfig(Config)

	// Name returns the provider name.
	Name() string
}

// BatchPhonetics fans fn out over words, one goroutine per word, and
// collects settled outcomes. A failed word yields a per-word batch error
// in its slot; the remaining lookups are unaffected.
func BatchPhonetics(ctx context.Context, words []string, fn func(context.Context, string) (*PhoneticInfo, error)) []BatchResult {
	results := make([]BatchResult, len(words))

	var wg sync.WaitGroup
	for i, word := range words {
		wg.Add(1)
		go func(i int, word string) {
			defer wg.Done()
			info, err := fn(ctx, word)
			if err != nil {
				results[i] = BatchResult{
					Word: word,
					Err:  fmt.Errorf("batch phonetic lookup failed for %q: %w", word, err),
				}
				return
			}
			results[i] = BatchResult{Word: word, Info: info}
		}(i, word)
	}
	wg.Wait()

	return results
}

// ProviderWithFallback wraps a primary provider with a fallback option.
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary
// when the primary fails.
func NewProviderWithFallback(primary, fallback Provider) *ProviderWithFallback {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// GetMeaning tries the primary provider first and falls back on any error
// except invalid input, which would fail on the fallback too.
func (p *ProviderWithFallback) GetMeaning(ctx context.Context, word string) (*Meaning, error) {
	m, err := p.primary.GetMeaning(ctx, word)
	if err == nil {
		return m, nil
	}
	if IsInvalidInput(err) {
		return nil, err
	}
	return p.fallback.GetMeaning(ctx, word)
}

// GetPhonetic tries the primary provider first. It falls back on error and
// also when the primary resolved no transcriptions at all, since an empty
// list is as useless to the tooltip as a failure.
func (p *ProviderWithFallback) GetPhonetic(ctx context.Context, word string) (*PhoneticInfo, error) {
	info, err := p.primary.GetPhonetic(ctx, word)
	if err == nil && len(info.Phonetics) > 0 {
		return info, nil
	}
	if err != nil && IsInvalidInput(err) {
		return nil, err
	}

	fallbackInfo, fallbackErr := p.fallback.GetPhonetic(ctx, word)
	if fallbackErr != nil {
		if err != nil {
			return nil, err
		}
		return info, nil
	}
	return fallbackInfo, nil
}

// GetBatchPhonetics resolves phonetics for all words concurrently through
// the fallback-aware GetPhonetic.
func (p *ProviderWithFallback) GetBatchPhonetics(ctx context.Context, words []string) []BatchResult {
	return BatchPhonetics(ctx, words, p.GetPhonetic)
}

// IsAvailable reports availability of at least one of the two providers.
func (p *ProviderWithFallback) IsAvailable(ctx context.Context) error {
	primaryErr := p.primary.IsAvailable(ctx)
	if primaryErr == nil {
		return nil
	}
	if err := p.fallback.IsAvailable(ctx); err == nil {
		return nil
	}
	return fmt.Errorf("no provider available: %s: %w", p.primary.Name(), primaryErr)
}

// Config returns the primary provider's configuration.
func (p *ProviderWithFallback) Config() Config {
	return p.primary.Config()
}

// UpdateConfig replaces the primary provider's configuration.
func (p *ProviderWithFallback) UpdateConfig(config Config) {
	p.primary.UpdateConfig(config)
}

// Name returns the combined provider name.
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

var _ Provider = (*ProviderWithFallback)(nil)
