package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/snonux/wordtip/internal/translation"
)

// MockProvider is a canned translation.Provider for tests. Responses are
// keyed by word; words without an entry get a generic mock result. Batch
// lookups call GetPhonetic concurrently, so call recording is locked.
type MockProvider struct {
	mu sync.Mutex

	Meanings       map[string]*translation.Meaning
	Phonetics      map[string][]translation.Phonetic
	Errors         map[string]error // fails GetMeaning for the keyed word
	PhoneticErrors map[string]error // fails GetPhonetic for the keyed word
	Calls          []string

	// AvailableErr is returned by IsAvailable when set.
	AvailableErr error

	ProviderName string
	Conf         translation.Config
}

// NewMockProvider returns a mock with empty response tables.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Meanings:       make(map[string]*translation.Meaning),
		Phonetics:      make(map[string][]translation.Phonetic),
		Errors:         make(map[string]error),
		PhoneticErrors: make(map[string]error),
		ProviderName:   "mock",
		Conf:           translation.DefaultConfig(),
	}
}

// GetMeaning returns the canned meaning for word, or a generic mock
// explanation when none is registered.
func (m *MockProvider) GetMeaning(ctx context.Context, word string) (*translation.Meaning, error) {
	m.record(fmt.Sprintf("GetMeaning %s", word))

	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &translation.InvalidInputError{Input: word}
	}

	if err, ok := m.lookupError(trimmed); ok {
		return nil, err
	}

	m.mu.Lock()
	meaning, ok := m.Meanings[trimmed]
	m.mu.Unlock()
	if ok {
		copied := *meaning
		return &copied, nil
	}

	return &translation.Meaning{
		Word:    trimmed,
		Explain: fmt.Sprintf("mock meaning of %s", trimmed),
		Source:  "mock",
	}, nil
}

// GetPhonetic returns the canned phonetics for word, or a single generic
// transcription when none is registered.
func (m *MockProvider) GetPhonetic(ctx context.Context, word string) (*translation.PhoneticInfo, error) {
	m.record(fmt.Sprintf("GetPhonetic %s", word))

	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &translation.InvalidInputError{Input: word}
	}

	if err, ok := m.lookupPhoneticError(trimmed); ok {
		return nil, err
	}

	m.mu.Lock()
	phonetics, ok := m.Phonetics[trimmed]
	m.mu.Unlock()
	if ok {
		return &translation.PhoneticInfo{Word: trimmed, Phonetics: phonetics}, nil
	}

	return &translation.PhoneticInfo{
		Word:      trimmed,
		Phonetics: []translation.Phonetic{{Text: "/mɒk/", Accent: "US"}},
	}, nil
}

// GetBatchPhonetics resolves all words concurrently through GetPhonetic.
func (m *MockProvider) GetBatchPhonetics(ctx context.Context, words []string) []translation.BatchResult {
	m.record(fmt.Sprintf("GetBatchPhonetics %d words", len(words)))
	return translation.BatchPhonetics(ctx, words, m.GetPhonetic)
}

// IsAvailable returns AvailableErr.
func (m *MockProvider) IsAvailable(ctx context.Context) error {
	m.record("IsAvailable")
	return m.AvailableErr
}

// Config returns the mock configuration.
func (m *MockProvider) Config() translation.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Conf
}

// UpdateConfig replaces the mock configuration.
func (m *MockProvider) UpdateConfig(config translation.Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Conf = config
}

// Name returns the mock provider name.
func (m *MockProvider) Name() string {
	return m.ProviderName
}

// CallCount returns how many recorded calls contain substr.
func (m *MockProvider) CallCount(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, call := range m.Calls {
		if strings.Contains(call, substr) {
			count++
		}
	}
	return count
}

func (m *MockProvider) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockProvider) lookupError(word string) (error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	err, ok := m.Errors[word]
	return err, ok
}

func (m *MockProvider) lookupPhoneticError(word string) (error, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	err, ok := m.PhoneticErrors[word]
	return err, ok
}

var _ translation.Provider = (*MockProvider)(nil)
