package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"codeberg.org/snonux/wordtip/internal/cache"
)

// MeaningPrompt is the system instruction sent with every meaning lookup.
// The model answers with a compact dictionary-style gloss such as
// "interj. 你好；n. 打招呼". Shared by all chat-based providers so a word
// resolves to the same kind of gloss regardless of backend.
const MeaningPrompt = `You are a dictionary. For the word or phrase given by the user, reply with a short Chinese gloss for each part of speech, each in the form "pos. meaning", joined by "；". Reply in plain text only, without markdown formatting, quotes or commentary.`

// Client looks up word meanings via an OpenAI-compatible chat completion
// API. It is safe for concurrent use.
type Client struct {
	mu       sync.RWMutex
	config   Config
	client   *openai.Client
	meanings *cache.Cache[Meaning]
	breaker  *gobreaker.CircuitBreaker
}

// NewClient creates a client with its own meaning cache.
func NewClient(config Config) *Client {
	return NewClientWithCache(config, cache.New[Meaning](0, 0))
}

// NewClientWithCache creates a client using the given meaning cache, so
// several components can share one cache handle.
func NewClientWithCache(config Config, meanings *cache.Cache[Meaning]) *Client {
	return &Client{
		config:   config,
		client:   newAPIClient(config),
		meanings: meanings,
		breaker:  newBreaker("ai-translation"),
	}
}

func newAPIClient(config Config) *openai.Client {
	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		apiConfig.BaseURL = config.Endpoint
	}
	return openai.NewClientWithConfig(apiConfig)
}

// newBreaker creates the circuit breaker guarding outbound API calls.
// Availability checks consult its state instead of probing the API.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// GetMeaning resolves a short part-of-speech tagged explanation for word.
// Results are cached; within the cache TTL a repeated lookup issues no
// additional API call.
func (c *Client) GetMeaning(ctx context.Context, word string) (*Meaning, error) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &InvalidInputError{Input: word}
	}

	if m, ok := c.meanings.Get(trimmed); ok {
		m.Cached = true
		return &m, nil
	}

	config := c.Config()
	if config.APIKey == "" {
		return nil, &ConfigError{Reason: "no API key configured"}
	}

	content, err := c.complete(ctx, config, trimmed)
	if err != nil {
		return nil, err
	}

	explain := CleanExplanation(content)
	if explain == "" {
		// Unusable response: degrade to a placeholder explanation
		// instead of failing the lookup. Not cached, so a later
		// attempt may recover.
		return &Meaning{
			Word:    trimmed,
			Explain: fmt.Sprintf("meaning unavailable for %s", trimmed),
			Source:  SourceAI,
		}, nil
	}

	m := Meaning{
		Word:    trimmed,
		Explain: TruncateExplanation(explain),
		Source:  SourceAI,
	}
	c.meanings.Set(trimmed, m)

	return &m, nil
}

// complete performs a single chat completion request through the breaker
// and returns the raw message content.
func (c *Client) complete(ctx context.Context, config Config, word string) (string, error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: MeaningPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: word,
			},
		},
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
	}

	c.mu.RLock()
	api := c.client
	c.mu.RUnlock()

	result, err := c.breaker.Execute(func() (any, error) {
		return api.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", mapAPIError(word, config, err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// mapAPIError converts SDK and breaker failures into the typed taxonomy.
func mapAPIError(word string, config Config, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Word: word, Timeout: config.Timeout}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &NetworkError{Status: "translation API temporarily unavailable"}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &NetworkError{StatusCode: apiErr.HTTPStatusCode, Status: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &NetworkError{StatusCode: reqErr.HTTPStatusCode, Status: reqErr.Error()}
	}
	return &NetworkError{Status: err.Error()}
}

// GetPhonetic wraps GetMeaning for validation and caching and always
// returns an empty phonetic list: chat models are not a reliable source
// of transcriptions.
func (c *Client) GetPhonetic(ctx context.Context, word string) (*PhoneticInfo, error) {
	m, err := c.GetMeaning(ctx, word)
	if err != nil {
		return nil, err
	}
	return &PhoneticInfo{
		Word:      m.Word,
		Phonetics: []Phonetic{},
		Cached:    m.Cached,
	}, nil
}

// GetBatchPhonetics resolves phonetics for all words concurrently.
func (c *Client) GetBatchPhonetics(ctx context.Context, words []string) []BatchResult {
	return BatchPhonetics(ctx, words, c.GetPhonetic)
}

// IsAvailable reports whether meaning lookups can currently be served:
// a key must be configured and the breaker must not be open.
func (c *Client) IsAvailable(ctx context.Context) error {
	if c.Config().APIKey == "" {
		return &ConfigError{Reason: "no API key configured"}
	}
	if c.breaker.State() == gobreaker.StateOpen {
		return &NetworkError{Status: "translation API temporarily unavailable"}
	}
	return nil
}

// Config returns a copy of the current API configuration.
func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config := c.config
	if config.Params != nil {
		params := make(map[string]string, len(config.Params))
		for k, v := range config.Params {
			params[k] = v
		}
		config.Params = params
	}
	return config
}

// UpdateConfig replaces the API configuration and rebuilds the underlying
// SDK client so a new endpoint or key takes effect immediately.
func (c *Client) UpdateConfig(config Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
	c.client = newAPIClient(config)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "ai"
}

var _ Provider = (*Client)(nil)
