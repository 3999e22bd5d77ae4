package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"codeberg.org/snonux/wordtip/internal/cache"
	"codeberg.org/snonux/wordtip/internal/translation"
)

// DefaultModel is queried when the configured model is not a Gemini model.
const DefaultModel = "gemini-2.0-flash"

// Client looks up word meanings via the Gemini API. It is safe for
// concurrent use.
type Client struct {
	mu       sync.Mutex
	config   translation.Config
	client   *genai.Client
	meanings *cache.Cache[translation.Meaning]
}

// NewClient creates a client with its own meaning cache.
func NewClient(config translation.Config) *Client {
	return NewClientWithCache(config, cache.New[translation.Meaning](0, 0))
}

// NewClientWithCache creates a client using the given meaning cache, so
// several components can share one cache handle.
func NewClientWithCache(config translation.Config, meanings *cache.Cache[translation.Meaning]) *Client {
	return &Client{
		config:   config,
		meanings: meanings,
	}
}

// api returns the SDK client, building it on first use. Construction needs
// a context, which the constructor does not have.
func (c *Client) api(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  c.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.config.Endpoint != "" {
		clientConfig.HTTPOptions.BaseURL = c.config.Endpoint
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, &translation.ConfigError{Reason: fmt.Sprintf("creating Gemini client: %v", err)}
	}
	c.client = client

	return client, nil
}

// GetMeaning resolves a short part-of-speech tagged explanation for word.
// Results are cached; within the cache TTL a repeated lookup issues no
// additional API call.
func (c *Client) GetMeaning(ctx context.Context, word string) (*translation.Meaning, error) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &translation.InvalidInputError{Input: word}
	}

	if m, ok := c.meanings.Get(trimmed); ok {
		m.Cached = true
		return &m, nil
	}

	config := c.Config()
	if config.APIKey == "" {
		return nil, &translation.ConfigError{Reason: "no Gemini API key configured"}
	}

	content, err := c.generate(ctx, config, trimmed)
	if err != nil {
		return nil, err
	}

	explain := translation.CleanExplanation(content)
	if explain == "" {
		// Unusable response: degrade to a placeholder explanation
		// instead of failing the lookup. Not cached, so a later
		// attempt may recover.
		return &translation.Meaning{
			Word:    trimmed,
			Explain: fmt.Sprintf("meaning unavailable for %s", trimmed),
			Source:  translation.SourceGemini,
		}, nil
	}

	m := translation.Meaning{
		Word:    trimmed,
		Explain: translation.TruncateExplanation(explain),
		Source:  translation.SourceGemini,
	}
	c.meanings.Set(trimmed, m)

	return &m, nil
}

// generate performs a single content generation request and returns the
// raw response text.
func (c *Client) generate(ctx context.Context, config translation.Config, word string) (string, error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	api, err := c.api(ctx)
	if err != nil {
		return "", err
	}

	generateConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(config.Temperature),
		MaxOutputTokens:   int32(config.MaxTokens),
		SystemInstruction: genai.NewContentFromText(translation.MeaningPrompt, genai.RoleUser),
	}

	resp, err := api.Models.GenerateContent(ctx, model(config), genai.Text(word), generateConfig)
	if err != nil {
		return "", mapAPIError(word, config, err)
	}

	return resp.Text(), nil
}

// model returns the Gemini model to query. The shared configuration
// defaults name an OpenAI chat model, which Gemini cannot serve.
func model(config translation.Config) string {
	if strings.HasPrefix(config.Model, "gemini") {
		return config.Model
	}
	return DefaultModel
}

// mapAPIError converts SDK failures into the typed taxonomy.
func mapAPIError(word string, config translation.Config, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &translation.TimeoutError{Word: word, Timeout: config.Timeout}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &translation.NetworkError{StatusCode: apiErr.Code, Status: apiErr.Message}
	}
	return &translation.NetworkError{Status: err.Error()}
}

// GetPhonetic wraps GetMeaning for validation and caching and always
// returns an empty phonetic list: chat models are not a reliable source
// of transcriptions.
func (c *Client) GetPhonetic(ctx context.Context, word string) (*translation.PhoneticInfo, error) {
	m, err := c.GetMeaning(ctx, word)
	if err != nil {
		return nil, err
	}
	return &translation.PhoneticInfo{
		Word:      m.Word,
		Phonetics: []translation.Phonetic{},
		Cached:    m.Cached,
	}, nil
}

// GetBatchPhonetics resolves phonetics for all words concurrently.
func (c *Client) GetBatchPhonetics(ctx context.Context, words []string) []translation.BatchResult {
	return translation.BatchPhonetics(ctx, words, c.GetPhonetic)
}

// IsAvailable reports whether meaning lookups can currently be served.
func (c *Client) IsAvailable(ctx context.Context) error {
	if c.Config().APIKey == "" {
		return &translation.ConfigError{Reason: "no Gemini API key configured"}
	}
	return nil
}

// Config returns a copy of the current API configuration.
func (c *Client) Config() translation.Config {
	c.mu.Lock()
	defer c.mu.Unlock()

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

// UpdateConfig replaces the API configuration. The SDK client is rebuilt
// on the next lookup so a new endpoint or key takes effect.
func (c *Client) UpdateConfig(config translation.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
	c.client = nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "gemini"
}

var _ translation.Provider = (*Client)(nil)
