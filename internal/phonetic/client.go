package phonetic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/wordtip/internal/cache"
	"codeberg.org/snonux/wordtip/internal/translation"
)

const (
	defaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

	// defaultTimeout bounds dictionary requests when the configuration
	// sets no timeout of its own.
	defaultTimeout = 10 * time.Second
)

// Client resolves meanings and phonetic transcriptions from the free
// dictionary API. It implements translation.Provider.
type Client struct {
	mu        sync.RWMutex
	config    translation.Config
	client    *http.Client
	meanings  *cache.Cache[translation.Meaning]
	phonetics *cache.Cache[translation.PhoneticInfo]
	logger    zerolog.Logger
}

// NewClient creates a dictionary client. The configured endpoint overrides
// the public API base URL, which tests use to point at a local server.
func NewClient(config translation.Config, logger zerolog.Logger) *Client {
	return &Client{
		config:    config,
		client:    newHTTPClient(config),
		meanings:  cache.New[translation.Meaning](0, 0),
		phonetics: cache.New[translation.PhoneticInfo](0, 0),
		logger:    logger,
	}
}

func newHTTPClient(config translation.Config) *http.Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// apiEntry mirrors one entry of the dictionary API response.
type apiEntry struct {
	Word      string        `json:"word"`
	Phonetic  string        `json:"phonetic"`
	Phonetics []apiPhonetic `json:"phonetics"`
	Meanings  []apiMeaning  `json:"meanings"`
}

type apiPhonetic struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

type apiMeaning struct {
	PartOfSpeech string          `json:"partOfSpeech"`
	Definitions  []apiDefinition `json:"definitions"`
}

type apiDefinition struct {
	Definition string `json:"definition"`
}

// GetMeaning builds a compact part-of-speech tagged gloss from the first
// definition of each sense. An unknown word degrades to a placeholder
// explanation instead of an error.
func (c *Client) GetMeaning(ctx context.Context, word string) (*translation.Meaning, error) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &translation.InvalidInputError{Input: word}
	}

	if m, ok := c.meanings.Get(trimmed); ok {
		m.Cached = true
		return &m, nil
	}

	entries, err := c.fetchEntries(ctx, trimmed)
	if err != nil {
		var parseErr *translation.ParseError
		if errors.As(err, &parseErr) {
			return unavailableMeaning(trimmed), nil
		}
		return nil, err
	}
	if len(entries) == 0 {
		return unavailableMeaning(trimmed), nil
	}

	explain := buildGloss(entries)
	if explain == "" {
		return unavailableMeaning(trimmed), nil
	}

	m := translation.Meaning{
		Word:    trimmed,
		Explain: translation.TruncateExplanation(explain),
		Source:  translation.SourceDictionary,
	}
	c.meanings.Set(trimmed, m)

	return &m, nil
}

func unavailableMeaning(word string) *translation.Meaning {
	return &translation.Meaning{
		Word:    word,
		Explain: fmt.Sprintf("meaning unavailable for %s", word),
		Source:  translation.SourceDictionary,
	}
}

// GetPhonetic merges the transcription variants of all returned entries,
// dropping duplicates and inferring the accent from the audio filename.
func (c *Client) GetPhonetic(ctx context.Context, word string) (*translation.PhoneticInfo, error) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, &translation.InvalidInputError{Input: word}
	}

	if info, ok := c.phonetics.Get(trimmed); ok {
		info.Cached = true
		return &info, nil
	}

	entries, err := c.fetchEntries(ctx, trimmed)
	if err != nil {
		return nil, err
	}

	info := translation.PhoneticInfo{
		Word:      trimmed,
		Phonetics: mergePhonetics(entries),
	}
	c.phonetics.Set(trimmed, info)

	return &info, nil
}

func mergePhonetics(entries []apiEntry) []translation.Phonetic {
	phonetics := []translation.Phonetic{}
	seen := make(map[string]struct{})

	for _, entry := range entries {
		for _, p := range entry.Phonetics {
			text := strings.TrimSpace(p.Text)
			if text == "" {
				continue
			}
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			phonetics = append(phonetics, translation.Phonetic{
				Text:     text,
				Accent:   inferAccent(p.Audio),
				AudioURL: p.Audio,
			})
		}
	}

	return phonetics
}

// inferAccent guesses the accent from the pronunciation audio filename,
// e.g. ".../hello-us.mp3".
func inferAccent(audioURL string) string {
	switch {
	case strings.Contains(audioURL, "-us."):
		return "US"
	case strings.Contains(audioURL, "-uk."):
		return "UK"
	default:
		return ""
	}
}

// posAbbrev maps the API's part-of-speech names to gloss tags.
var posAbbrev = map[string]string{
	"noun":         "n.",
	"verb":         "v.",
	"adjective":    "adj.",
	"adverb":       "adv.",
	"interjection": "interj.",
	"pronoun":      "pron.",
	"preposition":  "prep.",
	"conjunction":  "conj.",
	"exclamation":  "excl.",
}

// buildGloss renders the first definition of each sense as a compact
// "pos. definition" list joined by the fullwidth semicolon.
func buildGloss(entries []apiEntry) string {
	var parts []string
	seen := make(map[string]struct{})

	for _, entry := range entries {
		for _, meaning := range entry.Meanings {
			if len(meaning.Definitions) == 0 {
				continue
			}
			if _, ok := seen[meaning.PartOfSpeech]; ok {
				continue
			}
			seen[meaning.PartOfSpeech] = struct{}{}

			tag, ok := posAbbrev[strings.ToLower(meaning.PartOfSpeech)]
			if !ok {
				tag = meaning.PartOfSpeech + "."
			}
			definition := strings.TrimSpace(meaning.Definitions[0].Definition)
			parts = append(parts, fmt.Sprintf("%s %s", tag, definition))
		}
	}

	return strings.Join(parts, "；")
}

// fetchEntries queries the dictionary API for a word. A 404 means the word
// is unknown and yields no entries and no error.
func (c *Client) fetchEntries(ctx context.Context, word string) ([]apiEntry, error) {
	config := c.Config()
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL(config), url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &translation.NetworkError{Status: err.Error()}
	}

	resp, err := c.doWithRetry(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &translation.TimeoutError{Word: word, Timeout: config.Timeout}
		}
		return nil, &translation.NetworkError{Status: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &translation.NetworkError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &translation.ParseError{Word: word, Reason: err.Error()}
	}

	return entries, nil
}

// doWithRetry retries once on transport errors and 5xx responses, unless
// the request context is already done.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	client := c.httpClient()

	resp, err := client.Do(req)
	if err == nil && resp.StatusCode < http.StatusInternalServerError {
		return resp, nil
	}
	if resp != nil {
		resp.Body.Close()
	}
	if ctxErr := req.Context().Err(); ctxErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, ctxErr
	}

	c.logger.Debug().Str("url", req.URL.String()).Msg("retrying dictionary request")
	return client.Do(req)
}

// GetBatchPhonetics resolves phonetics for all words concurrently.
func (c *Client) GetBatchPhonetics(ctx context.Context, words []string) []translation.BatchResult {
	return translation.BatchPhonetics(ctx, words, c.GetPhonetic)
}

// IsAvailable always reports availability: the dictionary API needs no
// key and failures surface per lookup.
func (c *Client) IsAvailable(ctx context.Context) error {
	return nil
}

// Config returns a copy of the current API configuration.
func (c *Client) Config() translation.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// UpdateConfig replaces the configuration and rebuilds the HTTP client so
// a changed timeout or endpoint takes effect.
func (c *Client) UpdateConfig(config translation.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config
	c.client = newHTTPClient(config)
}

func (c *Client) baseURL(config translation.Config) string {
	if config.Endpoint != "" {
		return strings.TrimSuffix(config.Endpoint, "/")
	}
	return defaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "dictionary"
}

var _ translation.Provider = (*Client)(nil)
