package translation

import (
	"time"

	"github.com/sashabaranov/go-openai"
)

// Source values attached to Meaning results.
const (
	SourceAI         = "ai-translation"
	SourceDictionary = "dictionary"
	SourceGemini     = "gemini"
)

// Meaning is a resolved explanation for a word or phrase.
type Meaning struct {
	Word    string `json:"word"`
	Explain string `json:"explain"`
	Source  string `json:"source"`
	// Cached reports that the result was served from the cache without
	// a network call.
	Cached bool `json:"cached"`
}

// Phonetic is a single transcription variant for a word.
type Phonetic struct {
	Text     string `json:"text"`             // e.g. /həˈləʊ/
	Accent   string `json:"accent,omitempty"` // "US" or "UK" when known
	AudioURL string `json:"audio_url,omitempty"`
}

// PhoneticInfo carries the transcription variants found for a word.
type PhoneticInfo struct {
	Word      string     `json:"word"`
	Phonetics []Phonetic `json:"phonetics"`
	Cached    bool       `json:"cached"`
}

// BatchResult is the settled outcome for one word of a batch lookup,
// positionally aligned with the request slice. Exactly one of Info and
// Err is set.
type BatchResult struct {
	Word string
	Info *PhoneticInfo
	Err  error
}

// Config holds the API configuration of a lookup provider.
type Config struct {
	Endpoint    string // base URL; empty means the provider default
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration // 0 disables the per-request deadline
	Params      map[string]string
}

// DefaultConfig returns the configuration used when nothing else is set.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		Temperature: 0.3,
		MaxTokens:   150,
	}
}
