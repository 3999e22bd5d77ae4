package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/snonux/wordtip/internal/cache"
)

// newChatServer fakes an OpenAI-compatible chat completion endpoint that
// always answers with the given message content.
func newChatServer(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeChatResponse(w, content)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func writeChatResponse(w http.ResponseWriter, content string) {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	})
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

func testConfig(endpoint string) Config {
	config := DefaultConfig()
	config.APIKey = "test-api-key"
	config.Endpoint = endpoint + "/v1"
	return config
}

func TestGetMeaning(t *testing.T) {
	srv, calls := newChatServer(t, "interj. 你好；n. 打招呼")
	client := NewClient(testConfig(srv.URL))

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}

	if m.Explain != "interj. 你好；n. 打招呼" {
		t.Errorf("Expected explain 'interj. 你好；n. 打招呼', got %q", m.Explain)
	}
	if m.Source != SourceAI {
		t.Errorf("Expected source %q, got %q", SourceAI, m.Source)
	}
	if m.Cached {
		t.Error("Expected Cached=false on first lookup")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 API call, got %d", got)
	}
}

func TestGetMeaningCachedSecondCall(t *testing.T) {
	srv, calls := newChatServer(t, "interj. 你好；n. 打招呼")
	client := NewClient(testConfig(srv.URL))

	if _, err := client.GetMeaning(context.Background(), "hello"); err != nil {
		t.Fatalf("First lookup failed: %v", err)
	}

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Second lookup failed: %v", err)
	}
	if !m.Cached {
		t.Error("Expected Cached=true on second lookup")
	}
	if m.Explain != "interj. 你好；n. 打招呼" {
		t.Errorf("Expected cached explain to match, got %q", m.Explain)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected no additional API call, got %d total", got)
	}

	// Normalized key: different casing and padding must hit the cache too
	m, err = client.GetMeaning(context.Background(), "  HELLO ")
	if err != nil {
		t.Fatalf("Normalized lookup failed: %v", err)
	}
	if !m.Cached {
		t.Error("Expected Cached=true for case-variant lookup")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected no additional API call for case variant, got %d total", got)
	}
}

func TestGetMeaningEmptyWord(t *testing.T) {
	srv, calls := newChatServer(t, "should not be called")
	client := NewClient(testConfig(srv.URL))

	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := client.GetMeaning(context.Background(), input)
		if err == nil {
			t.Fatalf("Expected error for input %q", input)
		}
		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("Expected InvalidInputError for %q, got %T: %v", input, err, err)
		}
	}

	if got := calls.Load(); got != 0 {
		t.Errorf("Expected 0 API calls for invalid input, got %d", got)
	}
}

func TestGetMeaningNoAPIKey(t *testing.T) {
	srv, calls := newChatServer(t, "should not be called")

	config := testConfig(srv.URL)
	config.APIKey = ""
	client := NewClient(config)

	_, err := client.GetMeaning(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected error without API key")
	}
	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Errorf("Expected ConfigError, got %T: %v", err, err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("Expected 0 API calls without key, got %d", got)
	}
}

func TestGetMeaningTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
			writeChatResponse(w, "too late")
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Timeout = 50 * time.Millisecond
	client := NewClient(config)

	start := time.Now()
	_, err := client.GetMeaning(context.Background(), "hello")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("Expected TimeoutError, got %T: %v", err, err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected lookup to abort near the 50ms deadline, took %v", elapsed)
	}
}

func TestGetMeaningServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	_, err := client.GetMeaning(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected network error")
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %T: %v", err, err)
	}
	if netErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status code 500, got %d", netErr.StatusCode)
	}
}

func TestGetMeaningStripsMarkdown(t *testing.T) {
	srv, _ := newChatServer(t, "**interj.** `你好`；n. 打招呼")
	client := NewClient(testConfig(srv.URL))

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}
	if m.Explain != "interj. 你好；n. 打招呼" {
		t.Errorf("Expected markdown to be stripped, got %q", m.Explain)
	}
}

func TestGetMeaningTruncatesLongExplanations(t *testing.T) {
	long := strings.Repeat("词", 300)
	srv, _ := newChatServer(t, long)
	client := NewClient(testConfig(srv.URL))

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}
	runes := []rune(m.Explain)
	if len(runes) != MaxExplainLength+3 {
		t.Errorf("Expected %d runes, got %d", MaxExplainLength+3, len(runes))
	}
	if !strings.HasSuffix(m.Explain, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", m.Explain[len(m.Explain)-9:])
	}
}

func TestGetMeaningEmptyResponseFallback(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Expected synthesized fallback, got error: %v", err)
	}
	if m.Explain != "meaning unavailable for hello" {
		t.Errorf("Expected fallback explanation, got %q", m.Explain)
	}

	// Fallbacks are not cached: the next lookup tries the API again
	if _, err := client.GetMeaning(context.Background(), "hello"); err != nil {
		t.Fatalf("Second lookup failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected fallback to bypass the cache, got %d calls", got)
	}
}

func TestGetPhoneticAlwaysEmpty(t *testing.T) {
	srv, calls := newChatServer(t, "interj. 你好")
	client := NewClient(testConfig(srv.URL))

	info, err := client.GetPhonetic(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetPhonetic failed: %v", err)
	}
	if info.Phonetics == nil {
		t.Error("Expected empty phonetic list, got nil")
	}
	if len(info.Phonetics) != 0 {
		t.Errorf("Expected no phonetics from the chat backend, got %d", len(info.Phonetics))
	}
	if info.Cached {
		t.Error("Expected Cached=false on first phonetic lookup")
	}

	// The wrapped meaning lookup populated the cache
	info, err = client.GetPhonetic(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Second GetPhonetic failed: %v", err)
	}
	if !info.Cached {
		t.Error("Expected Cached=true on second phonetic lookup")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 API call total, got %d", got)
	}
}

func TestGetBatchPhonetics(t *testing.T) {
	srv, _ := newChatServer(t, "n. 测试")
	client := NewClient(testConfig(srv.URL))

	words := []string{"hello", "", "world"}
	results := client.GetBatchPhonetics(context.Background(), words)

	if len(results) != len(words) {
		t.Fatalf("Expected %d results, got %d", len(words), len(results))
	}

	if results[0].Err != nil {
		t.Errorf("Expected 'hello' to succeed, got %v", results[0].Err)
	}
	if results[2].Err != nil {
		t.Errorf("Expected 'world' to succeed, got %v", results[2].Err)
	}

	// The empty word settles with a per-word batch error
	if results[1].Err == nil {
		t.Fatal("Expected the empty word to fail")
	}
	if !strings.Contains(results[1].Err.Error(), "batch phonetic lookup failed") {
		t.Errorf("Expected batch failure wrapping, got %v", results[1].Err)
	}
	if !IsInvalidInput(results[1].Err) {
		t.Errorf("Expected wrapped InvalidInputError, got %v", results[1].Err)
	}
}

func TestIsAvailable(t *testing.T) {
	srv, _ := newChatServer(t, "n. 测试")

	client := NewClient(testConfig(srv.URL))
	if err := client.IsAvailable(context.Background()); err != nil {
		t.Errorf("Expected availability with key, got %v", err)
	}

	config := testConfig(srv.URL)
	config.APIKey = ""
	client = NewClient(config)
	if err := client.IsAvailable(context.Background()); err == nil {
		t.Error("Expected unavailability without key")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"bad gateway","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	for i := 0; i < 5; i++ {
		if _, err := client.GetMeaning(context.Background(), "hello"); err == nil {
			t.Fatalf("Expected failure %d", i+1)
		}
	}

	// The breaker is open now: the next lookup fails fast off the wire
	_, err := client.GetMeaning(context.Background(), "hello")
	if err == nil {
		t.Fatal("Expected fast failure with open breaker")
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("Expected the open breaker to skip the API, got %d calls", got)
	}
	if err := client.IsAvailable(context.Background()); err == nil {
		t.Error("Expected IsAvailable to report the open breaker")
	}
}

func TestUpdateConfig(t *testing.T) {
	srvA, callsA := newChatServer(t, "n. 甲")
	srvB, callsB := newChatServer(t, "n. 乙")

	client := NewClient(testConfig(srvA.URL))
	if _, err := client.GetMeaning(context.Background(), "alpha"); err != nil {
		t.Fatalf("Lookup against first endpoint failed: %v", err)
	}

	client.UpdateConfig(testConfig(srvB.URL))
	if got := client.Config().Endpoint; got != srvB.URL+"/v1" {
		t.Errorf("Expected updated endpoint, got %s", got)
	}

	if _, err := client.GetMeaning(context.Background(), "beta"); err != nil {
		t.Fatalf("Lookup against second endpoint failed: %v", err)
	}
	if callsA.Load() != 1 || callsB.Load() != 1 {
		t.Errorf("Expected one call per endpoint, got %d and %d", callsA.Load(), callsB.Load())
	}
}

func TestSharedCache(t *testing.T) {
	srvA, callsA := newChatServer(t, "n. 测试")
	srvB, callsB := newChatServer(t, "n. 测试")

	shared := cache.New[Meaning](0, 0)
	clientA := NewClientWithCache(testConfig(srvA.URL), shared)
	clientB := NewClientWithCache(testConfig(srvB.URL), shared)

	if _, err := clientA.GetMeaning(context.Background(), "hello"); err != nil {
		t.Fatalf("Lookup via first client failed: %v", err)
	}

	m, err := clientB.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Lookup via second client failed: %v", err)
	}
	if !m.Cached {
		t.Error("Expected second client to hit the shared cache")
	}
	if callsA.Load() != 1 || callsB.Load() != 0 {
		t.Errorf("Expected 1 and 0 calls, got %d and %d", callsA.Load(), callsB.Load())
	}
}

func TestGetMeaningIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: OPENAI_API_KEY not set")
	}

	config := DefaultConfig()
	config.APIKey = apiKey
	client := NewClient(config)

	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}
	if m.Explain == "" {
		t.Error("Expected a non-empty explanation")
	}
	t.Logf("hello -> %s", m.Explain)
}
