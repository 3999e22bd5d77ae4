package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/snonux/wordtip/internal/translation"
)

// newGenerateServer fakes the Gemini generateContent endpoint, replying
// with the given text for every request.
func newGenerateServer(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeGenerateResponse(t, w, content)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func writeGenerateResponse(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	text, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("Failed to marshal content: %v", err)
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"candidates": [{"content": {"parts": [{"text": %s}], "role": "model"}, "finishReason": "STOP"}]}`, text)
}

func testConfig(endpoint string) translation.Config {
	config := translation.DefaultConfig()
	config.APIKey = "test-api-key"
	config.Endpoint = endpoint
	return config
}

func TestGetMeaning(t *testing.T) {
	var calls atomic.Int32
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotPath = r.URL.Path
		writeGenerateResponse(t, w, "interj. 你好；n. 打招呼")
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}

	if m.Explain != "interj. 你好；n. 打招呼" {
		t.Errorf("Expected gloss, got %q", m.Explain)
	}
	if m.Source != translation.SourceGemini {
		t.Errorf("Expected source %q, got %q", translation.SourceGemini, m.Source)
	}
	if m.Cached {
		t.Error("Expected Cached=false on first lookup")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 API call, got %d", got)
	}
	if !strings.Contains(gotPath, DefaultModel) {
		t.Errorf("Expected request for %s, got path %s", DefaultModel, gotPath)
	}
}

func TestGetMeaningCachedSecondCall(t *testing.T) {
	srv, calls := newGenerateServer(t, "n. 苹果")

	client := NewClient(testConfig(srv.URL))
	if _, err := client.GetMeaning(context.Background(), "apple"); err != nil {
		t.Fatalf("First GetMeaning failed: %v", err)
	}

	m, err := client.GetMeaning(context.Background(), "  APPLE ")
	if err != nil {
		t.Fatalf("Second GetMeaning failed: %v", err)
	}
	if !m.Cached {
		t.Error("Expected Cached=true on second lookup")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 API call, got %d", got)
	}
}

func TestGetMeaningEmptyWord(t *testing.T) {
	srv, calls := newGenerateServer(t, "n. 无")

	client := NewClient(testConfig(srv.URL))
	for _, word := range []string{"", "   ", "\t\n"} {
		if _, err := client.GetMeaning(context.Background(), word); !translation.IsInvalidInput(err) {
			t.Errorf("GetMeaning(%q): expected InvalidInputError, got %v", word, err)
		}
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("Expected 0 API calls, got %d", got)
	}
}

func TestGetMeaningNoAPIKey(t *testing.T) {
	srv, calls := newGenerateServer(t, "n. 无")

	config := testConfig(srv.URL)
	config.APIKey = ""
	client := NewClient(config)

	_, err := client.GetMeaning(context.Background(), "hello")
	var configErr *translation.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("Expected 0 API calls, got %d", got)
	}
}

func TestGetMeaningServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"code": 500, "message": "internal error", "status": "INTERNAL"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.GetMeaning(context.Background(), "hello")

	var netErr *translation.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
}

func TestGetMeaningTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		writeGenerateResponse(t, w, "n. 迟到")
	}))
	defer srv.Close()

	config := testConfig(srv.URL)
	config.Timeout = 50 * time.Millisecond
	client := NewClient(config)

	start := time.Now()
	_, err := client.GetMeaning(context.Background(), "hello")
	if !translation.IsTimeout(err) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Timeout took too long: %v", elapsed)
	}
}

func TestGetMeaningEmptyResponseFallback(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	m, err := client.GetMeaning(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Expected fallback meaning, got error %v", err)
	}
	if m.Explain != "meaning unavailable for hello" {
		t.Errorf("Expected placeholder explanation, got %q", m.Explain)
	}

	// Placeholders are not cached, so the next lookup tries again
	if _, err := client.GetMeaning(context.Background(), "hello"); err != nil {
		t.Fatalf("Second GetMeaning failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 API calls, got %d", got)
	}
}

func TestGetPhoneticAlwaysEmpty(t *testing.T) {
	srv, _ := newGenerateServer(t, "n. 测试")

	client := NewClient(testConfig(srv.URL))
	info, err := client.GetPhonetic(context.Background(), "test")
	if err != nil {
		t.Fatalf("GetPhonetic failed: %v", err)
	}
	if info.Phonetics == nil {
		t.Fatal("Expected non-nil phonetic list")
	}
	if len(info.Phonetics) != 0 {
		t.Errorf("Expected empty phonetic list, got %d entries", len(info.Phonetics))
	}
}

func TestModelSelection(t *testing.T) {
	tests := []struct {
		configured string
		expected   string
	}{
		{"", DefaultModel},
		{"gpt-4o-mini", DefaultModel},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
		{"gemini-2.5-pro", "gemini-2.5-pro"},
	}

	for _, tt := range tests {
		config := translation.Config{Model: tt.configured}
		if got := model(config); got != tt.expected {
			t.Errorf("model(%q) = %q, want %q", tt.configured, got, tt.expected)
		}
	}
}

func TestUpdateConfig(t *testing.T) {
	srvA, callsA := newGenerateServer(t, "n. 一")
	srvB, callsB := newGenerateServer(t, "n. 二")

	client := NewClient(testConfig(srvA.URL))
	if _, err := client.GetMeaning(context.Background(), "one"); err != nil {
		t.Fatalf("GetMeaning against first endpoint failed: %v", err)
	}

	client.UpdateConfig(testConfig(srvB.URL))
	m, err := client.GetMeaning(context.Background(), "two")
	if err != nil {
		t.Fatalf("GetMeaning against second endpoint failed: %v", err)
	}
	if m.Explain != "n. 二" {
		t.Errorf("Expected response from second endpoint, got %q", m.Explain)
	}

	if got := callsA.Load(); got != 1 {
		t.Errorf("Expected 1 call to first endpoint, got %d", got)
	}
	if got := callsB.Load(); got != 1 {
		t.Errorf("Expected 1 call to second endpoint, got %d", got)
	}
}

func TestIsAvailable(t *testing.T) {
	client := NewClient(translation.Config{})
	if err := client.IsAvailable(context.Background()); err == nil {
		t.Error("Expected availability error without an API key")
	}

	client = NewClient(translation.Config{APIKey: "test-api-key"})
	if err := client.IsAvailable(context.Background()); err != nil {
		t.Errorf("Expected availability with an API key, got %v", err)
	}
}

// TestGetMeaningIntegration exercises the real Gemini API.
func TestGetMeaningIntegration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	config := translation.DefaultConfig()
	config.APIKey = apiKey
	client := NewClient(config)

	m, err := client.GetMeaning(context.Background(), "serendipity")
	if err != nil {
		t.Fatalf("GetMeaning failed: %v", err)
	}
	if m.Explain == "" {
		t.Error("Expected a non-empty explanation")
	}
	t.Logf("serendipity: %s", m.Explain)
}
