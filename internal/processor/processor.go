package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"codeberg.org/snonux/wordtip/internal/batch"
	"codeberg.org/snonux/wordtip/internal/cli"
	"codeberg.org/snonux/wordtip/internal/gemini"
	"codeberg.org/snonux/wordtip/internal/history"
	"codeberg.org/snonux/wordtip/internal/menu"
	"codeberg.org/snonux/wordtip/internal/message"
	"codeberg.org/snonux/wordtip/internal/models"
	"codeberg.org/snonux/wordtip/internal/notify"
	"codeberg.org/snonux/wordtip/internal/phonetic"
	"codeberg.org/snonux/wordtip/internal/settings"
	"codeberg.org/snonux/wordtip/internal/tooltip"
	"codeberg.org/snonux/wordtip/internal/translation"
)

// Processor handles the main word lookup logic
type Processor struct {
	flags    *cli.Flags
	provider translation.Provider
	store    *settings.Store
	history  *history.Store
	notifier *notify.Notifier
	logger   zerolog.Logger
}

// NewProcessor creates a new lookup processor
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	logger := newLogger()

	store := settings.NewStore(settings.DefaultPath(), logger)
	if err := store.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load settings: %v\n", err)
	}

	provider, err := newProvider(flags, lookupConfig(flags, store), logger)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		flags:    flags,
		provider: provider,
		store:    store,
		notifier: notify.NewNotifier(logger),
		logger:   logger,
	}

	if !flags.NoHistory && !viper.GetBool("history.disabled") {
		historyStore, err := history.Open(viper.GetString("history.path"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to open history database: %v\n", err)
		} else {
			p.history = historyStore
		}
	}

	return p, nil
}

// Close releases the processor's resources
func (p *Processor) Close() error {
	if p.history != nil {
		return p.history.Close()
	}
	return nil
}

// newLogger returns a console logger when WORDTIP_DEBUG is set and a
// no-op logger otherwise, keeping normal CLI output clean.
func newLogger() zerolog.Logger {
	if os.Getenv("WORDTIP_DEBUG") == "" {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// effectiveProvider resolves the provider name from flags and config file
func effectiveProvider(flags *cli.Flags) string {
	if flags.Provider != "ai" {
		return flags.Provider
	}
	if viper.IsSet("api.provider") {
		return viper.GetString("api.provider")
	}
	return flags.Provider
}

// lookupConfig merges the active settings profile with config file and
// flag overrides. Flags win over the config file, which wins over the
// profile.
func lookupConfig(flags *cli.Flags, store *settings.Store) translation.Config {
	config := translation.DefaultConfig()
	if profile, err := store.ActiveProfile(); err == nil {
		config = profile.Config()
	}

	if flags.Endpoint != "" {
		config.Endpoint = flags.Endpoint
	} else if viper.IsSet("api.endpoint") {
		config.Endpoint = viper.GetString("api.endpoint")
	}
	if flags.Model != "" {
		config.Model = flags.Model
	} else if viper.IsSet("api.model") {
		config.Model = viper.GetString("api.model")
	}

	// Use config file values if the flag defaults were not overridden
	if flags.Temperature != 0.3 {
		config.Temperature = flags.Temperature
	} else if viper.IsSet("api.temperature") {
		config.Temperature = float32(viper.GetFloat64("api.temperature"))
	}
	if flags.MaxTokens != 150 {
		config.MaxTokens = flags.MaxTokens
	} else if viper.IsSet("api.max_tokens") {
		config.MaxTokens = viper.GetInt("api.max_tokens")
	}
	if flags.TimeoutMs > 0 {
		config.Timeout = time.Duration(flags.TimeoutMs) * time.Millisecond
	} else if viper.IsSet("api.timeout_ms") {
		config.Timeout = time.Duration(viper.GetInt("api.timeout_ms")) * time.Millisecond
	}

	if key := cli.GetAPIKey(effectiveProvider(flags)); key != "" {
		config.APIKey = key
	}

	return config
}

// newProvider builds the lookup provider selected by the configuration
func newProvider(flags *cli.Flags, config translation.Config, logger zerolog.Logger) (translation.Provider, error) {
	name := effectiveProvider(flags)

	var provider translation.Provider
	switch name {
	case "ai":
		provider = translation.NewClient(config)
	case "gemini":
		provider = gemini.NewClient(config)
	case "dictionary":
		provider = phonetic.NewClient(config, logger)
	default:
		return nil, fmt.Errorf("unknown lookup provider: %s (use ai, gemini or dictionary)", name)
	}

	if flags.FallbackDictionary && name != "dictionary" {
		// The fallback keeps the per-request timeout but not the
		// endpoint, which points at the chat API
		fallbackConfig := translation.DefaultConfig()
		fallbackConfig.Timeout = config.Timeout
		provider = translation.NewProviderWithFallback(provider, phonetic.NewClient(fallbackConfig, logger))
	}

	return provider, nil
}

// ProcessSingleWord looks up a single word or phrase from the command line
func (p *Processor) ProcessSingleWord(word string) error {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return fmt.Errorf("empty word")
	}

	if p.flags.HTML {
		markup, err := p.RenderTooltip(trimmed)
		if err != nil {
			return err
		}
		fmt.Println(markup)
		return nil
	}

	ctx := context.Background()

	fmt.Printf("\nLooking up: %s\n", trimmed)

	meaning, err := p.provider.GetMeaning(ctx, trimmed)
	if err != nil {
		p.notifyLookupFailure(err)
		return fmt.Errorf("meaning lookup failed: %w", err)
	}
	if meaning.Cached {
		fmt.Printf("  Meaning (cached): %s\n", meaning.Explain)
	} else {
		fmt.Printf("  Meaning: %s\n", meaning.Explain)
	}
	p.recordLookup(ctx, meaning)

	// Phrases have no transcription of their own
	if !p.flags.NoPhonetics && len(tooltip.Tokenize(trimmed)) == 1 {
		fmt.Printf("  Fetching phonetic information...\n")
		info, err := p.provider.GetPhonetic(ctx, trimmed)
		switch {
		case err != nil:
			fmt.Printf("  Warning: Failed to fetch phonetic info: %v\n", err)
		case len(info.Phonetics) == 0:
			fmt.Printf("  No phonetic transcription found\n")
		default:
			fmt.Printf("  Phonetics: %s\n", formatPhonetics(info.Phonetics))
		}
	}

	return nil
}

// ProcessBatch looks up every word from the batch file. Meanings resolve
// sequentially so the cache fills in input order; phonetics resolve in one
// concurrent all-settled pass afterwards.
func (p *Processor) ProcessBatch() error {
	words, err := batch.ReadWordFile(p.flags.BatchFile)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		fmt.Println("No words found in batch file")
		return nil
	}

	ctx := context.Background()

	resolvedCount := 0
	cachedCount := 0
	errorCount := 0

	for i, word := range words {
		fmt.Printf("\nProcessing %d/%d: %s\n", i+1, len(words), word)

		meaning, err := p.provider.GetMeaning(ctx, word)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error looking up '%s': %v\n", word, err)
			p.notifyLookupFailure(err)
			errorCount++
			continue
		}

		if meaning.Cached {
			fmt.Printf("  ✓ Cached: %s\n", meaning.Explain)
			cachedCount++
		} else {
			fmt.Printf("  Meaning: %s\n", meaning.Explain)
			resolvedCount++
		}
		p.recordLookup(ctx, meaning)
	}

	if !p.flags.NoPhonetics {
		fmt.Printf("\nFetching phonetic information...\n")
		for _, result := range p.provider.GetBatchPhonetics(ctx, words) {
			switch {
			case result.Err != nil:
				fmt.Printf("  %s: lookup failed\n", result.Word)
			case len(result.Info.Phonetics) == 0:
				fmt.Printf("  %s: no transcription found\n", result.Word)
			default:
				fmt.Printf("  %s: %s\n", result.Word, formatPhonetics(result.Info.Phonetics))
			}
		}
	}

	// Print summary
	fmt.Printf("\n=== Batch Lookup Summary ===\n")
	fmt.Printf("Total words: %d\n", len(words))
	fmt.Printf("Resolved: %d\n", resolvedCount)
	fmt.Printf("Served from cache: %d\n", cachedCount)
	if errorCount > 0 {
		fmt.Printf("Errors: %d\n", errorCount)
	}
	fmt.Printf("============================\n")

	return nil
}

// RenderTooltip resolves a word and returns its patched tooltip markup.
// Phrase input renders the per-word term list without any lookups.
func (p *Processor) RenderTooltip(word string) (string, error) {
	node := tooltip.BuildMainTooltip(word)

	if len(tooltip.Tokenize(word)) != 1 {
		return tooltip.Render(node)
	}

	ctx := context.Background()

	meaning, err := p.provider.GetMeaning(ctx, word)
	if err != nil {
		p.notifyLookupFailure(err)
		return "", fmt.Errorf("meaning lookup failed: %w", err)
	}
	tooltip.ApplyMeaning(node, meaning.Explain)
	p.recordLookup(ctx, meaning)

	if p.flags.NoPhonetics {
		return tooltip.Render(node)
	}

	info, err := p.provider.GetPhonetic(ctx, word)
	if err != nil {
		tooltip.ApplyPhonetic(node, "", err)
		return tooltip.Render(node)
	}
	tooltip.ApplyPhonetic(node, formatPhonetics(info.Phonetics), nil)

	return tooltip.Render(node)
}

// ShowRecent prints the most recent lookups from the history database
func (p *Processor) ShowRecent(limit int) error {
	if p.history == nil {
		return fmt.Errorf("history is disabled")
	}

	entries, err := p.history.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No lookups recorded yet")
		return nil
	}

	fmt.Printf("Recent lookups:\n")
	for _, entry := range entries {
		fmt.Printf("  %s  %s (%s)\n", entry.LookedUp.Format("2006-01-02 15:04"), entry.Word, entry.Source)
		fmt.Printf("    %s\n", entry.Explanation)
	}

	return nil
}

// ListModels prints the chat models available at the configured endpoint
func (p *Processor) ListModels() error {
	lister := models.NewLister(p.provider.Config())
	return lister.ListAvailableModels()
}

// Serve answers extension lookups over WebSocket and HTTP until ctx is
// cancelled.
func (p *Processor) Serve(ctx context.Context) error {
	gateway := message.NewGateway(p.buildRouter(), p.logger)

	server := &http.Server{
		Addr:    p.flags.Listen,
		Handler: gateway.Handler(),
	}

	// Pick up settings edits without a restart
	p.store.Watch(func() {
		profile, err := p.store.ActiveProfile()
		if err != nil {
			return
		}
		config := profile.Config()
		if config.APIKey == "" {
			config.APIKey = cli.GetAPIKey(effectiveProvider(p.flags))
		}
		p.provider.UpdateConfig(config)
		p.logger.Info().Str("profile", profile.Name).Msg("settings changed, provider reconfigured")
	})

	fmt.Printf("Serving lookups on %s\n", p.flags.Listen)
	fmt.Printf("  WebSocket endpoint: ws://%s/ws\n", p.flags.Listen)
	fmt.Printf("  Message endpoint:   http://%s/message\n", p.flags.Listen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildRouter registers a handler for every request kind the extension
// sends.
func (p *Processor) buildRouter() *message.Router {
	router := message.NewRouter(p.logger)

	router.Register(message.KindFetchMeaning, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.WordPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding word payload: %w", err)
		}
		meaning, err := p.provider.GetMeaning(ctx, payload.Word)
		if err != nil {
			p.notifyLookupFailure(err)
			return nil, err
		}
		p.recordLookup(ctx, meaning)
		return meaning, nil
	})

	router.Register(message.KindFetchPhonetic, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.WordPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding word payload: %w", err)
		}
		return p.provider.GetPhonetic(ctx, payload.Word)
	})

	router.Register(message.KindFetchBatchPhonetics, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.WordsPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding words payload: %w", err)
		}
		return batchEntries(p.provider.GetBatchPhonetics(ctx, payload.Words)), nil
	})

	router.Register(message.KindOpenSettings, func(ctx context.Context, req message.Request) (any, error) {
		return p.store.Settings(), nil
	})

	router.Register(message.KindShowNotification, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.NotificationPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding notification payload: %w", err)
		}
		shown := p.notifier.Notify(payload.Condition, payload.Message)
		return map[string]bool{"shown": shown}, nil
	})

	router.Register(message.KindProxyRequest, message.ProxyHandler(nil))

	router.Register(message.KindMenuItems, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.MenuPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding menu payload: %w", err)
		}
		return menu.Items(payload.URL, p.store.Settings().Rules), nil
	})

	router.Register(message.KindMenuApply, func(ctx context.Context, req message.Request) (any, error) {
		var payload message.MenuPayload
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding menu payload: %w", err)
		}
		var applyErr error
		if err := p.store.Update(func(s *settings.Settings) {
			applyErr = menu.Apply(menu.Action(payload.Action), payload.URL, &s.Rules)
		}); err != nil {
			return nil, err
		}
		if applyErr != nil {
			return nil, applyErr
		}
		// Return the refreshed tree so the caller can redraw the menu
		return menu.Items(payload.URL, p.store.Settings().Rules), nil
	})

	return router
}

// Helper methods

// batchEntry is the wire form of one settled batch slot
type batchEntry struct {
	Word  string                    `json:"word"`
	Info  *translation.PhoneticInfo `json:"info,omitempty"`
	Error string                    `json:"error,omitempty"`
}

func batchEntries(results []translation.BatchResult) []batchEntry {
	entries := make([]batchEntry, len(results))
	for i, result := range results {
		entries[i] = batchEntry{Word: result.Word}
		if result.Err != nil {
			entries[i].Error = result.Err.Error()
			continue
		}
		entries[i].Info = result.Info
	}
	return entries
}

func formatPhonetics(phonetics []translation.Phonetic) string {
	parts := make([]string, 0, len(phonetics))
	for _, ph := range phonetics {
		if ph.Accent != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", ph.Text, ph.Accent))
		} else {
			parts = append(parts, ph.Text)
		}
	}
	return strings.Join(parts, ", ")
}

// recordLookup stores a network-resolved meaning in the history database.
// Cache hits are not recorded again.
func (p *Processor) recordLookup(ctx context.Context, meaning *translation.Meaning) {
	if p.history == nil || meaning.Cached {
		return
	}

	entry := history.Entry{
		Word:        meaning.Word,
		Explanation: meaning.Explain,
		Source:      meaning.Source,
	}
	if err := p.history.Record(ctx, entry); err != nil {
		fmt.Printf("  Warning: Failed to record lookup: %v\n", err)
	}
}

// notifyLookupFailure raises the once-per-session alert matching the
// failure class
func (p *Processor) notifyLookupFailure(err error) {
	var configErr *translation.ConfigError
	if errors.As(err, &configErr) {
		p.notifier.Notify(notify.ConditionMissingAPIKey, configErr.Error())
		return
	}

	var netErr *translation.NetworkError
	if errors.As(err, &netErr) || translation.IsTimeout(err) {
		p.notifier.Notify(notify.ConditionProviderDown, err.Error())
	}
}
