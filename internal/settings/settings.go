package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/wordtip/internal/translation"
)

// APIProfile is one named provider configuration.
type APIProfile struct {
	ID          string            `mapstructure:"id" yaml:"id" json:"id"`
	Name        string            `mapstructure:"name" yaml:"name,omitempty" json:"name,omitempty"`
	Provider    string            `mapstructure:"provider" yaml:"provider" json:"provider"`
	Endpoint    string            `mapstructure:"endpoint" yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	APIKey      string            `mapstructure:"key" yaml:"key,omitempty" json:"key,omitempty"`
	Model       string            `mapstructure:"model" yaml:"model,omitempty" json:"model,omitempty"`
	Temperature float32           `mapstructure:"temperature" yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int               `mapstructure:"max_tokens" yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	TimeoutMs   int               `mapstructure:"timeout_ms" yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	Params      map[string]string `mapstructure:"params" yaml:"params,omitempty" json:"params,omitempty"`
}

// Config converts the profile into the provider configuration, filling
// unset fields with the shared defaults.
func (p APIProfile) Config() translation.Config {
	config := translation.DefaultConfig()
	config.Endpoint = p.Endpoint
	config.APIKey = p.APIKey
	if p.Model != "" {
		config.Model = p.Model
	}
	if p.Temperature > 0 {
		config.Temperature = p.Temperature
	}
	if p.MaxTokens > 0 {
		config.MaxTokens = p.MaxTokens
	}
	if p.TimeoutMs > 0 {
		config.Timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}
	if len(p.Params) > 0 {
		params := make(map[string]string, len(p.Params))
		for k, v := range p.Params {
			params[k] = v
		}
		config.Params = params
	}
	return config
}

// Features are the user-facing behavior toggles.
type Features struct {
	PhraseTooltips bool `mapstructure:"phrase_tooltips" yaml:"phrase_tooltips" json:"phrase_tooltips"`
	Phonetics      bool `mapstructure:"phonetics" yaml:"phonetics" json:"phonetics"`
	AutoplayAudio  bool `mapstructure:"autoplay_audio" yaml:"autoplay_audio" json:"autoplay_audio"`
	History        bool `mapstructure:"history" yaml:"history" json:"history"`
}

// Settings is the persisted user configuration.
type Settings struct {
	ActiveProfile string       `mapstructure:"active_profile" yaml:"active_profile" json:"active_profile"`
	Profiles      []APIProfile `mapstructure:"profiles" yaml:"profiles" json:"profiles"`
	Features      Features     `mapstructure:"features" yaml:"features" json:"features"`
	Rules         Rules        `mapstructure:"rules" yaml:"rules" json:"rules"`
}

// Default returns the settings used when no file exists yet: a single
// empty OpenAI-compatible profile and all lookup features enabled.
func Default() Settings {
	return Settings{
		ActiveProfile: "default",
		Profiles: []APIProfile{{
			ID:       "default",
			Name:     "OpenAI compatible",
			Provider: "ai",
		}},
		Features: Features{
			PhraseTooltips: true,
			Phonetics:      true,
			History:        true,
		},
	}
}

// DefaultPath returns the settings file location, $HOME/.wordtip.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wordtip.yaml"
	}
	return filepath.Join(home, ".wordtip.yaml")
}

// Store loads, serves and saves the settings file. It is safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	v       *viper.Viper
	path    string
	current Settings
	logger  zerolog.Logger
}

// NewStore creates a store for the given settings file. An empty path
// selects DefaultPath.
func NewStore(path string, logger zerolog.Logger) *Store {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WORDTIP")
	v.AutomaticEnv()
	v.SetDefault("active_profile", "default")
	v.SetDefault("features.phrase_tooltips", true)
	v.SetDefault("features.phonetics", true)
	v.SetDefault("features.autoplay_audio", false)
	v.SetDefault("features.history", true)

	return &Store{
		v:       v,
		path:    path,
		current: Default(),
		logger:  logger,
	}
}

// Load reads the settings file. A missing file yields the defaults and no
// error. Scalar keys may be overridden via WORDTIP_* environment
// variables.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("reading settings file: %w", err)
		}
	}

	settings := Default()
	if err := s.v.Unmarshal(&settings); err != nil {
		return fmt.Errorf("parsing settings file: %w", err)
	}
	s.current = settings

	s.logger.Debug().Str("file", s.path).Int("profiles", len(settings.Profiles)).Msg("settings loaded")
	return nil
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.current)
}

// Update applies mutate to a copy of the current settings, installs the
// result and saves it to disk.
func (s *Store) Update(mutate func(*Settings)) error {
	s.mu.Lock()
	settings := copySettings(s.current)
	mutate(&settings)
	s.current = settings
	s.mu.Unlock()

	return s.Save()
}

// Save writes the current settings to the settings file as YAML.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.current)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("serializing settings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

// ActiveProfile returns the profile selected by the active profile id.
// With no id set, the first profile is active.
func (s *Store) ActiveProfile() (APIProfile, error) {
	settings := s.Settings()
	if len(settings.Profiles) == 0 {
		return APIProfile{}, fmt.Errorf("no API profile configured")
	}
	if settings.ActiveProfile == "" {
		return settings.Profiles[0], nil
	}
	for _, p := range settings.Profiles {
		if p.ID == settings.ActiveProfile {
			return p, nil
		}
	}
	return APIProfile{}, fmt.Errorf("active profile %q not found", settings.ActiveProfile)
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Watch reloads the store whenever the settings file changes on disk and
// then calls onChange.
func (s *Store) Watch(onChange func()) {
	s.v.OnConfigChange(func(event fsnotify.Event) {
		s.logger.Debug().Str("file", event.Name).Msg("settings file changed")
		if err := s.Load(); err != nil {
			s.logger.Warn().Err(err).Msg("reloading settings failed")
			return
		}
		onChange()
	})
	s.v.WatchConfig()
}

func copySettings(settings Settings) Settings {
	copied := settings

	copied.Profiles = make([]APIProfile, len(settings.Profiles))
	copy(copied.Profiles, settings.Profiles)
	for i, p := range copied.Profiles {
		if p.Params == nil {
			continue
		}
		params := make(map[string]string, len(p.Params))
		for k, v := range p.Params {
			params[k] = v
		}
		copied.Profiles[i].Params = params
	}

	copied.Rules = copyRules(settings.Rules)
	return copied
}
