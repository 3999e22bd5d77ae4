package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/wordtip/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wordtip [word]",
		Short: "Word and phrase lookup service for the wordtip extension",
		Long: `wordtip resolves compact dictionary-style explanations and phonetic
transcriptions for English words and phrases.

Meanings come from an OpenAI-compatible chat API, Google Gemini, or the
free dictionary API. Results are cached for a day, and the same lookups
can be served to the browser extension over WebSocket.

Examples:
  wordtip serendipity            # Explain a single word
  wordtip "break a leg"          # Explain a phrase
  wordtip --batch words.txt      # Look up every word from a file
  wordtip --serve                # Serve extension lookups on 127.0.0.1:8732`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.wordtip.yaml)")

	// Lookup flags
	cmd.Flags().StringVarP(&flags.Provider, "provider", "p", flags.Provider, "Lookup provider: ai, gemini or dictionary")
	cmd.Flags().StringVar(&flags.Endpoint, "endpoint", "", "API base URL (default is the provider's endpoint)")
	cmd.Flags().StringVarP(&flags.Model, "model", "m", "", "Chat model for meaning lookups")
	cmd.Flags().Float32Var(&flags.Temperature, "temperature", flags.Temperature, "Sampling temperature for meaning lookups")
	cmd.Flags().IntVar(&flags.MaxTokens, "max-tokens", flags.MaxTokens, "Token ceiling per meaning lookup")
	cmd.Flags().IntVar(&flags.TimeoutMs, "timeout-ms", 0, "Per-request timeout in milliseconds (0 disables the deadline)")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Look up words from file (one per line)")
	cmd.Flags().BoolVar(&flags.HTML, "html", false, "Print tooltip markup instead of plain text")
	cmd.Flags().BoolVar(&flags.NoPhonetics, "no-phonetics", false, "Skip phonetic lookups")
	cmd.Flags().BoolVar(&flags.NoHistory, "no-history", false, "Do not record lookups in the history database")
	cmd.Flags().BoolVar(&flags.FallbackDictionary, "fallback-dictionary", false, "Fall back to the free dictionary API when the provider fails")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List chat models available for the current API key")
	cmd.Flags().IntVar(&flags.Recent, "recent", 0, "Print the N most recent lookups and exit")

	// Server flags
	cmd.Flags().BoolVar(&flags.Serve, "serve", false, "Serve extension lookups over WebSocket and HTTP")
	cmd.Flags().StringVar(&flags.Listen, "listen", flags.Listen, "Listen address for --serve")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("api.provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("api.endpoint", cmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("api.model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("api.temperature", cmd.Flags().Lookup("temperature"))
	viper.BindPFlag("api.max_tokens", cmd.Flags().Lookup("max-tokens"))
	viper.BindPFlag("api.timeout_ms", cmd.Flags().Lookup("timeout-ms"))
	viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))
	viper.BindPFlag("history.disabled", cmd.Flags().Lookup("no-history"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".wordtip" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".wordtip")
	}

	// Environment variables
	viper.SetEnvPrefix("WORDTIP")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetAPIKey retrieves the lookup API key from environment or config.
// Gemini checks its own conventional variable before the shared ones.
func GetAPIKey(provider string) string {
	if provider == "gemini" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
	}

	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("api.key")
}
