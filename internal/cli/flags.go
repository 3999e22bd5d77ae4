package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile            string
	Provider           string
	Endpoint           string
	Model              string
	Temperature        float32
	MaxTokens          int
	TimeoutMs          int
	BatchFile          string
	HTML               bool
	NoPhonetics        bool
	NoHistory          bool
	FallbackDictionary bool
	ListModels         bool
	Recent             int

	// Server flags
	Serve  bool
	Listen string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Provider:    "ai",
		Temperature: 0.3,
		MaxTokens:   150,
		Listen:      "127.0.0.1:8732",
	}
}
