package internal

// Version is the wordtip release version, overridable at build time via
// -ldflags "-X codeberg.org/snonux/wordtip/internal.Version=..."
var Version = "0.1.0"
