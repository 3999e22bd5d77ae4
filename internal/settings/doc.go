// Package settings persists the user configuration: named API profiles,
// the active profile id, feature toggles and per-site page rules. The
// store reads and writes a single YAML file and can watch it for changes.
package settings
