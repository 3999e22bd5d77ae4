// Package processor contains the core business logic for looking up
// words. It orchestrates provider selection, meaning and phonetic
// resolution, tooltip rendering, history recording, and the lookup
// gateway. This package serves as the main coordinator between all
// other components.
package processor
