// Package translation provides word meaning lookup for hover tooltips via
// OpenAI-compatible chat APIs. It defines the provider contract shared by
// all lookup backends, the typed error taxonomy, and a TTL-cached client
// implementation.
package translation
