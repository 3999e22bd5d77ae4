// Package models provides functionality for listing the chat models
// available at the configured endpoint. It helps users discover which
// models can serve meaning lookups with their API key.
package models
