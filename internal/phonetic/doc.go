// Package phonetic provides the dictionary-API-backed lookup provider.
// It is the only backend that resolves phonetic transcriptions, and it
// needs no API key.
package phonetic
