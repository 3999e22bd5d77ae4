// Package gemini provides a meaning lookup provider backed by Google's
// Gemini API. It produces the same kind of part-of-speech tagged glosses
// as the OpenAI-compatible provider and shares its caching behavior.
package gemini
