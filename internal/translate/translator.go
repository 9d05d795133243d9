// Package translate provides the translation boundary of the relay.
//
// The hub talks to a Translator, which never returns a Go error: every
// failure is encoded in the Result so a broken translation service degrades
// message quality, never availability. Individual backends (HTTP clients)
// do return errors; the Chain absorbs them.
package translate

import "context"

// LangAuto asks the translator to detect the source language.
const LangAuto = "auto"

// Result is the outcome of one translation attempt. When Translated is
// false, Text is the unmodified input (the fallback translation).
type Result struct {
	Text       string `json:"text"`
	Translated bool   `json:"translated"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
	Error      string `json:"error,omitempty"`
}

// Translator converts text between languages. Implementations must not
// fail: all failure is encoded in the Result.
type Translator interface {
	Translate(ctx context.Context, text, targetLang, sourceLang string) Result
}

// Client is a single translation backend. Unlike Translator it may fail;
// the Chain turns backend errors into degraded Results.
type Client interface {
	// Translate returns the translated text and the detected source language.
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, string, error)

	// Name identifies the backend for logging.
	Name() string
}
