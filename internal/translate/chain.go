package translate

import (
	"context"
	"time"

	"github.com/soyeahso/medbridge/internal/logging"
)

// Chain is a Translator that tries the primary backend first, then falls
// back through the list. When every backend fails or times out, it returns
// the original text with the last error attached as a diagnostic.
type Chain struct {
	backends []Client
	timeout  time.Duration
	log      *logging.Logger
}

// NewChain builds a translator over the given backends. timeout bounds each
// individual backend attempt; zero means no per-attempt bound beyond ctx.
func NewChain(backends []Client, timeout time.Duration, log *logging.Logger) *Chain {
	return &Chain{
		backends: backends,
		timeout:  timeout,
		log:      log.Sub("translate"),
	}
}

// Translate resolves the source language, applies the same-language
// fast-path, then walks the backend list. Never fails: the worst outcome is
// the original text flagged untranslated.
func (c *Chain) Translate(ctx context.Context, text, targetLang, sourceLang string) Result {
	if sourceLang == "" || sourceLang == LangAuto {
		if detected := DetectLang(text); detected != "" {
			sourceLang = detected
		} else {
			sourceLang = LangAuto
		}
	}

	// Same-language fast-path: nothing to do.
	if sourceLang == targetLang {
		return Result{Text: text, Translated: false, SourceLang: sourceLang, TargetLang: targetLang}
	}

	var lastErr error
	for _, backend := range c.backends {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}

		translated, detected, err := backend.Translate(attemptCtx, text, targetLang, sourceLang)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return Result{
				Text:       translated,
				Translated: true,
				SourceLang: detected,
				TargetLang: targetLang,
			}
		}

		lastErr = err
		c.log.Warn().
			Str("backend", backend.Name()).
			Str("target", targetLang).
			Err(err).
			Msg("translation backend failed, trying next")
	}

	result := Result{Text: text, Translated: false, SourceLang: sourceLang, TargetLang: targetLang}
	if lastErr != nil {
		result.Error = lastErr.Error()
	} else {
		result.Error = "no translation backends configured"
	}
	return result
}
