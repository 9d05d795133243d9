package translate

import "context"

// Static is a test double for Translator. If TranslateFunc is set it is
// called directly; otherwise every call succeeds with Prefix prepended to
// the text, which makes translated output easy to assert on.
type Static struct {
	Prefix        string
	TranslateFunc func(ctx context.Context, text, targetLang, sourceLang string) Result
}

func (s *Static) Translate(ctx context.Context, text, targetLang, sourceLang string) Result {
	if s.TranslateFunc != nil {
		return s.TranslateFunc(ctx, text, targetLang, sourceLang)
	}
	if sourceLang == targetLang {
		return Result{Text: text, Translated: false, SourceLang: sourceLang, TargetLang: targetLang}
	}
	prefix := s.Prefix
	if prefix == "" {
		prefix = "[" + targetLang + "] "
	}
	return Result{
		Text:       prefix + text,
		Translated: true,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	}
}
