package translate

import "github.com/abadojack/whatlanggo"

// DetectLang guesses the ISO 639-1 code of the text's language. Returns ""
// when detection is unreliable, so callers can keep "auto" and let the
// backend decide.
func DetectLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
