package domain

import "time"

// Delivery is the per-recipient view of a relayed message. Each recipient
// gets its own Delivery: the sender sees the original text, everyone else
// sees the text translated into their language, best effort.
type Delivery struct {
	MessageID  string    `json:"messageId"`
	SessionID  string    `json:"sessionId"`
	SenderRole string    `json:"senderRole"`
	Text       string    `json:"text"`
	IsOriginal bool      `json:"isOriginal"`
	Translated bool      `json:"translated"`
	SourceLang string    `json:"sourceLang"`
	TargetLang string    `json:"targetLang,omitempty"`
	Replayed   bool      `json:"replayed,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	// TranslationError carries a non-fatal diagnostic when translation
	// degraded to the original text. The delivery itself still succeeds.
	TranslationError string `json:"translationError,omitempty"`
}

// Signal is an opaque signaling payload (offer/answer/candidate) relayed
// verbatim between peers. The hub never inspects Payload.
type Signal struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"` // "offer" | "answer" | "candidate"
	From      ConnID `json:"from"`
	Payload   any    `json:"payload"`
}

// SignalKinds are the accepted signal kinds.
var SignalKinds = map[string]bool{
	"offer":     true,
	"answer":    true,
	"candidate": true,
}
