package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/medbridge/internal/domain"
	"github.com/soyeahso/medbridge/internal/translate"
)

// Relay distributes one message from origin to every member of the session.
// The append to the session log is synchronous: once Relay returns (or even
// once fan-out starts), any history captured afterwards observes the
// message. Fan-out itself runs one goroutine per recipient and is joined
// before Relay returns, so callers and tests can await complete delivery.
//
// A connection with no role cannot send; the message is dropped with
// ErrUnassigned and nothing is appended.
func (h *Hub) Relay(ctx context.Context, sessionID string, origin domain.ConnID, text string) error {
	role, ok := h.registry.RoleOf(sessionID, origin)
	if !ok {
		h.log.Debug().Str("sessionId", sessionID).Str("connId", string(origin)).Msg("dropping message from unassigned sender")
		return ErrUnassigned
	}

	senderLang, _ := h.registry.LanguageOf(sessionID, origin)
	msg := domain.Message{
		ID:         uuid.New().String(),
		SenderRole: role,
		Text:       text,
		SourceLang: senderLang,
		Origin:     origin,
		CreatedAt:  time.Now(),
	}

	// The append returns the member set captured under the session lock, so
	// fan-out covers exactly the connections that were members when the
	// message entered the log. A join that lands after the append gets the
	// message from its replay history instead, never from both. The archive
	// enqueue sits inside archiveMu so the single writer sees messages in
	// log order.
	h.archiveMu.Lock()
	members, ok := h.registry.AppendMessage(sessionID, msg)
	if ok && h.archiveCh != nil {
		h.pending.Add(1)
		h.archiveCh <- archiveItem{sessionID: sessionID, msg: msg}
	}
	h.archiveMu.Unlock()
	if !ok {
		// Session vanished between RoleOf and here; nothing to deliver.
		return nil
	}

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(m memberView) {
			defer wg.Done()
			h.deliverTo(m.Conn, EventChatMessage, h.renderFor(ctx, sessionID, msg, m, false))
		}(memberView{Conn: m.Conn, Lang: m.Lang})
	}
	wg.Wait()
	return nil
}

// Replay reproduces history, in log order, to one connection. The history
// slice comes from AssignRole, captured under the session lock, so entries
// appended after the assignment reach the connection through the normal
// fan-out and never appear here. Translator calls are issued sequentially,
// which trivially preserves delivery order.
func (h *Hub) Replay(ctx context.Context, sessionID string, conn domain.ConnID, history []domain.Message) {
	if len(history) == 0 {
		return
	}

	lang, ok := h.registry.LanguageOf(sessionID, conn)
	if !ok {
		return
	}

	h.log.WithSession(sessionID).Debug().
		Str("connId", string(conn)).
		Int("messages", len(history)).
		Msg("replaying history")

	for _, msg := range history {
		h.deliverTo(conn, EventChatMessage, h.renderFor(ctx, sessionID, msg, memberView{Conn: conn, Lang: lang}, true))
	}
}

// memberView is the recipient-specific input to renderFor.
type memberView struct {
	Conn domain.ConnID
	Lang string
}

// renderFor builds the per-recipient delivery. The sender always gets the
// unmodified original; everyone else gets a fresh translation, degraded to
// the original text with a diagnostic when the translator fails or times
// out. One recipient's failure never affects another's delivery.
func (h *Hub) renderFor(ctx context.Context, sessionID string, msg domain.Message, m memberView, replayed bool) domain.Delivery {
	d := domain.Delivery{
		MessageID:  msg.ID,
		SessionID:  sessionID,
		SenderRole: msg.SenderRole.String(),
		SourceLang: msg.SourceLang,
		Replayed:   replayed,
		Timestamp:  msg.CreatedAt,
	}

	if m.Conn == msg.Origin {
		d.Text = msg.Text
		d.IsOriginal = true
		return d
	}

	res := h.translator.Translate(ctx, msg.Text, m.Lang, msg.SourceLang)
	d.Text = res.Text
	d.Translated = res.Translated
	d.SourceLang = res.SourceLang
	d.TargetLang = res.TargetLang
	if res.Error != "" {
		d.TranslationError = res.Error
		h.log.Warn().
			Str("sessionId", sessionID).
			Str("target", m.Lang).
			Str("reason", res.Error).
			Msg("translation degraded to original text")
	}
	return d
}

// Translate exposes the hub's translator with its fallback semantics, for
// the ad-hoc HTTP translation endpoint.
func (h *Hub) Translate(ctx context.Context, text, targetLang, sourceLang string) translate.Result {
	return h.translator.Translate(ctx, text, targetLang, sourceLang)
}
