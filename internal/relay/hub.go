// Package relay implements the session hub: connection lifecycle, message
// fan-out with per-recipient translation, and history replay for late
// joiners. The hub is transport-agnostic; the gateway adapts WebSocket
// clients onto the Sink interface.
package relay

import (
	"context"
	"errors"
	"sync"

	"github.com/soyeahso/medbridge/internal/domain"
	"github.com/soyeahso/medbridge/internal/logging"
	"github.com/soyeahso/medbridge/internal/session"
	"github.com/soyeahso/medbridge/internal/store"
	"github.com/soyeahso/medbridge/internal/translate"
)

var (
	// ErrSessionFull mirrors session.ErrSessionFull at the hub boundary.
	ErrSessionFull = session.ErrSessionFull

	// ErrUnassigned marks an operation from a connection holding no role.
	// Callers drop it silently; it exists so tests can observe the drop.
	ErrUnassigned = errors.New("connection holds no role")

	// ErrUnknownConn marks an operation from a connection the hub has
	// never seen (or has already torn down).
	ErrUnknownConn = errors.New("unknown connection")
)

// Sink delivers one named event to a single connection. Implementations
// must be safe for concurrent use; delivery errors are non-fatal.
type Sink interface {
	Deliver(event string, payload any) error
}

// Event names emitted through sinks.
const (
	EventChatMessage = "chat.message"
	EventPeerJoined  = "peer.joined"
	EventPeerLeft    = "peer.left"
	EventLanguage    = "language.changed"
	EventTranscript  = "transcript"
)

// endpoint tracks one live connection: its delivery sink and the session it
// joined. Roleless (rejected) connections keep an endpoint so they can still
// receive direct events, but the registry never lists them as members.
type endpoint struct {
	sink      Sink
	sessionID string
}

// Hub coordinates the registry, translator, and archive for all sessions.
type Hub struct {
	registry   *session.Registry
	translator translate.Translator
	archive    store.Archive // nil disables the durability side effect
	log        *logging.Logger

	mu    sync.RWMutex
	conns map[domain.ConnID]*endpoint

	// archiveMu orders the archive enqueue with the log append; archiveCh
	// feeds a single worker so rows reach the store in log order.
	archiveMu sync.Mutex
	archiveCh chan archiveItem

	// pending tracks asynchronous work (replays, archive appends) so
	// shutdown and tests can wait for it deterministically.
	pending sync.WaitGroup
}

type archiveItem struct {
	sessionID string
	msg       domain.Message
}

// New creates a hub. archive may be nil.
func New(registry *session.Registry, translator translate.Translator, archive store.Archive, log *logging.Logger) *Hub {
	h := &Hub{
		registry:   registry,
		translator: translator,
		archive:    archive,
		log:        log.Sub("hub"),
		conns:      make(map[domain.ConnID]*endpoint),
	}
	if archive != nil {
		h.archiveCh = make(chan archiveItem, 128)
		go h.archiveLoop()
	}
	return h
}

// archiveLoop drains archive writes one at a time for the hub's lifetime,
// preserving enqueue order end to end.
func (h *Hub) archiveLoop() {
	for item := range h.archiveCh {
		if err := h.archive.Append(item.sessionID, item.msg); err != nil {
			h.log.Warn().Err(err).Str("sessionId", item.sessionID).Msg("archive append failed")
		}
		h.pending.Done()
	}
}

// Registry exposes the session registry for read-side collaborators.
func (h *Hub) Registry() *session.Registry {
	return h.registry
}

// Join attaches a connection to a session and assigns it the first free
// role. On success, existing members are notified and history replay to the
// new connection starts in the background. On ErrSessionFull the connection
// stays attached (it can receive the rejection and later events) but holds
// no role and is excluded from relay and replay.
func (h *Hub) Join(ctx context.Context, sessionID string, conn domain.ConnID, sink Sink) (domain.Role, error) {
	h.mu.Lock()
	prev := h.conns[conn]
	h.conns[conn] = &endpoint{sink: sink, sessionID: sessionID}
	h.mu.Unlock()

	// A connection holds a role in at most one session. Joining a second
	// session releases the first, exactly as a disconnect would.
	if prev != nil && prev.sessionID != sessionID {
		h.leaveSession(prev.sessionID, conn)
	}

	role, history, err := h.registry.AssignRole(sessionID, conn)
	if err != nil {
		h.log.Info().Str("sessionId", sessionID).Str("connId", string(conn)).Msg("join rejected, session full")
		return 0, err
	}

	log := h.log.WithSession(sessionID)
	log.Info().
		Str("connId", string(conn)).
		Str("role", role.String()).
		Str("lang", h.registry.RoleLanguage(role)).
		Msg("role assigned")

	for _, m := range h.registry.Members(sessionID) {
		if m.Conn == conn {
			continue
		}
		h.deliverTo(m.Conn, EventPeerJoined, map[string]any{
			"connId": string(conn),
			"role":   role.String(),
		})
	}

	// Replay runs off the join path, over the history captured atomically
	// with the role assignment. Anything appended after that point reaches
	// the joiner through the normal fan-out, and only through it.
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.Replay(ctx, sessionID, conn, history)
	}()

	return role, nil
}

// Disconnect tears down a connection: the role slot is released, remaining
// members are notified, and an emptied session is deleted together with its
// log. No transition back; a reconnect is a fresh Join.
func (h *Hub) Disconnect(conn domain.ConnID) {
	h.mu.Lock()
	ep, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if !ok {
		return
	}

	h.leaveSession(ep.sessionID, conn)
}

// leaveSession releases conn's role in one session and notifies whoever
// remains. Shared by Disconnect and by Join when a connection moves to a
// different session.
func (h *Hub) leaveSession(sessionID string, conn domain.ConnID) {
	role, held := h.registry.RoleOf(sessionID, conn)
	deleted := h.registry.ReleaseConnection(sessionID, conn)

	log := h.log.WithSession(sessionID)
	if !held {
		log.Debug().Str("connId", string(conn)).Msg("roleless connection left")
		return
	}

	log.Info().Str("connId", string(conn)).Str("role", role.String()).Bool("sessionDeleted", deleted).Msg("connection released")

	if deleted {
		return
	}
	for _, m := range h.registry.Members(sessionID) {
		h.deliverTo(m.Conn, EventPeerLeft, map[string]any{
			"connId": string(conn),
			"role":   role.String(),
		})
	}
}

// ChangeLanguage rebinds the connection's language. The confirmation goes
// to the requesting connection only; the role binding is untouched.
func (h *Hub) ChangeLanguage(conn domain.ConnID, lang string) error {
	h.mu.RLock()
	ep, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownConn
	}

	if !h.registry.SetLanguage(ep.sessionID, conn, lang) {
		return ErrUnassigned
	}

	h.deliverTo(conn, EventLanguage, map[string]any{"language": lang})
	return nil
}

// Signal relays an opaque offer/answer/candidate blob verbatim to every
// other role-holding member of the session. The payload is never inspected.
func (h *Hub) Signal(sessionID string, from domain.ConnID, kind string, payload any) error {
	if !domain.SignalKinds[kind] {
		return errors.New("unknown signal kind: " + kind)
	}
	if _, ok := h.registry.RoleOf(sessionID, from); !ok {
		return ErrUnassigned
	}

	sig := domain.Signal{SessionID: sessionID, Kind: kind, From: from, Payload: payload}
	for _, m := range h.registry.Members(sessionID) {
		if m.Conn == from {
			continue
		}
		h.deliverTo(m.Conn, "signal."+kind, sig)
	}
	return nil
}

// BroadcastTranscript pushes a raw transcript event to every member of the
// session. Used by the STT ingestion endpoint; no translation, no log
// append.
func (h *Hub) BroadcastTranscript(sessionID, role, text string) {
	for _, m := range h.registry.Members(sessionID) {
		h.deliverTo(m.Conn, EventTranscript, map[string]any{
			"sessionId": sessionID,
			"role":      role,
			"text":      text,
		})
	}
}

// Flush waits for all pending background work (replays, archive appends).
func (h *Hub) Flush() {
	h.pending.Wait()
}

// deliverTo sends an event to one connection, logging delivery failures.
func (h *Hub) deliverTo(conn domain.ConnID, event string, payload any) {
	h.mu.RLock()
	ep, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := ep.sink.Deliver(event, payload); err != nil {
		h.log.Warn().Err(err).Str("connId", string(conn)).Str("event", event).Msg("delivery failed")
	}
}
