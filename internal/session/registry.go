// Package session owns all per-session state: role slots, connection
// languages, and the ordered message log. The Registry is the only place
// that mutates this state; everything else reads through snapshots.
package session

import (
	"errors"
	"sync"

	"github.com/soyeahso/medbridge/internal/domain"
	"github.com/soyeahso/medbridge/internal/logging"
)

// ErrSessionFull is returned when a third distinct connection tries to take
// a role in a session whose two slots are both occupied.
var ErrSessionFull = errors.New("session full")

// Member is a point-in-time view of one role-holding connection.
type Member struct {
	Conn domain.ConnID
	Role domain.Role
	Lang string
}

// entry wraps a session with its own lock so operations on one session
// never block operations on another. The deleted flag closes the race
// between an empty-session GC and a concurrent join that already fetched
// the entry pointer.
type entry struct {
	mu      sync.Mutex
	sess    domain.Session
	langs   map[domain.ConnID]string
	deleted bool
}

// Registry is the in-memory session table. The registry-level lock guards
// only the map; all session state is guarded by the per-entry lock.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*entry
	roleLangs [domain.RoleCount]string
	log       *logging.Logger
}

// NewRegistry creates a registry with the given role→language table.
func NewRegistry(doctorLang, patientLang string, log *logging.Logger) *Registry {
	return &Registry{
		sessions:  make(map[string]*entry),
		roleLangs: [domain.RoleCount]string{doctorLang, patientLang},
		log:       log.Sub("registry"),
	}
}

// RoleLanguage returns the configured language for a role.
func (r *Registry) RoleLanguage(role domain.Role) string {
	if role < 0 || role >= domain.RoleCount {
		return ""
	}
	return r.roleLangs[role]
}

// ensure returns the live entry for sessionID, creating it if absent. The
// returned entry is locked; the caller must unlock it.
func (r *Registry) ensure(sessionID string) *entry {
	for {
		r.mu.RLock()
		e, ok := r.sessions[sessionID]
		r.mu.RUnlock()

		if !ok {
			r.mu.Lock()
			e, ok = r.sessions[sessionID]
			if !ok {
				e = &entry{
					sess:  domain.Session{ID: sessionID},
					langs: make(map[domain.ConnID]string),
				}
				r.sessions[sessionID] = e
			}
			r.mu.Unlock()
		}

		e.mu.Lock()
		if e.deleted {
			// Lost a race with GC; the map no longer holds this entry.
			e.mu.Unlock()
			continue
		}
		return e
	}
}

// lookup returns the locked entry for sessionID, or nil if it does not exist.
func (r *Registry) lookup(sessionID string) *entry {
	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return nil
	}
	return e
}

// AssignRole fills the first empty role slot, in priority order, with conn
// and binds the role's configured language to the connection. If conn
// already holds a role, that role is returned unchanged. Returns
// ErrSessionFull when both slots are occupied by other connections; the
// session is not mutated in that case.
//
// The returned history is a copy of the message log taken under the same
// lock as the assignment. That makes the replay boundary exact: a message
// appended before the assignment is in the history, a message appended
// after it sees conn as a member and reaches it through fan-out. Neither
// both nor neither.
func (r *Registry) AssignRole(sessionID string, conn domain.ConnID) (role domain.Role, history []domain.Message, err error) {
	e := r.ensure(sessionID)
	defer e.mu.Unlock()

	for _, role := range domain.Roles {
		if e.sess.Slots[role] == conn {
			return role, e.snapshotLocked(), nil
		}
	}
	for _, role := range domain.Roles {
		if e.sess.Slots[role] == "" {
			e.sess.Slots[role] = conn
			e.langs[conn] = r.roleLangs[role]
			return role, e.snapshotLocked(), nil
		}
	}
	return 0, nil, ErrSessionFull
}

// RoleOf returns the role held by conn in the session, if any.
func (r *Registry) RoleOf(sessionID string, conn domain.ConnID) (domain.Role, bool) {
	e := r.lookup(sessionID)
	if e == nil {
		return 0, false
	}
	defer e.mu.Unlock()

	for _, role := range domain.Roles {
		if e.sess.Slots[role] == conn {
			return role, true
		}
	}
	return 0, false
}

// ReleaseConnection clears whichever role slot conn holds. When the last
// occupied slot is released the session and its log are deleted: history
// lifetime is deliberately tied to role occupancy, and a rejoin under the
// same id starts from an empty log. The durable archive (internal/store) is
// the read path for history beyond that point. Returns true when the
// session was deleted.
func (r *Registry) ReleaseConnection(sessionID string, conn domain.ConnID) bool {
	e := r.lookup(sessionID)
	if e == nil {
		return false
	}

	held := false
	for _, role := range domain.Roles {
		if e.sess.Slots[role] == conn {
			e.sess.Slots[role] = ""
			held = true
		}
	}
	delete(e.langs, conn)

	if !held || e.sess.Occupied() > 0 {
		e.mu.Unlock()
		return false
	}

	e.deleted = true
	msgs := len(e.sess.Messages)
	e.mu.Unlock()

	r.mu.Lock()
	if cur, ok := r.sessions[sessionID]; ok && cur == e {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	r.log.Debug().Str("sessionId", sessionID).Int("discardedMessages", msgs).Msg("empty session deleted")
	return true
}

// AppendMessage appends to the session log and returns the member set as of
// the append, captured under the same lock. Fan-out to exactly that set,
// combined with the history returned by AssignRole, guarantees each member
// receives the message exactly once. Silently a no-op when the session does
// not exist.
func (r *Registry) AppendMessage(sessionID string, msg domain.Message) ([]Member, bool) {
	e := r.lookup(sessionID)
	if e == nil {
		return nil, false
	}
	defer e.mu.Unlock()

	e.sess.Messages = append(e.sess.Messages, msg)
	return e.membersLocked(), true
}

// SnapshotMessages returns a copy of the session's ordered log, safe to
// iterate while concurrent appends continue.
func (r *Registry) SnapshotMessages(sessionID string) []domain.Message {
	e := r.lookup(sessionID)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *entry) snapshotLocked() []domain.Message {
	out := make([]domain.Message, len(e.sess.Messages))
	copy(out, e.sess.Messages)
	return out
}

// Members returns a consistent snapshot of the role-holding connections,
// in role priority order, with their current languages.
func (r *Registry) Members(sessionID string) []Member {
	e := r.lookup(sessionID)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()
	return e.membersLocked()
}

func (e *entry) membersLocked() []Member {
	var out []Member
	for _, role := range domain.Roles {
		conn := e.sess.Slots[role]
		if conn == "" {
			continue
		}
		out = append(out, Member{Conn: conn, Role: role, Lang: e.langs[conn]})
	}
	return out
}

// SetLanguage overwrites the language bound to conn. Role bindings are
// untouched. Returns false when the session or connection is unknown.
func (r *Registry) SetLanguage(sessionID string, conn domain.ConnID, lang string) bool {
	e := r.lookup(sessionID)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()

	if _, ok := e.langs[conn]; !ok {
		return false
	}
	e.langs[conn] = lang
	return true
}

// LanguageOf returns the language bound to conn in the session.
func (r *Registry) LanguageOf(sessionID string, conn domain.ConnID) (string, bool) {
	e := r.lookup(sessionID)
	if e == nil {
		return "", false
	}
	defer e.mu.Unlock()

	lang, ok := e.langs[conn]
	return lang, ok
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
