// Package domain defines the core types of the consult relay: sessions,
// roles, connections, and messages. No transport, storage, or translation
// logic lives here.
package domain

import "time"

// Role is one of the two fixed identities inside a session. Roles are
// assigned in priority order: the first connection to join an empty session
// becomes the doctor, the second becomes the patient.
type Role int

const (
	RoleDoctor Role = iota
	RolePatient

	// RoleCount is the fixed number of role slots per session.
	RoleCount
)

// Roles lists all roles in assignment priority order.
var Roles = [RoleCount]Role{RoleDoctor, RolePatient}

func (r Role) String() string {
	switch r {
	case RoleDoctor:
		return "doctor"
	case RolePatient:
		return "patient"
	default:
		return "unknown"
	}
}

// ParseRole returns the role named by s, or ok=false.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "doctor":
		return RoleDoctor, true
	case "patient":
		return RolePatient, true
	default:
		return 0, false
	}
}

// ConnID identifies a live transport connection. It exists only while the
// link is open; identity is the transient handle, nothing more.
type ConnID string

// Message is one entry in a session's ordered log. Immutable once created;
// it records the sender's original text and source language so that replay
// can re-translate it for any future joiner.
type Message struct {
	ID         string    `json:"id"`
	SenderRole Role      `json:"-"`
	Text       string    `json:"text"`
	SourceLang string    `json:"sourceLang"`
	Origin     ConnID    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Session is a two-party conversational context. Role slots and the message
// log are owned by the session registry; nothing outside it mutates them.
type Session struct {
	ID       string
	Slots    [RoleCount]ConnID // empty string = unoccupied
	Messages []Message
}

// Occupied reports how many role slots hold a live connection.
func (s *Session) Occupied() int {
	n := 0
	for _, c := range s.Slots {
		if c != "" {
			n++
		}
	}
	return n
}

// Members returns the connection ids currently holding a role, in role
// priority order.
func (s *Session) Members() []ConnID {
	var out []ConnID
	for _, c := range s.Slots {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
