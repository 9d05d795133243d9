package store

import (
	"sync"
	"time"

	"github.com/soyeahso/medbridge/internal/domain"
)

// Archive persists the original text of relayed messages. Appends are
// best-effort side effects off the relay's hot path; reads serve the
// transcript HTTP API, not replay.
type Archive interface {
	Append(sessionID string, msg domain.Message) error
	ListOrdered(sessionID string) ([]ArchivedMessage, error)
}

// ArchivedMessage is one durable transcript row, in arrival order.
type ArchivedMessage struct {
	MessageID  string    `json:"messageId"`
	SessionID  string    `json:"sessionId"`
	SenderRole string    `json:"senderRole"`
	Text       string    `json:"text"`
	SourceLang string    `json:"sourceLang"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SQLiteArchive implements Archive on the transcript table.
type SQLiteArchive struct {
	db *DB
}

// NewSQLiteArchive creates an archive using the given database.
func NewSQLiteArchive(db *DB) *SQLiteArchive {
	return &SQLiteArchive{db: db}
}

// Append inserts one transcript row. Duplicate message ids are ignored so a
// retried append cannot double-write.
func (a *SQLiteArchive) Append(sessionID string, msg domain.Message) error {
	_, err := a.db.sql.Exec(
		`INSERT INTO transcript (message_id, session_id, sender_role, text, source_lang, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO NOTHING`,
		msg.ID, sessionID, msg.SenderRole.String(), msg.Text, msg.SourceLang,
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListOrdered returns all transcript rows for a session in arrival order.
func (a *SQLiteArchive) ListOrdered(sessionID string) ([]ArchivedMessage, error) {
	rows, err := a.db.sql.Query(
		`SELECT message_id, session_id, sender_role, text, source_lang, created_at
		 FROM transcript WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		var createdAt string
		if err := rows.Scan(&m.MessageID, &m.SessionID, &m.SenderRole, &m.Text, &m.SourceLang, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MemoryArchive is an in-memory Archive for tests and store.backend=memory.
type MemoryArchive struct {
	mu   sync.Mutex
	rows map[string][]ArchivedMessage
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{rows: make(map[string][]ArchivedMessage)}
}

func (a *MemoryArchive) Append(sessionID string, msg domain.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.rows[sessionID] {
		if existing.MessageID == msg.ID {
			return nil
		}
	}
	a.rows[sessionID] = append(a.rows[sessionID], ArchivedMessage{
		MessageID:  msg.ID,
		SessionID:  sessionID,
		SenderRole: msg.SenderRole.String(),
		Text:       msg.Text,
		SourceLang: msg.SourceLang,
		CreatedAt:  msg.CreatedAt,
	})
	return nil
}

func (a *MemoryArchive) ListOrdered(sessionID string) ([]ArchivedMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ArchivedMessage, len(a.rows[sessionID]))
	copy(out, a.rows[sessionID])
	return out, nil
}
