package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/inklive/internal/wire"
)

// Entry is one journaled message or notification.
type Entry struct {
	Seq       int64     `json:"seq"`
	Direction Direction `json:"direction"`
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	Payload   string    `json:"payload"`
	At        time.Time `json:"at"`
}

// Session is one journaled compile request.
type Session struct {
	ID         string `json:"id"`
	Namespace  string `json:"namespace"`
	Purpose    string `json:"purpose"`
	StartedSeq int64  `json:"started_seq"`
	Files      int    `json:"files"`
}

// Filter narrows ReadEntries. Zero fields match everything.
type Filter struct {
	SessionID string
	Direction Direction
	AfterSeq  int64
	Limit     int
}

// ReadEntries returns journal entries matching f.
// Results are ordered deterministically: ORDER BY seq ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEntries(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Direction != "" {
		where = append(where, "direction = ?")
		args = append(args, string(f.Direction))
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT seq, direction, kind, session_id, payload, at_unix_ms FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ReadSessions returns every journaled session, oldest first.
func (s *Store) ReadSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, purpose, started_seq, files
		FROM sessions
		ORDER BY started_seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Namespace, &sess.Purpose, &sess.StartedSeq, &sess.Files); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session by id.
// Returns sql.ErrNoRows (wrapped) if it was never journaled.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, namespace, purpose, started_seq, files
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Namespace, &sess.Purpose, &sess.StartedSeq, &sess.Files)
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ReadInbound decodes the journaled supervisor events, optionally for one
// session, for inspecting a run.
func (s *Store) ReadInbound(ctx context.Context, sessionID string) ([]wire.Inbound, error) {
	entries, err := s.ReadEntries(ctx, Filter{SessionID: sessionID, Direction: DirIn})
	if err != nil {
		return nil, err
	}
	out := make([]wire.Inbound, 0, len(entries))
	for _, e := range entries {
		var msg wire.Inbound
		if err := json.Unmarshal([]byte(e.Payload), &msg); err != nil {
			return nil, fmt.Errorf("decode inbound seq %d: %w", e.Seq, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e   Entry
		dir string
		at  int64
	)
	if err := rows.Scan(&e.Seq, &dir, &e.Kind, &e.SessionID, &e.Payload, &at); err != nil {
		return Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Direction = Direction(dir)
	e.At = time.UnixMilli(at).UTC()
	return e, nil
}
