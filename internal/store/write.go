package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/inklive/internal/wire"
)

// Direction says which boundary an entry crossed.
type Direction string

const (
	// DirOut is a message sent to the supervisor.
	DirOut Direction = "out"
	// DirIn is an event received from the supervisor.
	DirIn Direction = "in"
	// DirSink is a notification delivered to the UI sink.
	DirSink Direction = "sink"
)

// WriteOutbound journals a message sent to the supervisor.
//
// A compile message also records its session in the sessions table, in the
// same transaction. Re-journaling a session id is ignored.
func (s *Store) WriteOutbound(ctx context.Context, msg wire.Outbound) error {
	payload, err := marshalPayload(msg)
	if err != nil {
		return fmt.Errorf("write outbound: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write outbound: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq := s.nextSeq()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (seq, direction, kind, session_id, payload, at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, seq, string(DirOut), string(msg.Kind), msg.SessionID, payload, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("write outbound: insert entry: %w", err)
	}

	if msg.Kind == wire.KindCompile && msg.Instruction != nil {
		instr := msg.Instruction
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, namespace, purpose, started_seq, files)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, instr.SessionID, instr.Namespace, purposeOf(*instr), seq, len(instr.UpdatedFiles)); err != nil {
			return fmt.Errorf("write outbound: insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write outbound: commit: %w", err)
	}
	return nil
}

// WriteInbound journals an event received from the supervisor. Stale events
// are journaled too: the journal records what arrived, not what was accepted.
func (s *Store) WriteInbound(ctx context.Context, msg wire.Inbound) error {
	payload, err := marshalPayload(msg)
	if err != nil {
		return fmt.Errorf("write inbound: %w", err)
	}
	return s.writeEntry(ctx, DirIn, string(msg.Kind), msg.SessionID, payload)
}

// WriteSinkEvent journals a UI notification. payload may be nil.
func (s *Store) WriteSinkEvent(ctx context.Context, kind, sessionID string, payload any) error {
	data := "{}"
	if payload != nil {
		var err error
		if data, err = marshalPayload(payload); err != nil {
			return fmt.Errorf("write sink event: %w", err)
		}
	}
	return s.writeEntry(ctx, DirSink, kind, sessionID, data)
}

func (s *Store) writeEntry(ctx context.Context, dir Direction, kind, sessionID, payload string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (seq, direction, kind, session_id, payload, at_unix_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.nextSeq(), string(dir), kind, sessionID, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write %s entry: %w", dir, err)
	}
	return nil
}

func purposeOf(instr wire.CompileInstruction) string {
	switch {
	case instr.Export:
		return "export"
	case instr.Stats:
		return "stats"
	default:
		return "play"
	}
}

// marshalPayload converts v to compact JSON TEXT for storage.
// HTML escaping is disabled so ink source with <, > and & reads back as written.
func marshalPayload(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}
