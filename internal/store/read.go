package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/armstrong/internal/ir"
)

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Session summarizes one recorded shell session.
type Session struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Label         string `json:"label,omitempty"`
	EngineVersion string `json:"engine_version"`
	Commands      int    `json:"commands"`
	HasSnapshot   bool   `json:"has_snapshot"`
}

// Snapshot is the working set stored at the end of a session.
type Snapshot struct {
	SessionID string     `json:"session_id"`
	Version   ir.Version `json:"version"`
	Hash      string     `json:"hash"`
	FDs       []ir.FD    `json:"fds"`
}

// ListSessions returns every session ordered by seq.
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.seq, s.label, s.engine_version,
		       (SELECT COUNT(*) FROM commands c WHERE c.session_id = s.id),
		       EXISTS (SELECT 1 FROM snapshots p WHERE p.session_id = s.id)
		FROM sessions s
		ORDER BY s.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Seq, &sess.Label, &sess.EngineVersion, &sess.Commands, &sess.HasSnapshot); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns one session summary.
// Returns ErrSessionNotFound if the ID is unknown.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.seq, s.label, s.engine_version,
		       (SELECT COUNT(*) FROM commands c WHERE c.session_id = s.id),
		       EXISTS (SELECT 1 FROM snapshots p WHERE p.session_id = s.id)
		FROM sessions s
		WHERE s.id = ?
	`, id).Scan(&sess.ID, &sess.Seq, &sess.Label, &sess.EngineVersion, &sess.Commands, &sess.HasSnapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %q: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %q: %w", id, err)
	}
	return sess, nil
}

// ReadCommands returns the commands of a session in the order they were
// appended. Returns an empty slice (not nil) for a session with no commands.
func (s *Store) ReadCommands(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command FROM commands
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	commands := []string{}
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		commands = append(commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}
	return commands, nil
}

// ReadSnapshot returns the stored working set of a session, FDs in stored
// order. Returns sql.ErrNoRows (wrapped) if the session has no snapshot.
func (s *Store) ReadSnapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	snap := Snapshot{SessionID: sessionID}
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT version, hash FROM snapshots WHERE session_id = ?
	`, sessionID).Scan(&version, &snap.Hash)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	snap.Version = ir.Version(version)

	rows, err := s.db.QueryContext(ctx, `
		SELECT lhs, rhs, version, trivial FROM snapshot_fds
		WHERE session_id = ?
		ORDER BY ord ASC
	`, sessionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot fds: %w", err)
	}
	defer rows.Close()

	snap.FDs = []ir.FD{}
	for rows.Next() {
		var lhsJSON, rhsJSON string
		var fdVersion int64
		var trivial bool
		if err := rows.Scan(&lhsJSON, &rhsJSON, &fdVersion, &trivial); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot fd: %w", err)
		}
		lhs, err := unmarshalAttrs(lhsJSON)
		if err != nil {
			return Snapshot{}, err
		}
		rhs, err := unmarshalAttrs(rhsJSON)
		if err != nil {
			return Snapshot{}, err
		}
		snap.FDs = append(snap.FDs, ir.FD{LHS: lhs, RHS: rhs, Version: ir.Version(fdVersion), Trivial: trivial})
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate snapshot fds: %w", err)
	}
	return snap, nil
}

// SessionsWithFD returns the IDs of sessions whose snapshot contains fd,
// ordered by session seq.
func (s *Store) SessionsWithFD(ctx context.Context, fd ir.FD) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.session_id FROM snapshot_fds f
		JOIN sessions s ON s.id = f.session_id
		WHERE f.fd_id = ?
		ORDER BY s.seq ASC
	`, ir.FDID(fd))
	if err != nil {
		return nil, fmt.Errorf("query sessions with fd: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session ids: %w", err)
	}
	return ids, nil
}
