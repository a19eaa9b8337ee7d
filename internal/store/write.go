package store

import (
	"context"
	"fmt"

	"github.com/roach88/armstrong/internal/ir"
)

// CreateSession registers a new session with the next session seq.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - reopening an existing
// session ID is silently ignored.
func (s *Store) CreateSession(ctx context.Context, id, label string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, seq, label, engine_version, format_version)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions), ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label, ir.EngineVersion, ir.FormatVersion)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// AppendCommand records command as the next command of a session and
// returns its seq (1-based within the session).
//
// Note: The session must exist (foreign key constraint).
func (s *Store) AppendCommand(ctx context.Context, sessionID, command string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append command: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM commands WHERE session_id = ?
	`, sessionID).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("append command: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commands (session_id, seq, command) VALUES (?, ?, ?)
	`, sessionID, seq, command)
	if err != nil {
		return 0, fmt.Errorf("append command: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append command: commit: %w", err)
	}
	return seq, nil
}

// WriteSnapshot replaces the stored working set of a session.
//
// FDs are stored in the given order with their canonical sides, content
// IDs, versions and trivial flags. The snapshot hash ignores order and
// metadata (see ir.SnapshotHash).
func (s *Store) WriteSnapshot(ctx context.Context, sessionID string, version ir.Version, fds []ir.FD) error {
	hash, err := ir.SnapshotHash(fds)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_fds WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("write snapshot: clear fds: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, version, fd_count, hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			version = excluded.version,
			fd_count = excluded.fd_count,
			hash = excluded.hash
	`, sessionID, int64(version), len(fds), hash)
	if err != nil {
		return fmt.Errorf("write snapshot: upsert: %w", err)
	}

	for i, fd := range fds {
		lhs, err := marshalAttrs(fd.LHS)
		if err != nil {
			return fmt.Errorf("write snapshot: fd %d: %w", i, err)
		}
		rhs, err := marshalAttrs(fd.RHS)
		if err != nil {
			return fmt.Errorf("write snapshot: fd %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot_fds (session_id, ord, fd_id, lhs, rhs, version, trivial)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sessionID, i, ir.FDID(fd), lhs, rhs, int64(fd.Version), fd.Trivial)
		if err != nil {
			return fmt.Errorf("write snapshot: insert fd %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}
	return nil
}
