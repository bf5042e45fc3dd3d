package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
)

var _ engine.Recorder = (*Store)(nil)

// RecordFiring appends one firing and its effect rows in a single
// transaction. A firing already recorded for the same (chain_id, seq) is
// silently ignored, so retried recording is idempotent.
func (s *Store) RecordFiring(ctx context.Context, r engine.FiringResult) error {
	participants, err := marshalParticipants(r.Participants)
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record firing: begin: %w", err)
	}
	defer tx.Rollback()

	id := s.newID()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO firings
		(id, chain_id, seq, parent_seq, kind, host, ruleset, ruleset_hash,
		 participants, outcome, aborted_at, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chain_id, seq) DO NOTHING
	`,
		id,
		r.ChainID,
		r.Seq,
		r.ParentSeq,
		r.Kind,
		r.Host,
		r.RuleSet,
		r.RuleSetHash,
		participants,
		string(r.Outcome),
		r.AbortedAt,
		errorText(r.Err),
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record firing: %w", err)
	}
	if n == 0 {
		// Already recorded.
		return nil
	}

	if err := writeEffects(ctx, tx, id, r.Effects); err != nil {
		return fmt.Errorf("record firing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record firing: commit: %w", err)
	}
	return nil
}

func writeEffects(ctx context.Context, tx *sql.Tx, firingID string, effects []engine.EffectRecord) error {
	for _, e := range effects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO effects (firing_id, component, via, target, error)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, firingID, e.Component, e.Via.String(), int64(e.Target), e.Error)
		if err != nil {
			return fmt.Errorf("write effect %d: %w", e.Component, err)
		}
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
