package store

import (
	"context"
	"database/sql"
	"fmt"
)

const firingColumns = `id, chain_id, seq, parent_seq, kind, host, ruleset, ruleset_hash,
	participants, outcome, aborted_at, error, engine_version, ir_version`

// ReadChain returns every firing of one chain with its effects.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the chain has no firings.
func (s *Store) ReadChain(ctx context.Context, chainID string) ([]Firing, error) {
	return s.queryFirings(ctx, "WHERE chain_id = ?", []any{chainID})
}

// ListFirings returns the firings matching an AIP-160 filter, e.g.
// `ruleset = "Weaken" AND outcome = "aborted"`. An empty filter lists the
// whole log. Ordering matches ReadChain.
func (s *Store) ListFirings(ctx context.Context, filter string) ([]Firing, error) {
	cond, err := parseFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("list firings: %w", err)
	}
	where := ""
	if cond.Clause != "" {
		where = "WHERE " + cond.Clause
	}
	return s.queryFirings(ctx, where, cond.Params)
}

func (s *Store) queryFirings(ctx context.Context, where string, args []any) ([]Firing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+firingColumns+`
		FROM firings
		`+where+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []Firing{}
	for rows.Next() {
		f, err := scanFiring(rows)
		if err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	// The connection pool holds one connection, so effects are read only
	// after the firing rows are released.
	rows.Close()

	for i := range firings {
		effects, err := s.readEffects(ctx, firings[i].ID)
		if err != nil {
			return nil, err
		}
		firings[i].Effects = effects
	}
	return firings, nil
}

func (s *Store) readEffects(ctx context.Context, firingID string) ([]Effect, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT component, via, target, error
		FROM effects
		WHERE firing_id = ?
		ORDER BY component ASC, target ASC
	`, firingID)
	if err != nil {
		return nil, fmt.Errorf("query effects: %w", err)
	}
	defer rows.Close()

	var effects []Effect
	for rows.Next() {
		var e Effect
		if err := rows.Scan(&e.Component, &e.Via, &e.Target, &e.Error); err != nil {
			return nil, fmt.Errorf("scan effect: %w", err)
		}
		effects = append(effects, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effects: %w", err)
	}
	return effects, nil
}

// scanFiring scans one firings row.
func scanFiring(rows *sql.Rows) (Firing, error) {
	var f Firing
	var participants string
	err := rows.Scan(
		&f.ID,
		&f.ChainID,
		&f.Seq,
		&f.ParentSeq,
		&f.Kind,
		&f.Host,
		&f.RuleSet,
		&f.RuleSetHash,
		&participants,
		&f.Outcome,
		&f.AbortedAt,
		&f.Error,
		&f.EngineVersion,
		&f.IRVersion,
	)
	if err != nil {
		return Firing{}, fmt.Errorf("scan firing: %w", err)
	}
	f.Participants, err = unmarshalParticipants(participants)
	if err != nil {
		return Firing{}, fmt.Errorf("scan firing %s: %w", f.ID, err)
	}
	return f, nil
}
