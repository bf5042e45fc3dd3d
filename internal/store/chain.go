package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/evrule/internal/engine"
)

// ChainState summarises one recorded chain.
type ChainState struct {
	ChainID  string   `json:"chain_id"`
	Firings  []Firing `json:"firings,omitempty"`
	LastSeq  int64    `json:"last_seq"`
	Executed int      `json:"executed"`
	Aborted  int      `json:"aborted"`
	Refused  int      `json:"refused"`
	// FailedEffects counts effect rows carrying an error.
	FailedEffects int `json:"failed_effects"`
	// Halted is true when a firing was refused by the step quota.
	Halted bool `json:"halted"`
}

// GetChainState reads a chain and counts its outcomes.
func (s *Store) GetChainState(ctx context.Context, chainID string) (ChainState, error) {
	state := ChainState{ChainID: chainID}

	firings, err := s.ReadChain(ctx, chainID)
	if err != nil {
		return state, fmt.Errorf("get chain state: %w", err)
	}
	state.Firings = firings

	for _, f := range firings {
		if f.Seq > state.LastSeq {
			state.LastSeq = f.Seq
		}
		switch f.Outcome {
		case string(engine.OutcomeExecuted):
			state.Executed++
		case string(engine.OutcomeAborted):
			state.Aborted++
		case string(engine.OutcomeRefused):
			state.Refused++
			if strings.HasPrefix(f.Error, string(engine.ErrCodeChainQuota)) {
				state.Halted = true
			}
		}
		for _, e := range f.Effects {
			if e.Error != "" {
				state.FailedEffects++
			}
		}
	}

	return state, nil
}

// ListChains returns the chain IDs in the log, ordered by their first seq.
func (s *Store) ListChains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_id FROM firings
		GROUP BY chain_id
		ORDER BY MIN(seq) ASC, chain_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list chains: %w", err)
	}
	defer rows.Close()

	chains := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chain id: %w", err)
		}
		chains = append(chains, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chains: %w", err)
	}
	return chains, nil
}

// LastSeq returns the highest seq in the log, or 0 for an empty log. A
// dispatcher appending to the log starts its clock here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM firings`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
