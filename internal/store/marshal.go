package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
)

// marshalParticipants converts the occupied slots to canonical JSON TEXT,
// e.g. {"Me":3,"They":7}.
func marshalParticipants(p engine.Participants) (string, error) {
	data, err := ir.MarshalCanonical(p.Canonical())
	if err != nil {
		return "", fmt.Errorf("marshal participants: %w", err)
	}
	return string(data), nil
}

// unmarshalParticipants parses stored participants JSON.
func unmarshalParticipants(s string) (map[string]int64, error) {
	out := map[string]int64{}
	if s == "" {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("unmarshal participants: %w", err)
	}
	return out, nil
}
