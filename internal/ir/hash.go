package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows a future
// algorithm change without colliding with stored values.
const (
	DomainRuleSet      = "evrule/ruleset/v1"
	DomainParticipants = "evrule/participants/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash is the content hash of a compiled rule set. Two loads of the
// same configuration produce the same hash; it is recorded with each firing
// so log entries can be matched to the rules that produced them.
func RuleSetHash(rs RuleSet) (string, error) {
	canonical, err := MarshalCanonical(rs)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// ParticipantsHash hashes a scope → actor-id mapping. Used by the chain
// guard to recognise a rule set re-firing for the same participants.
func ParticipantsHash(participants map[string]any) (string, error) {
	canonical, err := MarshalCanonical(participants)
	if err != nil {
		return "", fmt.Errorf("ParticipantsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainParticipants, canonical), nil
}

// MustRuleSetHash is like RuleSetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleSetHash(rs RuleSet) string {
	h, err := RuleSetHash(rs)
	if err != nil {
		panic(err)
	}
	return h
}
