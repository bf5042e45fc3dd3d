package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CompareOp is the comparison used by an HPThreshold.
type CompareOp string

const (
	OpLess         CompareOp = "<"
	OpLessEqual    CompareOp = "<="
	OpGreater      CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
	OpEqual        CompareOp = "="
	OpNotEqual     CompareOp = "!="
)

// BasisPoints is a ratio in units of 1/10000 (10000 = 100%).
type BasisPoints int64

// MaxRatio bounds a parsed threshold (10000% of max health).
const MaxRatio BasisPoints = 1_000_000

// HPThreshold compares an actor's health ratio against a fixed ratio.
//
// Written as "<=50%", ">0.25", "=100%" or a bare "30%" (which means "<=").
// Percent values accept up to two decimal places; values without a percent
// sign are fractions of one.
type HPThreshold struct {
	Op    CompareOp
	Ratio BasisPoints
}

// ParseHPThreshold parses the textual threshold form.
func ParseHPThreshold(s string) (HPThreshold, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return HPThreshold{}, fmt.Errorf("empty HP threshold")
	}

	op := OpLessEqual
	for _, candidate := range []CompareOp{OpLessEqual, OpGreaterEqual, OpNotEqual, "==", OpLess, OpGreater, OpEqual} {
		if strings.HasPrefix(raw, string(candidate)) {
			op = candidate
			raw = strings.TrimSpace(raw[len(candidate):])
			break
		}
	}
	if op == "==" {
		op = OpEqual
	}

	ratio, err := parseRatio(raw)
	if err != nil {
		return HPThreshold{}, fmt.Errorf("invalid HP threshold %q: %w", s, err)
	}
	return HPThreshold{Op: op, Ratio: ratio}, nil
}

// parseRatio converts "50%", "12.5%" or "0.25" into basis points without
// going through floating point.
func parseRatio(s string) (BasisPoints, error) {
	percent := strings.HasSuffix(s, "%")
	if percent {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if s == "" || s == "." {
		return 0, fmt.Errorf("missing value")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("bad number %q", s)
	}
	if w > int64(MaxRatio) {
		return 0, fmt.Errorf("%q exceeds %d%%", s, MaxRatio/100)
	}

	// Percent: 2 fractional digits map to basis points. Fraction: 4 digits.
	digits := 4
	scale := int64(10000)
	if percent {
		digits = 2
		scale = 100
	}
	if len(frac) > digits {
		return 0, fmt.Errorf("too many decimal places in %q", s)
	}
	f := int64(0)
	if frac != "" {
		f, err = strconv.ParseInt(frac+strings.Repeat("0", digits-len(frac)), 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("bad number %q", s)
		}
	}
	r := BasisPoints(w*scale + f)
	if r > MaxRatio {
		return 0, fmt.Errorf("%q exceeds %d%%", s, MaxRatio/100)
	}
	return r, nil
}

// Satisfied reports whether health/maxHealth satisfies the threshold.
// A non-positive maxHealth never satisfies it.
func (t HPThreshold) Satisfied(health, maxHealth int64) bool {
	if maxHealth <= 0 {
		return false
	}
	// health/max OP ratio/10000  <=>  health*10000 OP ratio*max
	lhs := health * 10000
	rhs := int64(t.Ratio) * maxHealth
	switch t.Op {
	case OpLess:
		return lhs < rhs
	case OpLessEqual:
		return lhs <= rhs
	case OpGreater:
		return lhs > rhs
	case OpGreaterEqual:
		return lhs >= rhs
	case OpEqual:
		return lhs == rhs
	case OpNotEqual:
		return lhs != rhs
	default:
		return false
	}
}

// String renders the threshold in its configuration form.
func (t HPThreshold) String() string {
	whole := int64(t.Ratio) / 100
	frac := int64(t.Ratio) % 100
	if frac == 0 {
		return fmt.Sprintf("%s%d%%", t.Op, whole)
	}
	return strings.TrimRight(fmt.Sprintf("%s%d.%02d", t.Op, whole, frac), "0") + "%"
}

// MarshalJSON encodes the configuration form.
func (t HPThreshold) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// UnmarshalJSON decodes the configuration form.
func (t *HPThreshold) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHPThreshold(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
