package store

import (
	"reflect"
	"testing"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		filter     string
		wantClause string
		wantParams []any
	}{
		{"", "", nil},
		{"   ", "", nil},
		{`ruleset = "Weaken"`, "ruleset = ?", []any{"Weaken"}},
		{`seq > 10`, "seq > ?", []any{int64(10)}},
		{`kind = "WhenCrush" AND outcome = "aborted"`, "(kind = ? AND outcome = ?)", []any{"WhenCrush", "aborted"}},
		{`host = "Tank" OR host = "Apc"`, "(host = ? OR host = ?)", []any{"Tank", "Apc"}},
		{`NOT outcome = "refused"`, "NOT outcome = ?", []any{"refused"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := parseFilter(tt.filter)
			if err != nil {
				t.Fatalf("parseFilter(%q) failed: %v", tt.filter, err)
			}
			if got.Clause != tt.wantClause {
				t.Errorf("Clause = %q, want %q", got.Clause, tt.wantClause)
			}
			if !reflect.DeepEqual(got.Params, tt.wantParams) {
				t.Errorf("Params = %#v, want %#v", got.Params, tt.wantParams)
			}
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	for _, filter := range []string{
		`ruleset =`,
		`participants = "x"`,
		`ruleset:"Weaken"`,
	} {
		if _, err := parseFilter(filter); err == nil {
			t.Errorf("parseFilter(%q) expected error", filter)
		}
	}
}
