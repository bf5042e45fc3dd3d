package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/ir"
)

// =============================================================================
// ValidationError Tests
// =============================================================================

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  ValidationError
		want string
	}{
		{
			name: "rule set and field",
			err:  ValidationError{Code: ErrBadThreshold, RuleSet: "Weaken", Field: "Me.Filter.HPPercentage", Message: "bad"},
			want: "[E103] Weaken.Me.Filter.HPPercentage: bad",
		},
		{
			name: "with line",
			err:  ValidationError{Code: ErrUnknownField, RuleSet: "R", Field: "X", Message: "unknown", Line: 7},
			want: "[E101] line 7: R.X: unknown",
		},
		{
			name: "field only",
			err:  ValidationError{Code: ErrUndefinedRuleSet, Field: "Tank", Message: "missing"},
			want: "[E112] Tank: missing",
		},
		{
			name: "bare",
			err:  ValidationError{Code: ErrInvalidValue, Message: "oops"},
			want: "[E102] oops",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]ValidationError{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]ValidationError{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}

// =============================================================================
// Cross-section Validation Tests
// =============================================================================

func TestValidate_CleanPackage(t *testing.T) {
	res, err := CompileString("rules.cue", `
		EventHandlerTypes: {
			Crush: {
				EventType: "WhenCrush"
				"They.Effect.Fire.Event": "Flattened"
			}
			Flat: {
				EventType: "Flattened"
				"Me.Effect.AttachEffect.Types": "Flat"
			}
			none: {}
		}
		TechnoTypes: Tank: {
			EventHandler0: "Crush"
			EventHandler1: "none"
		}
	`)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, Validate(res, engine.WellKnownNames()))
}

func TestValidate_Findings(t *testing.T) {
	res := &Result{
		RuleSets: []ir.RuleSet{
			{Name: "Deaf", Components: []ir.Component{{
				Target: ir.Target{Scope: ir.ScopeMe},
				Filter: &ir.Filter{IsAI: ir.Some(true)},
			}}},
			{Name: "Hollow", EventTypes: []string{"WhenCreated"}},
			{Name: "Shout", EventTypes: []string{"whencrush"}, Components: []ir.Component{{
				Target: ir.Target{Scope: ir.ScopeThey, Extended: ir.Transport},
				Effect: &ir.Effect{FireEvent: ir.Some("Nobody")},
			}}},
		},
		Hosts: []ir.Host{{Name: "Tank", RuleSets: []string{"shout", "Ghost", "NONE"}}},
	}

	errs := Validate(res, engine.WellKnownNames())
	require.Len(t, errs, 4)

	assert.Equal(t, ErrNoEventTypes, errs[0].Code)
	assert.Equal(t, "Deaf", errs[0].RuleSet)

	assert.Equal(t, ErrEmptyRuleSet, errs[1].Code)
	assert.Equal(t, "Hollow", errs[1].RuleSet)

	assert.Equal(t, ErrUnknownEventKind, errs[2].Code)
	assert.Equal(t, "They.Transport.Effect.Fire.Event", errs[2].Field)
	assert.True(t, errs[2].IsWarning())

	assert.Equal(t, ErrUndefinedRuleSet, errs[3].Code)
	assert.Contains(t, errs[3].Message, `"Ghost"`)
	assert.False(t, errs[3].IsWarning())
	assert.True(t, HasErrors(errs))
}
