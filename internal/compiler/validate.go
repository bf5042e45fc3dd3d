package compiler

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/evrule/internal/ir"
)

// Validation codes (E100-E199).
const (
	// Section shape (E101-E109)
	ErrUnknownField  = "E101" // key not read by any check or effect
	ErrInvalidValue  = "E102" // wrong CUE kind or unparsable scalar
	ErrBadThreshold  = "E103" // HPPercentage does not parse
	ErrUnknownFlag   = "E104" // unknown token in a flag list
	ErrUnknownRank   = "E105" // Veterancy.Set is not a rank
	ErrUnknownScope  = "E106" // Owner.Transfer is not Me or They
	ErrParallelLists = "E107" // AttachEffect.Durations length differs from Types

	// Cross-section (E110-E119)
	ErrNoEventTypes     = "E110" // rule set listens to nothing
	ErrUnknownEventKind = "E111" // kind neither well-known nor listened to
	ErrUndefinedRuleSet = "E112" // host references a missing rule set
	ErrEmptyRuleSet     = "E113" // rule set has no defined components
)

// Severity of a ValidationError.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is a non-fatal diagnostic about rule configuration.
// Errors leave the offending check or effect unset; warnings change nothing.
type ValidationError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	RuleSet  string `json:"ruleset,omitempty"`
	Field    string `json:"field,omitempty"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	var where string
	switch {
	case e.RuleSet != "" && e.Field != "":
		where = e.RuleSet + "." + e.Field
	case e.RuleSet != "":
		where = e.RuleSet
	default:
		where = e.Field
	}
	if e.Line > 0 {
		where = fmt.Sprintf("line %d: %s", e.Line, where)
	}
	if where == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, where, e.Message)
}

// IsWarning reports whether the diagnostic is only a warning.
func (e ValidationError) IsWarning() bool { return e.Severity == SeverityWarning }

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []ValidationError) bool {
	return slices.ContainsFunc(diags, func(d ValidationError) bool { return !d.IsWarning() })
}

// Validate runs the cross-section checks over a compiled result. Per-section
// diagnostics are already in res.Diagnostics and are not repeated.
func Validate(res *Result, wellKnown []string) []ValidationError {
	var errs []ValidationError

	defined := make(map[string]bool)
	listened := make(map[string]bool)
	for _, name := range wellKnown {
		listened[fold(name)] = true
	}
	for _, rs := range res.RuleSets {
		defined[fold(rs.Name)] = true
		for _, k := range rs.EventTypes {
			listened[fold(k)] = true
		}
	}

	for _, rs := range res.RuleSets {
		if strings.EqualFold(rs.Name, ir.NoneName) {
			continue
		}
		if len(rs.EventTypes) == 0 {
			errs = append(errs, ValidationError{
				Code:     ErrNoEventTypes,
				Message:  "rule set listens to no event kind and can never fire",
				RuleSet:  rs.Name,
				Field:    "EventType",
				Severity: SeverityWarning,
			})
		}
		if len(rs.Components) == 0 {
			errs = append(errs, ValidationError{
				Code:     ErrEmptyRuleSet,
				Message:  "rule set has no defined components",
				RuleSet:  rs.Name,
				Severity: SeverityWarning,
			})
		}
		for _, c := range rs.Components {
			if c.Effect == nil {
				continue
			}
			kind, ok := c.Effect.FireEvent.Get()
			if ok && !listened[fold(kind)] {
				errs = append(errs, ValidationError{
					Code:     ErrUnknownEventKind,
					Message:  fmt.Sprintf("fires %q, which no rule set listens to", kind),
					RuleSet:  rs.Name,
					Field:    c.Target.KeyPrefix() + ".Effect.Fire.Event",
					Severity: SeverityWarning,
				})
			}
		}
	}

	for _, h := range res.Hosts {
		for _, name := range h.RuleSets {
			if strings.EqualFold(name, ir.NoneName) || defined[fold(name)] {
				continue
			}
			errs = append(errs, ValidationError{
				Code:     ErrUndefinedRuleSet,
				Message:  fmt.Sprintf("host %q binds undefined rule set %q", h.Name, name),
				Field:    h.Name,
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// fold matches the registry's case-insensitive name keys.
func fold(s string) string { return cases.Fold().String(strings.TrimSpace(s)) }
