package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"
)

// reader reads dotted configuration keys out of one CUE section.
//
// A key such as "Me.Filter.HPPercentage" may be written flat as a quoted
// field or nested as Me: Filter: HPPercentage. The flat form wins when both
// exist. Every key read is remembered so leftovers can be reported.
type reader struct {
	v       cue.Value
	section string
	used    map[string]bool
	diags   []ValidationError
}

func newReader(section string, v cue.Value) *reader {
	return &reader{v: v, section: section, used: make(map[string]bool)}
}

func (r *reader) lookup(key string) (cue.Value, bool) {
	val := r.v.LookupPath(cue.MakePath(cue.Str(key)))
	if !val.Exists() {
		p := cue.ParsePath(key)
		if p.Err() != nil {
			return cue.Value{}, false
		}
		val = r.v.LookupPath(p)
	}
	// A struct is a parent of nested keys, never a scalar setting.
	if !val.Exists() || val.IncompleteKind() == cue.StructKind {
		return cue.Value{}, false
	}
	r.used[key] = true
	return val, true
}

func (r *reader) report(code, key, msg string) {
	r.diags = append(r.diags, ValidationError{
		Code:     code,
		Message:  msg,
		RuleSet:  r.section,
		Field:    key,
		Severity: SeverityError,
	})
}

func (r *reader) warn(code, key, msg string) {
	r.diags = append(r.diags, ValidationError{
		Code:     code,
		Message:  msg,
		RuleSet:  r.section,
		Field:    key,
		Severity: SeverityWarning,
	})
}

// str reads a string scalar. Numbers and bools are accepted in their
// literal form.
func (r *reader) str(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}
	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return "", false
		}
		return strings.TrimSpace(s), true
	case cue.IntKind, cue.FloatKind, cue.NumberKind, cue.BoolKind:
		b, err := v.MarshalJSON()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return "", false
		}
		return string(b), true
	default:
		r.report(ErrInvalidValue, key, fmt.Sprintf("expected a string, got %v", v.IncompleteKind()))
		return "", false
	}
}

// boolean reads a bool. Strings yes/no/true/false/1/0 are accepted.
func (r *reader) boolean(key string) (bool, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return false, false
	}
	if v.IncompleteKind() == cue.BoolKind {
		b, err := v.Bool()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return false, false
		}
		return b, true
	}
	s, err := v.String()
	if err != nil {
		r.report(ErrInvalidValue, key, fmt.Sprintf("expected a bool, got %v", v.IncompleteKind()))
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, true
	case "no", "n", "false", "0":
		return false, true
	}
	r.report(ErrInvalidValue, key, fmt.Sprintf("expected a bool, got %q", s))
	return false, false
}

// integer reads an int64.
func (r *reader) integer(key string) (int64, bool) {
	v, ok := r.lookup(key)
	if !ok {
		return 0, false
	}
	if v.IncompleteKind() == cue.IntKind {
		n, err := v.Int64()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return 0, false
		}
		return n, true
	}
	s, err := v.String()
	if err == nil {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return n, true
		}
	}
	r.report(ErrInvalidValue, key, fmt.Sprintf("expected an integer, got %v", v.IncompleteKind()))
	return 0, false
}

// list reads a string list written either as a CUE list or a comma
// separated string. Empty entries are dropped.
func (r *reader) list(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var raw []string
	switch v.IncompleteKind() {
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return nil
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				r.report(ErrInvalidValue, key, "list entries must be strings")
				return nil
			}
			raw = append(raw, s)
		}
	case cue.StringKind:
		s, _ := v.String()
		raw = strings.Split(s, ",")
	default:
		r.report(ErrInvalidValue, key, fmt.Sprintf("expected a list, got %v", v.IncompleteKind()))
		return nil
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// intList reads an integer list written as a CUE list or a comma
// separated string.
func (r *reader) intList(key string) []int64 {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []int64
	switch v.IncompleteKind() {
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			r.report(ErrInvalidValue, key, err.Error())
			return nil
		}
		for iter.Next() {
			n, err := iter.Value().Int64()
			if err != nil {
				r.report(ErrInvalidValue, key, "list entries must be integers")
				return nil
			}
			out = append(out, n)
		}
	case cue.StringKind:
		s, _ := v.String()
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				r.report(ErrInvalidValue, key, fmt.Sprintf("bad integer %q", part))
				return nil
			}
			out = append(out, n)
		}
	default:
		r.report(ErrInvalidValue, key, fmt.Sprintf("expected a list, got %v", v.IncompleteKind()))
		return nil
	}
	return out
}

// numbered reads prefix0, prefix1, ... up to the first gap. The bare prefix
// is consulted only when no numbered entry exists. Each entry may itself be
// a list.
func (r *reader) numbered(prefix string) []string {
	var out []string
	for i := 0; ; i++ {
		key := prefix + strconv.Itoa(i)
		if _, ok := r.lookup(key); !ok {
			break
		}
		out = append(out, r.list(key)...)
	}
	if len(out) > 0 {
		return out
	}
	return r.list(prefix)
}

// leftovers reports every leaf key of the section that was never read.
// Numbered keys beyond a gap are leftovers too.
func (r *reader) leftovers() {
	keys := make(map[string]token.Pos)
	flatten(r.v, "", keys)

	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		if r.used[k] {
			continue
		}
		r.warn(ErrUnknownField, k, "unknown field is ignored")
		if pos := keys[k]; pos.IsValid() {
			r.diags[len(r.diags)-1].Line = pos.Line()
		}
	}
}

// flatten collects dotted keys for every non-struct leaf under v.
func flatten(v cue.Value, prefix string, out map[string]token.Pos) {
	iter, err := v.Fields()
	if err != nil {
		return
	}
	for iter.Next() {
		key := iter.Label()
		if prefix != "" {
			key = prefix + "." + key
		}
		child := iter.Value()
		if child.IncompleteKind() == cue.StructKind {
			flatten(child, key, out)
			continue
		}
		out[key] = child.Pos()
	}
}
