package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/evrule/internal/ir"
)

// Top-level sections of a rules package.
const (
	SectionRuleSets = "EventHandlerTypes"
	SectionHosts    = "TechnoTypes"
)

// HostKey is the numbered key prefix binding rule sets to a host.
const HostKey = "EventHandler"

// Result is a compiled rules package.
type Result struct {
	RuleSets    []ir.RuleSet      `json:"rule_sets"`
	Hosts       []ir.Host         `json:"hosts,omitempty"`
	Diagnostics []ValidationError `json:"diagnostics,omitempty"`
}

// RuleSet returns the compiled rule set with the given name.
func (r *Result) RuleSet(name string) (ir.RuleSet, bool) {
	for _, rs := range r.RuleSets {
		if fold(rs.Name) == fold(name) {
			return rs, true
		}
	}
	return ir.RuleSet{}, false
}

// Compile reads both sections of a built CUE value. Sections are visited in
// source order. A missing section is empty.
func Compile(v cue.Value) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, cueError(err)
	}
	res := &Result{}

	if sec := v.LookupPath(cue.ParsePath(SectionRuleSets)); sec.Exists() {
		iter, err := sec.Fields()
		if err != nil {
			return nil, cueError(err)
		}
		for iter.Next() {
			rs, diags, err := CompileRuleSet(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			res.RuleSets = append(res.RuleSets, rs)
			res.Diagnostics = append(res.Diagnostics, diags...)
		}
	}

	if sec := v.LookupPath(cue.ParsePath(SectionHosts)); sec.Exists() {
		iter, err := sec.Fields()
		if err != nil {
			return nil, cueError(err)
		}
		for iter.Next() {
			h, err := CompileHost(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			if len(h.RuleSets) > 0 {
				res.Hosts = append(res.Hosts, h)
			}
		}
	}

	return res, nil
}

// CompileHost reads the rule set bindings of one TechnoTypes section:
// EventHandler0..N, or EventHandler when no numbered key exists. Other keys
// in the section belong to the host and are ignored.
func CompileHost(name string, v cue.Value) (ir.Host, error) {
	if err := v.Err(); err != nil {
		return ir.Host{}, cueError(err)
	}
	r := newReader(name, v)
	h := ir.Host{Name: name, RuleSets: dedupe(r.numbered(HostKey))}
	for _, d := range r.diags {
		if !d.IsWarning() {
			return ir.Host{}, &CompileError{Field: d.Field, Message: d.Message, Pos: v.Pos()}
		}
	}
	return h, nil
}

// CompileString compiles CUE source held in memory. filename is used in
// positions only.
func CompileString(filename, src string) (*Result, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}
	return Compile(v)
}

// LoadDir builds the CUE package in dir and compiles it.
func LoadDir(dir string) (*Result, error) {
	v, err := BuildDir(dir)
	if err != nil {
		return nil, err
	}
	return Compile(v)
}

// BuildDir loads and builds the CUE package in dir.
func BuildDir(dir string) (cue.Value, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return cue.Value{}, fmt.Errorf("rules directory: %w", err)
	}
	if !info.IsDir() {
		return cue.Value{}, fmt.Errorf("rules directory: %s is not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return cue.Value{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, cueError(inst.Err)
	}
	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, cueError(err)
	}
	return v, nil
}
