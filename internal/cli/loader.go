package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/evrule/internal/compiler"
	"github.com/roach88/evrule/internal/engine"
)

// LoadResult is a compiled rules package with every diagnostic found.
type LoadResult struct {
	Compiled *compiler.Result
	// Diagnostics holds per-section and cross-section diagnostics.
	Diagnostics []compiler.ValidationError
	FileCount   int
}

// Valid reports whether no diagnostic has error severity.
func (r *LoadResult) Valid() bool {
	return !compiler.HasErrors(r.Diagnostics)
}

// Warnings returns the warning diagnostics.
func (r *LoadResult) Warnings() []compiler.ValidationError {
	var out []compiler.ValidationError
	for _, d := range r.Diagnostics {
		if d.IsWarning() {
			out = append(out, d)
		}
	}
	return out
}

// LoadError is a failure to load a rules package at all.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadRules compiles the CUE package in dir and runs the cross-section
// checks against the built-in event kinds.
func LoadRules(dir string) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	res, err := compiler.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}

	diags := append([]compiler.ValidationError(nil), res.Diagnostics...)
	diags = append(diags, compiler.Validate(res, engine.WellKnownNames())...)

	return &LoadResult{Compiled: res, Diagnostics: diags, FileCount: len(files)}, nil
}

// convertCompileError keeps the CUE position of a compile error.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// loadErrorCode returns the code of err, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// Error codes shared by all commands. Rule diagnostics use the compiler's
// E1xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or compile failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeInvalid     = "E006" // Rules have error diagnostics
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadArgs     = "E008" // Invalid flag combination
	ErrCodeStore       = "E009" // Firing log error
)
