package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError stops a rules package from compiling at all. Recoverable
// problems are ValidationErrors instead.
type CompileError struct {
	Field   string    // dotted path, or "cue" for evaluation errors
	Message string    // first error text
	Pos     token.Pos // zero when CUE gave no position
	More    int       // further CUE errors not shown

	err error
}

func (e *CompileError) Error() string {
	msg := e.Field + ": " + e.Message
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	if e.More > 0 {
		msg += fmt.Sprintf(" (and %d more)", e.More)
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.err }

// cueError turns a CUE evaluation error into a CompileError carrying the
// first positioned error of the list.
func cueError(err error) error {
	if err == nil {
		return nil
	}
	list := errors.Errors(err)
	for _, e := range list {
		if pos := errors.Positions(e); len(pos) > 0 {
			return &CompileError{
				Field:   "cue",
				Message: e.Error(),
				Pos:     pos[0],
				More:    len(list) - 1,
				err:     err,
			}
		}
	}
	return &CompileError{Field: "cue", Message: err.Error(), More: max(len(list)-1, 0), err: err}
}
