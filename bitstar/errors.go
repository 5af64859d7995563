package bitstar

import "github.com/pkg/errors"

// ProgrammingError marks a caller contract violation on a vertex:
// operating on a pruned vertex, double-parenting a root, removing a
// child that was never added, or encountering a stale child
// back-reference. These are never expected from a correct planner and
// are not meant to be recovered from.
type ProgrammingError struct {
	msg string
}

func (e *ProgrammingError) Error() string { return e.msg }

func newProgrammingError(msg string) error {
	return &ProgrammingError{msg: msg}
}

// IsProgrammingError reports whether err (or something it wraps) is a
// ProgrammingError.
func IsProgrammingError(err error) bool {
	var pe *ProgrammingError
	return errors.As(err, &pe)
}

var (
	errVertexPruned      = newProgrammingError("bitstar: operation on a pruned vertex")
	errAlreadyHasParent  = newProgrammingError("bitstar: vertex already has a parent")
	errIsRoot            = newProgrammingError("bitstar: root vertex cannot take a parent")
	errNoParent          = newProgrammingError("bitstar: vertex has no parent to remove")
	errChildNotFound     = newProgrammingError("bitstar: child not found among vertex's children")
	errStaleChildRef     = newProgrammingError("bitstar: child's back-reference to its parent is stale")
)
