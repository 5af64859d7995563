package atlas

import "github.com/pkg/errors"

// ProgrammingError marks a precondition violation: operating on a
// double-freed state, a state or space information that belongs to
// another atlas, or any other caller contract breach. Unlike numerical failures and geometric stop
// conditions, these are never expected in correct code and are not
// meant to be recovered from.
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
	errInvalidManifoldDims = errors.New("atlas: manifold requires 0 <= m < n")
	errNilConstraint       = errors.New("atlas: constraint function and jacobian must be non-nil")
	errOriginNotOnManifold = errors.New("atlas: chart origin does not satisfy ||F(x)|| <= projection tolerance")
	errRankDeficient       = errors.New("atlas: jacobian is rank deficient below rank tolerance")
	errProjectionFailed    = errors.New("atlas: projection did not converge within max iterations")
	errAngularValidity     = errors.New("atlas: tangent frame rotated past alpha relative to chart origin")
	errRetryBudgetExceeded = errors.New("atlas: sampling retry budget exceeded")
	errDoubleFree          = newProgrammingError("atlas: state freed more than once")
	errStateOwnedElsewhere = newProgrammingError("atlas: state was not allocated by this atlas")

	errForeignSpaceInformation = newProgrammingError("atlas: space information was not constructed from this atlas")
)

// StopReason explains why followManifold stopped walking the
// manifold. Only errProjectionFailed-class failures are errors;
// everything else (collision, chart-invalid, too-far, reached) is a
// normal geometric outcome, not an error.
type StopReason int

const (
	StopReached StopReason = iota
	StopCollision
	StopChartInvalid
	StopTooFar
	StopProjectionFailed
)

func (r StopReason) String() string {
	switch r {
	case StopReached:
		return "reached"
	case StopCollision:
		return "collision"
	case StopChartInvalid:
		return "chart-invalid"
	case StopTooFar:
		return "too-far"
	case StopProjectionFailed:
		return "projection-failed"
	default:
		return "unknown"
	}
}
