package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors or run outcomes.
//
//   - ErrNotFound: row does not exist
//   - ErrInvalidState: row is in the wrong state for the write (e.g. a run
//     that was already finalized)
//   - ErrConflict: a competing writer or lock holder won
//   - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("unavailable")
)
