package inventory

import (
	"fmt"

	"github.com/yairfalse/peili/types"
)

// AuthError means token acquisition or refresh failed, or a call stayed
// unauthorized after one refresh. Fatal to the run at startup, fatal only to
// the specific call afterwards.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth failed: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response from the inventory store other than a
// handled 401.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("inventory store returned %d: %s", e.Status, e.Body)
}

// TimeoutError means a round trip exceeded its per-call budget. Never retried
// here; retry policy belongs to the caller.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// LoadError means the existing-state snapshot could not be fully retrieved.
// Partial results are discarded; reconciling against an incomplete snapshot
// would wrongly stale still-existing resources.
type LoadError struct {
	AssetType types.AssetType
	Page      int
	Err       error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading existing %s assets failed on page %d: %v", e.AssetType, e.Page, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// BatchWriteError means a write or mark-stale chunk failed. Remaining chunks
// of that call are abandoned.
type BatchWriteError struct {
	AssetType types.AssetType
	Chunk     int
	Err       error
}

func (e *BatchWriteError) Error() string {
	return fmt.Sprintf("batch write for %s failed on chunk %d: %v", e.AssetType, e.Chunk, e.Err)
}

func (e *BatchWriteError) Unwrap() error { return e.Err }
