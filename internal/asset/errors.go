package asset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when a state machine is asked to make
	// a move its current state does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrTiersExhausted is returned when every thumbnail tier failed.
	ErrTiersExhausted = errors.New("all thumbnail tiers failed")

	// ErrCapacityExceeded names the capacity condition of the bounded queue
	// and cache. Both resolve it by policy (waiting or evicting), so it is
	// never returned to callers; the spatial index has no capacity limit.
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

func transitionError(id, from, to string) error {
	return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, id, from, to)
}

// FetchError is a network or HTTP failure.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Temporary reports whether retrying might succeed.
func (e *FetchError) Temporary() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// DecodeError is a corrupt or unsupported payload.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CacheError means the local store is unavailable. Callers treat it as a miss.
type CacheError struct {
	Op  string
	ID  string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("local cache %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
