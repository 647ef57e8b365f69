package airquality

import (
	"errors"
	"fmt"
)

// Failure taxonomy for upstream fetches. Fetchers never leak raw transport
// errors; everything is wrapped into one of these so the orchestrator can
// decide whether to fall back.
var (
	ErrNotConfigured     = errors.New("source not configured")
	ErrNotFound          = errors.New("location not found")
	ErrUpstream          = errors.New("upstream error")
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// SourceError tags a failure with the source that produced it.
type SourceError struct {
	Source Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Fail wraps err as a typed failure of the given kind attributed to src.
// A nil err produces a bare typed failure.
func Fail(src Source, kind error, err error) error {
	if err == nil {
		return &SourceError{Source: src, Err: kind}
	}
	return &SourceError{Source: src, Err: fmt.Errorf("%w: %v", kind, err)}
}
