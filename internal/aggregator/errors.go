package aggregator

import (
	"errors"
	"fmt"
)

// CodeUpstreamFailure is the stable code carried by every aggregation failure.
const CodeUpstreamFailure = "upstream_failure"

// ErrUpstreamFailure matches every *Failure via errors.Is.
var ErrUpstreamFailure = errors.New("upstream failure")

const (
	StageResolve  = "resolve"
	StageMetadata = "metadata"
)

// Failure voids a whole aggregation. It carries no partial record.
type Failure struct {
	Code  string
	Stage string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s at %s: %v", f.Code, f.Stage, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is(err, ErrUpstreamFailure) match any Failure.
func (f *Failure) Is(target error) bool {
	return target == ErrUpstreamFailure
}
