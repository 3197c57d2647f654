package otelkit

import (
	"errors"
	"fmt"
)

// ErrAlreadyInitialized is returned by Setup when a pipeline has already been
// installed in this process. The existing installation is left untouched.
var ErrAlreadyInitialized = errors.New("otelkit: already initialized")

// UnsupportedSignalError is returned by Setup when an export pipeline is
// requested for a signal without an exporter implementation.
type UnsupportedSignalError struct {
	Signal Signal
}

func (e *UnsupportedSignalError) Error() string {
	return fmt.Sprintf("otelkit: signal %q is not supported", e.Signal)
}
