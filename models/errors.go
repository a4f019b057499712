package models

import "fmt"

// ValidationError is bad user input caught by the Composer. It is surfaced
// inline and never submitted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CapacityError is the server's queue-full rejection (errno 40). The
// server-provided message is surfaced verbatim and no entry is created.
type CapacityError struct {
	Message string
}

func (e *CapacityError) Error() string {
	return e.Message
}

// BuildError is a generic server-side failure during submission or polling.
// An affected entry transitions to Error and becomes retry-eligible.
type BuildError struct {
	Detail string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf(MsgFmt_BuildFailure, e.Detail)
}
