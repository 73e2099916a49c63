package couch

import (
	"errors"
	"fmt"
)

// Outcome is the semantic label a response status resolves to.
type Outcome string

const (
	OutcomeOK                  Outcome = "ok"
	OutcomeCreated             Outcome = "created"
	OutcomeAccepted            Outcome = "accepted"
	OutcomeNotFound            Outcome = "not-found"
	OutcomeConflict            Outcome = "conflict"
	OutcomePreconditionFailed  Outcome = "precondition-failed"
	OutcomeInternalServerError Outcome = "internal-server-error"
)

// outcomes must cover every status the server can answer with.
var outcomes = map[int]Outcome{
	200: OutcomeOK,
	201: OutcomeCreated,
	202: OutcomeAccepted,
	404: OutcomeNotFound,
	409: OutcomeConflict,
	412: OutcomePreconditionFailed,
	500: OutcomeInternalServerError,
}

// ErrUnmappedStatus marks a status code missing from the outcome table. It is
// a library defect, not a condition callers are expected to handle: treat it
// as a bug to report and do not retry the request.
var ErrUnmappedStatus = errors.New("couch: status code has no outcome mapping")

// UnmappedStatusError carries the offending status and request.
type UnmappedStatusError struct {
	StatusCode int
	Method     string
	URL        string
}

func (e *UnmappedStatusError) Error() string {
	return fmt.Sprintf("couch: status %d for %s %s has no outcome mapping", e.StatusCode, e.Method, e.URL)
}

func (e *UnmappedStatusError) Is(target error) bool {
	return target == ErrUnmappedStatus
}

// LookupOutcome resolves a status code through the fixed table.
func LookupOutcome(code int) (Outcome, bool) {
	o, ok := outcomes[code]
	return o, ok
}
