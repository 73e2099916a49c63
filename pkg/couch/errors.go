package couch

import (
	"errors"
	"fmt"
)

var (
	// ErrDatabase is matched by every database-level error.
	ErrDatabase = errors.New("couch: database error")
	// ErrDocument is matched by every document-level error.
	ErrDocument = errors.New("couch: document error")
)

// UnexpectedResponseError is returned when an operation receives a mapped
// status it does not declare. ErrorType and Reason come from the server's
// error envelope when one is present.
type UnexpectedResponseError struct {
	StatusCode int
	Response   []byte
	ErrorType  string
	Reason     string
}

func (e *UnexpectedResponseError) Error() string {
	if e.ErrorType != "" {
		return fmt.Sprintf("couch: unexpected response status %d: %s (%s)", e.StatusCode, e.ErrorType, e.Reason)
	}
	return fmt.Sprintf("couch: unexpected response status %d", e.StatusCode)
}

// DbNotFoundError reports a database that does not exist.
type DbNotFoundError struct {
	URI string
}

func (e *DbNotFoundError) Error() string {
	return "couch: database not found: " + e.URI
}

func (e *DbNotFoundError) Is(target error) bool { return target == ErrDatabase }

// DbAlreadyExistsError reports a create on an existing database.
type DbAlreadyExistsError struct {
	URI string
}

func (e *DbAlreadyExistsError) Error() string {
	return "couch: database already exists: " + e.URI
}

func (e *DbAlreadyExistsError) Is(target error) bool { return target == ErrDatabase }

// IllegalDatabaseNameError is inferred from a 500 on a database-scoped call.
// Other server faults also answer 500, so the classification is a heuristic.
type IllegalDatabaseNameError struct {
	Name string
	URI  string
}

func (e *IllegalDatabaseNameError) Error() string {
	return fmt.Sprintf("couch: illegal database name %q", e.Name)
}

// DocumentNotFoundError reports a missing document.
type DocumentNotFoundError struct {
	DB string
	ID string
}

func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("couch: document %q not found in %s", e.ID, e.DB)
}

func (e *DocumentNotFoundError) Is(target error) bool { return target == ErrDocument }

// DocumentConflictError reports a write rejected because of a stale or
// missing revision. Doc is the body the caller tried to store.
type DocumentConflictError struct {
	ID  string
	Doc []byte
}

func (e *DocumentConflictError) Error() string {
	return fmt.Sprintf("couch: document %q update conflict", e.ID)
}

func (e *DocumentConflictError) Is(target error) bool { return target == ErrDocument }

// ErrorType returns the server's short error type (e.g. "conflict") when err
// is an UnexpectedResponseError, and "" otherwise.
func ErrorType(err error) string {
	var unexpected *UnexpectedResponseError
	if errors.As(err, &unexpected) {
		return unexpected.ErrorType
	}
	return ""
}
