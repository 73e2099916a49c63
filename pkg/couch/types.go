package couch

import (
	"net/http"
	"net/url"
)

const (
	// DefaultHost is used when an entry point receives an empty host.
	DefaultHost = "127.0.0.1"
	// DefaultPort is used when an entry point receives a zero port.
	DefaultPort = 5984

	// MethodCopy is the non-standard document copy method.
	MethodCopy = "COPY"

	jsonContentType = "application/json; charset=utf-8"
)

// Request is a handle-scoped request. Path is relative to the database URL.
type Request struct {
	Path   string
	Method string
	Body   []byte
	Query  url.Values
	Header http.Header
}

// Response is the raw body of a dispatched request and its resolved outcome.
type Response struct {
	StatusCode int
	Outcome    Outcome
	Body       []byte
}

// ListOptions filters ListAllDocuments. Nil fields are omitted from the
// query; a Limit pointing at zero is sent as limit=0.
type ListOptions struct {
	StartKey    any
	EndKey      any
	Limit       *int
	IncludeDocs bool
}

// PutOptions controls PutDocument.
type PutOptions struct {
	// BatchOK asks the server to acknowledge before the write is durable.
	BatchOK bool
}

// CopyOptions controls CopyDocument.
type CopyOptions struct {
	// Revision selects the source revision to copy.
	Revision string
}
