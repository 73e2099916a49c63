// Package couch provides a lightweight client for a CouchDB-style document
// database reached over HTTP. A Handle names a database on a server; the
// Client dispatches one request per call, resolves the response status
// through a fixed outcome table, and turns each documented failure into a
// typed error (DbNotFoundError, DbAlreadyExistsError, DocumentNotFoundError,
// DocumentConflictError, IllegalDatabaseNameError). Statuses an operation does
// not declare surface as UnexpectedResponseError. Document bodies travel as
// raw JSON bytes; encoding and decoding stay with the caller.
package couch
