package couchapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ServerError is the error envelope the server attaches to failed requests.
type ServerError struct {
	Type   string `json:"error"`
	Reason string `json:"reason"`
}

// DocRef is the acknowledgement returned by document writes.
type DocRef struct {
	OK  bool   `json:"ok"`
	ID  string `json:"id"`
	Rev string `json:"rev"`
}

// ParseError extracts the {"error","reason"} envelope from body. The boolean
// is false when the body is not a JSON object or carries no error field.
func ParseError(body []byte) (ServerError, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ServerError{}, false
	}
	var env ServerError
	if err := json.Unmarshal(trimmed, &env); err != nil || env.Type == "" {
		return ServerError{}, false
	}
	return env, true
}

// ParseDocRef decodes a write acknowledgement.
func ParseDocRef(body []byte) (DocRef, error) {
	var ref DocRef
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ref, fmt.Errorf("couchapi: empty acknowledgement")
	}
	if err := json.Unmarshal(trimmed, &ref); err != nil {
		return ref, fmt.Errorf("couchapi: decode acknowledgement: %w", err)
	}
	return ref, nil
}

// KeysPayload builds the multi-key request body {"keys":[...]}.
func KeysPayload(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(struct {
		Keys []string `json:"keys"`
	}{Keys: ids}); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
