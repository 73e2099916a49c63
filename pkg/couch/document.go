package couch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Ratio1/couch_sdk_go/internal/couchapi"
)

// GetDocument returns the raw JSON of the latest revision of id.
func (c *Client) GetDocument(ctx context.Context, h *Handle, id string) ([]byte, error) {
	return c.dispatchExpect(ctx, h, Request{Method: http.MethodGet, Path: docPath(id)}, Expectations[[]byte]{
		OutcomeOK: ReturnBody(),
		OutcomeNotFound: Fail[[]byte](func(*Response) error {
			return &DocumentNotFoundError{DB: h.Name(), ID: id}
		}),
	})
}

// ListAllDocuments queries _all_docs. Keys are sent in literal form (see
// KeyLiteral), so a string key travels quoted.
func (c *Client) ListAllDocuments(ctx context.Context, h *Handle, opts ListOptions) ([]byte, error) {
	query := url.Values{}
	for param, key := range map[string]any{"startkey": opts.StartKey, "endkey": opts.EndKey} {
		if key == nil {
			continue
		}
		lit, err := KeyLiteral(key)
		if err != nil {
			return nil, fmt.Errorf("couch: encode %s: %w", param, err)
		}
		query.Set(param, lit)
	}
	if opts.Limit != nil {
		if *opts.Limit < 0 {
			return nil, fmt.Errorf("couch: negative limit %d", *opts.Limit)
		}
		query.Set("limit", strconv.Itoa(*opts.Limit))
	}
	if opts.IncludeDocs {
		query.Set("include_docs", "true")
	}
	return c.dispatchExpect(ctx, h, Request{Method: http.MethodGet, Path: "_all_docs", Query: query}, Expectations[[]byte]{
		OutcomeOK: ReturnBody(),
	})
}

// BatchGetDocuments fetches several documents in one request.
func (c *Client) BatchGetDocuments(ctx context.Context, h *Handle, ids ...string) ([]byte, error) {
	body, err := couchapi.KeysPayload(ids)
	if err != nil {
		return nil, fmt.Errorf("couch: encode keys: %w", err)
	}
	req := Request{
		Method: http.MethodPost,
		Path:   "_all_docs",
		Query:  url.Values{"include_docs": {"true"}},
		Body:   body,
	}
	return c.dispatchExpect(ctx, h, req, Expectations[[]byte]{
		OutcomeOK: ReturnBody(),
	})
}

// PutDocument stores doc under id. doc must already be JSON and carry _rev
// when it updates an existing document.
func (c *Client) PutDocument(ctx context.Context, h *Handle, id string, doc []byte, opts *PutOptions) ([]byte, error) {
	req := Request{Method: http.MethodPut, Path: docPath(id), Body: doc}
	if req.Body == nil {
		req.Body = []byte{}
	}
	if opts != nil && opts.BatchOK {
		req.Query = url.Values{"batch": {"ok"}}
	}
	return c.dispatchExpect(ctx, h, req, Expectations[[]byte]{
		OutcomeCreated:  ReturnBody(),
		OutcomeAccepted: ReturnBody(),
		OutcomeConflict: Fail[[]byte](func(*Response) error {
			return &DocumentConflictError{ID: id, Doc: doc}
		}),
	})
}

// DeleteDocument deletes revision rev of id.
func (c *Client) DeleteDocument(ctx context.Context, h *Handle, id, rev string) ([]byte, error) {
	req := Request{
		Method: http.MethodDelete,
		Path:   docPath(id),
		Query:  url.Values{"rev": {rev}},
	}
	return c.dispatchExpect(ctx, h, req, Expectations[[]byte]{
		OutcomeOK: ReturnBody(),
	})
}

// CopyDocument copies fromID to toID on the server.
func (c *Client) CopyDocument(ctx context.Context, h *Handle, fromID, toID string, opts *CopyOptions) ([]byte, error) {
	req := Request{
		Method: MethodCopy,
		Path:   docPath(fromID),
		Header: http.Header{"Destination": {toID}},
	}
	if opts != nil && opts.Revision != "" {
		req.Query = url.Values{"rev": {opts.Revision}}
	}
	return c.dispatchExpect(ctx, h, req, Expectations[[]byte]{
		OutcomeCreated: ReturnBody(),
	})
}

// KeyLiteral renders a view key as the literal the server parses: strings
// are quoted, numbers and booleans use their plain form, raw JSON passes
// through and composite keys (slices, maps, structs) are marshalled.
func KeyLiteral(key any) (string, error) {
	switch k := key.(type) {
	case nil:
		return "null", nil
	case string:
		// \x and \a escapes are Go-only; let json spell those as \u.
		if lit := strconv.Quote(k); json.Valid([]byte(lit)) {
			return lit, nil
		}
	case bool:
		return strconv.FormatBool(k), nil
	case int:
		return strconv.Itoa(k), nil
	case int32:
		return strconv.FormatInt(int64(k), 10), nil
	case int64:
		return strconv.FormatInt(k, 10), nil
	case uint:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(k), 10), nil
	case uint64:
		return strconv.FormatUint(k, 10), nil
	case float32:
		return strconv.FormatFloat(float64(k), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64), nil
	case json.RawMessage:
		if !json.Valid(k) {
			return "", errors.New("raw key is not valid JSON")
		}
		return string(k), nil
	}
	data, err := json.Marshal(key)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseRevision extracts id and rev from a write acknowledgement such as the
// body returned by PutDocument or CopyDocument.
func ParseRevision(body []byte) (id, rev string, err error) {
	ref, err := couchapi.ParseDocRef(body)
	if err != nil {
		return "", "", err
	}
	return ref.ID, ref.Rev, nil
}

// docPath escapes id for use as a path segment; design and local document
// prefixes keep their slash.
func docPath(id string) string {
	for _, prefix := range []string{"_design/", "_local/"} {
		if strings.HasPrefix(id, prefix) {
			return prefix + url.PathEscape(strings.TrimPrefix(id, prefix))
		}
	}
	return url.PathEscape(id)
}
