package couch

import (
	"context"
	"errors"
	"net/http"
)

// FetchDatabaseInfo returns the raw info document of the database behind h.
func (c *Client) FetchDatabaseInfo(ctx context.Context, h *Handle) ([]byte, error) {
	return c.dispatchExpect(ctx, h, Request{Method: http.MethodGet}, Expectations[[]byte]{
		OutcomeOK:                  ReturnBody(),
		OutcomeInternalServerError: Fail[[]byte](illegalName(h)),
		OutcomeNotFound:            Fail[[]byte](dbNotFound(h)),
	})
}

// Connect returns a handle for an existing database. An empty host or zero
// port falls back to the client defaults.
func (c *Client) Connect(ctx context.Context, name, host string, port int) (*Handle, error) {
	h := c.Handle(name, host, port)
	if _, err := c.FetchDatabaseInfo(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// CreateDatabase creates the database and returns its handle.
func (c *Client) CreateDatabase(ctx context.Context, name, host string, port int) (*Handle, error) {
	h := c.Handle(name, host, port)
	resp, err := c.Dispatch(ctx, h, Request{Method: http.MethodPut})
	if err != nil {
		return nil, err
	}
	return ExpectOutcome(resp, Expectations[*Handle]{
		OutcomeCreated:             ReturnValue(h),
		OutcomeInternalServerError: Fail[*Handle](illegalName(h)),
		OutcomePreconditionFailed: Fail[*Handle](func(*Response) error {
			return &DbAlreadyExistsError{URI: h.URL()}
		}),
	})
}

// EnsureDatabase creates the database if needed. The boolean reports
// whether this call created it.
func (c *Client) EnsureDatabase(ctx context.Context, name, host string, port int) (*Handle, bool, error) {
	h, err := c.CreateDatabase(ctx, name, host, port)
	if err == nil {
		return h, true, nil
	}
	var exists *DbAlreadyExistsError
	if !errors.As(err, &exists) {
		return nil, false, err
	}
	c.logger.DebugContext(ctx, "database already exists", "uri", exists.URI)
	h, err = c.Connect(ctx, name, host, port)
	if err != nil {
		return nil, false, err
	}
	return h, false, nil
}

// DeleteDatabase drops the database behind h.
func (c *Client) DeleteDatabase(ctx context.Context, h *Handle) ([]byte, error) {
	return c.dispatchExpect(ctx, h, Request{Method: http.MethodDelete}, Expectations[[]byte]{
		OutcomeOK:       ReturnBody(),
		OutcomeNotFound: Fail[[]byte](dbNotFound(h)),
	})
}

// CompactDatabase starts compaction. The server answers before it finishes.
func (c *Client) CompactDatabase(ctx context.Context, h *Handle) ([]byte, error) {
	req := Request{
		Method: http.MethodPost,
		Path:   "_compact",
		Header: http.Header{"Content-Type": {jsonContentType}},
	}
	return c.dispatchExpect(ctx, h, req, Expectations[[]byte]{
		OutcomeAccepted: ReturnBody(),
	})
}

func dbNotFound(h *Handle) func(*Response) error {
	return func(*Response) error {
		return &DbNotFoundError{URI: h.URL()}
	}
}

func illegalName(h *Handle) func(*Response) error {
	return func(*Response) error {
		return &IllegalDatabaseNameError{Name: h.Name(), URI: h.URL()}
	}
}
