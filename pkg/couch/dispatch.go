package couch

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ratio1/couch_sdk_go/internal/couchapi"
	"github.com/Ratio1/couch_sdk_go/internal/httpx"
)

// Dispatch sends one request scoped to h and resolves the response status
// to an Outcome. The body is returned undecoded. A status missing from the
// outcome table yields an error matching ErrUnmappedStatus.
func (c *Client) Dispatch(ctx context.Context, h *Handle, req Request) (*Response, error) {
	if c == nil || c.http == nil {
		return nil, errors.New("couch: client is nil")
	}
	if h == nil {
		return nil, errors.New("couch: handle is nil")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	header := req.Header.Clone()
	if req.Body != nil {
		if header == nil {
			header = make(http.Header)
		}
		header.Set("Content-Type", jsonContentType)
	}

	resp, err := c.http.Do(ctx, &httpx.Request{
		Method:  method,
		BaseURL: h.URL(),
		Path:    req.Path,
		Query:   req.Query,
		Header:  header,
		Body:    req.Body,
	})
	if err != nil {
		return nil, err
	}

	outcome, ok := LookupOutcome(resp.StatusCode)
	if !ok {
		target, _ := httpx.BuildURL(h.URL(), req.Path, req.Query)
		c.logger.ErrorContext(ctx, "status code missing from outcome table",
			"status", resp.StatusCode,
			"method", method,
			"url", target,
		)
		return nil, &UnmappedStatusError{StatusCode: resp.StatusCode, Method: method, URL: target}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Outcome:    outcome,
		Body:       resp.Body,
	}, nil
}

// Handler turns a response with an expected outcome into a value or an error.
type Handler[T any] func(*Response) (T, error)

// Expectations maps each outcome an endpoint is documented to return to its handler.
type Expectations[T any] map[Outcome]Handler[T]

// ExpectOutcome runs the handler registered for resp.Outcome. Outcomes with
// no handler produce an UnexpectedResponseError.
func ExpectOutcome[T any](resp *Response, exp Expectations[T]) (T, error) {
	var zero T
	if resp == nil {
		return zero, errors.New("couch: response is nil")
	}
	if handle, ok := exp[resp.Outcome]; ok && handle != nil {
		return handle(resp)
	}
	unexpected := &UnexpectedResponseError{
		StatusCode: resp.StatusCode,
		Response:   resp.Body,
	}
	if env, ok := couchapi.ParseError(resp.Body); ok {
		unexpected.ErrorType = env.Type
		unexpected.Reason = env.Reason
	}
	return zero, unexpected
}

// ReturnBody yields the raw response body.
func ReturnBody() Handler[[]byte] {
	return func(resp *Response) ([]byte, error) {
		return resp.Body, nil
	}
}

// ReturnValue yields v regardless of the body.
func ReturnValue[T any](v T) Handler[T] {
	return func(*Response) (T, error) {
		return v, nil
	}
}

// Fail yields the error built by newErr.
func Fail[T any](newErr func(*Response) error) Handler[T] {
	return func(resp *Response) (T, error) {
		var zero T
		return zero, newErr(resp)
	}
}

func (c *Client) dispatchExpect(ctx context.Context, h *Handle, req Request, exp Expectations[[]byte]) ([]byte, error) {
	resp, err := c.Dispatch(ctx, h, req)
	if err != nil {
		return nil, err
	}
	return ExpectOutcome(resp, exp)
}
