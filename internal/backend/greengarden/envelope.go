package greengarden

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"greengarden/internal/logging"
	"greengarden/internal/service"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Envelope is the response shape of every endpoint: either data or a
// non-empty errors list, never both.
type Envelope struct {
	Data   json.RawMessage      `json:"data,omitempty"`
	Errors []service.ErrorEntry `json:"errors,omitempty"`
}

// response is a raw exchange with the API, before classification.
// cancelled is set when the caller gave up; it is not a remote failure.
type response struct {
	status    int
	env       Envelope
	err       *service.RemoteError
	cancelled error
}

type outcome[T any] struct {
	value     T
	err       *service.RemoteError
	cancelled error
}

// request performs one API call. Local faults are reported in response.err.
func (c *Client) request(ctx context.Context, method, path string, body any) response {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	logger := logging.From(ctx).With("method", method, "path", path)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return response{err: service.TransportError("failed to encode request", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{err: service.TransportError("failed to build request", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("request failed", "error", err)
		if errors.Is(ctx.Err(), context.Canceled) {
			return response{cancelled: ctx.Err()}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return response{err: service.TransportError("request timed out", err)}
		}
		return response{err: service.TransportError("could not reach server", err)}
	}
	defer resp.Body.Close()

	logger.Debug("response received", "status", resp.StatusCode)

	var env Envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return response{cancelled: ctx.Err()}
		}
		return response{
			status: resp.StatusCode,
			err:    service.TransportError(fmt.Sprintf("unexpected response (status %d)", resp.StatusCode), err),
		}
	}
	if len(env.Errors) == 0 && resp.StatusCode >= http.StatusBadRequest {
		return response{
			status: resp.StatusCode,
			err:    service.TransportError(fmt.Sprintf("server returned status %d", resp.StatusCode), nil),
		}
	}
	return response{status: resp.StatusCode, env: env}
}

// decode classifies a response: an errors list always wins over data.
func decode[T any](res response) (T, *service.RemoteError) {
	var v T
	if res.err != nil {
		return v, res.err
	}
	if len(res.env.Errors) > 0 {
		return v, service.NewRemoteError(res.status, res.env.Errors)
	}
	if len(res.env.Data) > 0 {
		if err := json.Unmarshal(res.env.Data, &v); err != nil {
			return v, service.TransportError("malformed response data", err)
		}
	}
	return v, nil
}

// settle routes a failure to the call's errback, or to the client's sink
// when none was given, and returns the call's result.
func settle[T any](ctx context.Context, c *Client, v T, rerr *service.RemoteError, o service.CallOptions) (T, error) {
	if rerr == nil {
		return v, nil
	}

	logging.From(ctx).Debug("remote call failed", "status", rerr.Status, "message", rerr.Message())

	handler := o.Errback
	if handler == nil {
		handler = c.sink
	}
	if handler != nil {
		handler(rerr)
	}
	var zero T
	return zero, rerr
}

// dispatch is the single classification point shared by all calls.
// A cancelled call returns the context error and reaches neither the
// errback nor the sink.
func dispatch[T any](ctx context.Context, c *Client, res response, o service.CallOptions) (T, error) {
	if res.cancelled != nil {
		var zero T
		return zero, res.cancelled
	}
	v, rerr := decode[T](res)
	return settle(ctx, c, v, rerr, o)
}
