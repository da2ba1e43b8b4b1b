package service

import (
	"encoding/json"
	"fmt"
)

// ErrorEntry is one element of an envelope's errors list.
// Fields other than message are kept verbatim in Raw.
type ErrorEntry struct {
	Message string
	Raw     json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *ErrorEntry) UnmarshalJSON(data []byte) error {
	var v struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	e.Message = v.Message
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e ErrorEntry) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(struct {
		Message string `json:"message"`
	}{e.Message})
}

// RemoteError is the only error kind produced by tracker calls. It always
// carries at least one entry; only the first message is shown to users.
type RemoteError struct {
	Status int
	Errors []ErrorEntry

	cause error
}

// NewRemoteError builds a RemoteError from a decoded errors list.
func NewRemoteError(status int, entries []ErrorEntry) *RemoteError {
	return &RemoteError{Status: status, Errors: entries}
}

// TransportError wraps a local fault (network, decoding) into a RemoteError
// so that it flows through the same error path as server-reported failures.
func TransportError(msg string, cause error) *RemoteError {
	return &RemoteError{
		Errors: []ErrorEntry{{Message: msg}},
		cause:  cause,
	}
}

// Message returns the first error message.
func (e *RemoteError) Message() string {
	if len(e.Errors) == 0 {
		return "unknown error"
	}
	return e.Errors[0].Message
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote error (%d): %s", e.Status, e.Message())
	}
	return "remote error: " + e.Message()
}

func (e *RemoteError) Unwrap() error { return e.cause }

// ErrorHandler receives failed responses.
type ErrorHandler func(*RemoteError)

// CallOptions holds per-call settings.
type CallOptions struct {
	Errback ErrorHandler
}

// CallOption configures a single tracker call.
type CallOption func(*CallOptions)

// WithErrback routes a failure of this call to h instead of the default sink.
func WithErrback(h ErrorHandler) CallOption {
	return func(o *CallOptions) {
		o.Errback = h
	}
}

// ApplyCallOptions folds opts into a CallOptions value.
func ApplyCallOptions(opts ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
