package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry, such as a dropped
// connection during navigation.
type TransientError struct {
	Err error
	Op  string
}

func (e *TransientError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient for the named operation.
func NewTransientError(err error, op string) *TransientError {
	return &TransientError{Err: err, Op: op}
}

// browserNetErrors are Chrome net error codes worth a second attempt.
var browserNetErrors = []string{
	"net::err_connection_reset",
	"net::err_connection_closed",
	"net::err_connection_refused",
	"net::err_connection_timed_out",
	"net::err_timed_out",
	"net::err_name_not_resolved",
	"net::err_internet_disconnected",
	"net::err_network_changed",
	"net::err_empty_response",
	"net::err_http2_protocol_error",
}

// IsTransient reports whether err (or anything in its chain) is a
// TransientError, a per-attempt deadline, or a network failure that usually
// clears on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, code := range browserNetErrors {
		if strings.Contains(msg, code) {
			return true
		}
	}
	for _, p := range []string{"connection reset by peer", "broken pipe", "i/o timeout", "no such host"} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
