package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClientClosed  = errors.New("smartcache client is closed")
	ErrInvalidAction = errors.New("invalid action, must be 'SET' or 'GET'")
)

// ConnectionError reports that the backend or the broker could not be reached.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: cannot reach %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func NewConnectionError(op, addr string, err error) error {
	return &ConnectionError{Op: op, Addr: addr, Err: err}
}

// BackendError reports a failed read or write on an established backend connection.
type BackendError struct {
	Op  string
	Key string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func NewBackendError(op, key string, err error) error {
	return &BackendError{Op: op, Key: key, Err: err}
}

func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

func IsBackendError(err error) bool {
	if err == nil {
		return false
	}
	var backendErr *BackendError
	return errors.As(err, &backendErr)
}
