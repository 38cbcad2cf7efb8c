// Package result implements the single-assignment sink every asynchronous
// wifid operation completes through.
package result

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/atomic"
)

type Code string

const (
	CodeCouldNotGetConnectivityManager Code = "couldNotGetConnectivityManager"
	CodeLocationPermissionMissing      Code = "location permission missing"
	CodeLocationOff                    Code = "location off"
	CodeFailed                         Code = "failed"
	CodeConnectNetworkFailed           Code = "connectNetworkFailed"
	CodeIsLocationServiceOnFailed      Code = "isLocationServiceOnFailed"
	CodeConnectInProgress              Code = "connectInProgress"
)

// Error is the caller-visible failure of an operation.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Errorf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code carried by err, or CodeFailed for any other error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return CodeFailed
}

// AsError converts err into an *Error, keeping its code when it already has one.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return &Error{Code: CodeFailed, Message: err.Error()}
}

// Sink is completed at most once, by either Resolve or Reject. Every later
// completion attempt is ignored and reports false.
type Sink struct {
	completed atomic.Bool
	done      chan struct{}
	value     interface{}
	err       *Error
}

func NewSink() *Sink {
	return &Sink{
		done: make(chan struct{}),
	}
}

// Resolved returns a sink that already succeeded with v.
func Resolved(v interface{}) *Sink {
	s := NewSink()
	s.Resolve(v)
	return s
}

// Rejected returns a sink that already failed.
func Rejected(code Code, message string) *Sink {
	s := NewSink()
	s.Reject(code, message)
	return s
}

// Of adapts the outcome of a synchronous call.
func Of(v interface{}, err error) *Sink {
	s := NewSink()
	if err != nil {
		s.Fail(err)
	} else {
		s.Resolve(v)
	}
	return s
}

func (s *Sink) Resolve(v interface{}) bool {
	return s.complete(v, nil)
}

func (s *Sink) Reject(code Code, message string) bool {
	return s.complete(nil, &Error{Code: code, Message: message})
}

// Fail rejects with err, keeping its code if it is an *Error.
func (s *Sink) Fail(err error) bool {
	if err == nil {
		err = &Error{Code: CodeFailed, Message: "unknown failure"}
	}

	return s.complete(nil, AsError(err))
}

func (s *Sink) complete(v interface{}, err *Error) bool {
	if !s.completed.CompareAndSwap(false, true) {
		return false
	}

	s.value = v
	s.err = err
	close(s.done)

	return true
}

// Done is closed once the sink is completed.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Result returns the outcome without blocking. ok is false while pending.
func (s *Sink) Result() (v interface{}, ok bool, err error) {
	select {
	case <-s.done:
		if s.err != nil {
			return nil, true, s.err
		}
		return s.value, true, nil
	default:
		return nil, false, nil
	}
}

// Wait blocks until the sink is completed or ctx ends. A ctx error does not
// complete the sink.
func (s *Sink) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-s.done:
		if s.err != nil {
			return nil, s.err
		}
		return s.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
