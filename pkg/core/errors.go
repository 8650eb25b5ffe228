package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Lifecycle and provider errors
var (
	ErrModelNotRegistered = errors.New("jobs: model not registered")
	ErrShuttingDown       = errors.New("jobs: queue is shutting down")
	ErrShutdownTimeout    = errors.New("jobs: queue shutdown timed out")
	ErrNoQueue            = errors.New("jobs: queue not initialized")
	ErrUnsupportedBroker  = errors.New("jobs: unsupported broker url")
	ErrJobNotOwned        = errors.New("jobs: job not owned by this worker")
	ErrJobNotFound        = errors.New("jobs: job not found")
)

// Validation errors
var (
	ErrInvalidJobType  = errors.New("jobs: invalid job type (must be alphanumeric, start with letter)")
	ErrJobTypeTooLong  = errors.New("jobs: job type too long")
	ErrJobDataTooLarge = errors.New("jobs: job data exceeds size limit")
)

// Router error kinds, usable with errors.Is.
var (
	ErrMissingModelName      = errors.New("jobs: missing model name")
	ErrMissingMethodName     = errors.New("jobs: missing method name")
	ErrMissingModel          = errors.New("jobs: missing model")
	ErrMissingInstance       = errors.New("jobs: missing instance")
	ErrMissingStaticMethod   = errors.New("jobs: missing static method")
	ErrMissingInstanceMethod = errors.New("jobs: missing instance method")
	ErrLookupFailure         = errors.New("jobs: lookup failure")
	ErrTargetMethodFailure   = errors.New("jobs: target method failure")
)

// ErrorKind classifies a job routing failure.
type ErrorKind int

const (
	KindMissingModelName ErrorKind = iota + 1
	KindMissingMethodName
	KindMissingModel
	KindMissingInstance
	KindMissingStaticMethod
	KindMissingInstanceMethod
	KindLookupFailure
	KindTargetMethodFailure
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingModelName:
		return ErrMissingModelName
	case KindMissingMethodName:
		return ErrMissingMethodName
	case KindMissingModel:
		return ErrMissingModel
	case KindMissingInstance:
		return ErrMissingInstance
	case KindMissingStaticMethod:
		return ErrMissingStaticMethod
	case KindMissingInstanceMethod:
		return ErrMissingInstanceMethod
	case KindLookupFailure:
		return ErrLookupFailure
	case KindTargetMethodFailure:
		return ErrTargetMethodFailure
	}
	return nil
}

// Error is a job routing failure reported through a job's completion.
type Error struct {
	Kind       ErrorKind
	Model      string
	Method     string
	InstanceID string
	Status     int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingModelName:
		return "Missing Model Name"
	case KindMissingMethodName:
		return "Missing Method Name"
	case KindMissingModel:
		return fmt.Sprintf("Missing Model %s", e.Model)
	case KindMissingInstance:
		return fmt.Sprintf("Missing %s Instance %s", e.Model, e.InstanceID)
	case KindMissingStaticMethod:
		return fmt.Sprintf("Missing Schema Static Method %s#%s", e.Model, e.Method)
	case KindMissingInstanceMethod:
		return fmt.Sprintf("Missing %s Instance Method %s", e.Model, e.Method)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "jobs: unknown error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// StatusCoder is implemented by errors carrying a numeric status.
type StatusCoder interface {
	StatusCode() int
}

// StatusOf returns the status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	var sc StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// MissingModelName reports a job without a model name.
func MissingModelName() *Error {
	return &Error{Kind: KindMissingModelName, Status: http.StatusInternalServerError}
}

// MissingMethodName reports a job without a method name.
func MissingMethodName(model string) *Error {
	return &Error{Kind: KindMissingMethodName, Model: model, Status: http.StatusInternalServerError}
}

// MissingModel reports a model name absent from the registry.
func MissingModel(model string) *Error {
	return &Error{Kind: KindMissingModel, Model: model, Status: http.StatusInternalServerError}
}

// MissingInstance reports an instance id that could not be found.
func MissingInstance(model, id string) *Error {
	return &Error{Kind: KindMissingInstance, Model: model, InstanceID: id, Status: http.StatusInternalServerError}
}

// MissingStaticMethod reports an unknown class-level method.
func MissingStaticMethod(model, method string) *Error {
	return &Error{Kind: KindMissingStaticMethod, Model: model, Method: method, Status: http.StatusInternalServerError}
}

// MissingInstanceMethod reports an unknown instance-level method.
func MissingInstanceMethod(model, method string) *Error {
	return &Error{Kind: KindMissingInstanceMethod, Model: model, Method: method, Status: http.StatusInternalServerError}
}

// LookupFailure wraps a registry error, keeping its status or defaulting to 500.
func LookupFailure(model string, err error) *Error {
	return &Error{Kind: KindLookupFailure, Model: model, Status: StatusOf(err), Err: err}
}

// TargetMethodFailure wraps an error returned by an invoked method.
func TargetMethodFailure(model, method string, err error) *Error {
	return &Error{Kind: KindTargetMethodFailure, Model: model, Method: method, Status: StatusOf(err), Err: err}
}
