package rtt

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the module's constructors and the
// frame driver matches exactly one of these with errors.Is.
var (
	// ErrResourceCreation reports a device, texture, view, sampler, buffer,
	// pipeline or render pass that could not be created. Fatal at setup.
	ErrResourceCreation = errors.New("rtt: resource creation failed")

	// ErrShaderLoad reports a shader module that could not be located or
	// compiled. Fatal at setup.
	ErrShaderLoad = errors.New("rtt: shader load failed")

	// ErrSceneLoad reports an unreadable optional input scene. Callers
	// continue with an empty scene.
	ErrSceneLoad = errors.New("rtt: scene load failed")

	// ErrPresentation reports a submission or presentation failure during
	// the frame loop. Terminates the loop.
	ErrPresentation = errors.New("rtt: presentation failed")
)

// Error carries an error kind together with the operation that failed and
// its underlying cause.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Op names the failing operation, e.g. "create color attachment".
	Op string
	// Err is the underlying cause. May be nil.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns both the kind and the cause so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns an *Error of the given kind. It returns nil if err is nil.
// If err already carries the same kind it is returned unchanged so that
// errors passed up through several layers are not double wrapped.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) && re.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is like Wrap but builds the cause from a format string.
func Errorf(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}
