package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of SDF loading failure.
type ErrorCode string

const (
	// ErrInvalidXML indicates a malformed document, model.config or include block.
	ErrInvalidXML ErrorCode = "sdf-invalid-xml"
	// ErrNotSDF indicates the document root is neither sdf nor gazebo.
	ErrNotSDF ErrorCode = "sdf-not-sdf"
	// ErrNoSuchModel indicates a model name that no search path directory provides.
	ErrNoSuchModel ErrorCode = "sdf-no-such-model"
	// ErrUnavailableSDFVersionInModel indicates a model with no SDF file under the version ceiling.
	ErrUnavailableSDFVersionInModel ErrorCode = "sdf-unavailable-version"
	// ErrInvalid indicates a missing child or attribute, an unresolved
	// reference or a malformed field value.
	ErrInvalid ErrorCode = "sdf-invalid"
)

// Error lets a bare code be used as an errors.Is target.
func (c ErrorCode) Error() string {
	return string(c)
}

// Error is a coded SDF error with optional element path and file context.
//
//nolint:errname // public API name mirrors the package name.
type Error struct {
	Err     error
	Code    ErrorCode
	Message string
	Path    string
	File    string
}

// New builds an Error with a code, message and optional element path.
func New(code ErrorCode, msg, path string) *Error {
	return &Error{Code: code, Message: msg, Path: path}
}

// Newf formats a message and builds an Error.
func Newf(code ErrorCode, path, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...), path)
}

// Wrap builds an Error that keeps err as its cause.
func Wrap(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Error formats the error as "[code] message at path", prefixed with the
// originating file when known.
func (e *Error) Error() string {
	if e == nil {
		return "sdf error <nil>"
	}

	var b strings.Builder
	if e.File != "" {
		b.WriteString("while loading ")
		b.WriteString(e.File)
		b.WriteString(": ")
	}
	if e.Message == "" && e.Err != nil {
		b.WriteString(e.Err.Error())
		return b.String()
	}
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another Error or a bare ErrorCode by code.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case *Error:
		return t != nil && e.Code == t.Code
	}
	return false
}

// CodeOf returns the code of the outermost Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return "", false
	}
	return e.Code, true
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return errors.Is(err, code)
}

// WithFile prefixes err with the file it originated from, keeping its code.
// Errors already attributed to file are returned unchanged.
func WithFile(err error, file string) error {
	if err == nil || file == "" {
		return err
	}
	var e *Error
	if !errors.As(err, &e) || e == nil {
		return fmt.Errorf("while loading %s: %w", file, err)
	}
	if e.File == file {
		return err
	}
	return &Error{Code: e.Code, File: file, Err: err}
}
