package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is wrapped by every ParseError.
	ErrParse = errors.New("compiler: parse error")

	// ErrUnsupportedDependency is wrapped by every UnsupportedDependencyError.
	ErrUnsupportedDependency = errors.New("compiler: unsupported dependency")
)

// ParseError reports a module whose source could not be parsed.
type ParseError struct {
	Path   string
	Line   int
	Column int
	// Near is the source text of the offending node, truncated.
	Near string
}

func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("%s:%d:%d: syntax error near %q", e.Path, e.Line, e.Column, e.Near)
	}
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

// Unwrap returns ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}

// UnsupportedDependencyError reports a require call whose argument is not a
// string literal.
type UnsupportedDependencyError struct {
	Path       string
	Line       int
	Column     int
	Expression string
}

func (e *UnsupportedDependencyError) Error() string {
	return fmt.Sprintf("%s:%d:%d: require argument must be a string literal, got %s", e.Path, e.Line, e.Column, e.Expression)
}

// Unwrap returns ErrUnsupportedDependency.
func (e *UnsupportedDependencyError) Unwrap() error {
	return ErrUnsupportedDependency
}
