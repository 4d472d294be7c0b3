// Package config loads and normalizes bundler configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/coldog/jspack/pkg/emit"
	"github.com/coldog/jspack/pkg/transform"
)

// DefaultEntryName names an entry given as a single path.
const DefaultEntryName = "main"

// DefaultOutputPath is used by the loader when no output path is configured.
const DefaultOutputPath = "dist"

// Config is the raw configuration as read from a file, the environment or
// flags.
type Config struct {
	// Context is the root directory canonical module ids are relative to.
	// Env: JSPACK_CONTEXT, Default: the working directory
	Context string `json:"context,omitempty" yaml:"context,omitempty" mapstructure:"context"`

	// Entry is either a single path, named "main", or a map of entry name
	// to path.
	Entry any `json:"entry,omitempty" yaml:"entry,omitempty" mapstructure:"entry"`

	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Resolve ResolveConfig `json:"resolve,omitempty" yaml:"resolve,omitempty" mapstructure:"resolve"`
	Module  ModuleConfig  `json:"module,omitempty" yaml:"module,omitempty" mapstructure:"module"`
}

// OutputConfig controls where and how assets are written.
type OutputConfig struct {
	// Path is the output directory.
	// Env: JSPACK_OUTPUT_PATH, Default: dist
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// Filename is the asset name template. [name] is replaced by the entry
	// name and [hash] by a content hash.
	// Env: JSPACK_OUTPUT_FILENAME, Default: [name].js
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty" mapstructure:"filename"`

	// Bucket uploads assets to an object store instead of Path when set.
	Bucket emit.BucketConfig `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
}

// ResolveConfig controls module resolution.
type ResolveConfig struct {
	// Extensions are probed in order for extensionless specifiers.
	// Default: [".js", ".json"]
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty" mapstructure:"extensions"`
}

// ModuleConfig holds the transform rules.
type ModuleConfig struct {
	Rules []transform.Rule `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
}

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Error reports an invalid configuration value.
type Error struct {
	// Field is the configuration key, e.g. "entry.admin".
	Field string

	// Message describes the problem.
	Message string

	// Cause is the underlying error (optional).
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

func invalid(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}
