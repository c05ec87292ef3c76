// SPDX-License-Identifier: MIT

// Package validate accumulates field-level validation failures for settings.
package validate

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
)

// Error represents a single failed check.
type Error struct {
	Field   string // dotted settings path, e.g. "static.url"
	Value   any
	Message string
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Validator accumulates validation errors and can produce a ValidationError when invalid.
type Validator struct {
	errors []Error
}

// ValidationError bundles multiple validation errors into a single error value.
type ValidationError struct {
	errors []Error
}

// New creates a new validator
func New() *Validator {
	return &Validator{errors: make([]Error, 0)}
}

// AddError records a failed check.
func (v *Validator) AddError(field, message string, value any) {
	v.errors = append(v.errors, Error{Field: field, Value: value, Message: message})
}

// IsValid returns true if no errors have been accumulated
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns all accumulated validation errors
func (v *Validator) Errors() []Error {
	return v.errors
}

// Err converts the accumulated validation errors into an error value.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]Error, len(v.errors))
	copy(copied, v.errors)
	return ValidationError{errors: copied}
}

// Errors returns the individual validation errors making up the validation failure.
func (e ValidationError) Errors() []Error {
	return e.errors
}

// Fields returns the field names that failed, in the order they were reported.
func (e ValidationError) Fields() []string {
	out := make([]string, 0, len(e.errors))
	for _, err := range e.errors {
		out = append(out, err.Field)
	}
	return out
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	switch len(e.errors) {
	case 0:
		return ""
	case 1:
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// NotEmpty validates that a string is not empty or whitespace-only
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "value cannot be empty", value)
	}
}

// OneOf validates that a value is one of the allowed values
func (v *Validator) OneOf(field, value string, allowed []string) {
	if slices.Contains(allowed, value) {
		return
	}
	v.AddError(field, fmt.Sprintf("value must be one of %v, got %q", allowed, value), value)
}

// EachOneOf validates every element of values against allowed, reporting the
// element index in the field name.
func (v *Validator) EachOneOf(field string, values, allowed []string) {
	for i, value := range values {
		if !slices.Contains(allowed, value) {
			v.AddError(fmt.Sprintf("%s[%d]", field, i),
				fmt.Sprintf("unknown entry %q (known: %v)", value, allowed), value)
		}
	}
}

// Unique reports the first repeated element of values.
func (v *Validator) Unique(field string, values []string) {
	seen := make(map[string]int, len(values))
	for i, value := range values {
		if first, ok := seen[value]; ok {
			v.AddError(fmt.Sprintf("%s[%d]", field, i),
				fmt.Sprintf("duplicate of entry %d (%q)", first, value), value)
			return
		}
		seen[value] = i
	}
}

// Positive validates that a number is positive (> 0)
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("value must be positive, got %d", value), value)
	}
}

// Range validates that an integer is within a specified range (inclusive)
func (v *Validator) Range(field string, value, minVal, maxVal int) {
	if value < minVal || value > maxVal {
		v.AddError(field,
			fmt.Sprintf("value must be between %d and %d, got %d", minVal, maxVal, value),
			value)
	}
}

// Fraction validates that a float lies in [0,1].
func (v *Validator) Fraction(field string, value float64) {
	if value < 0 || value > 1 {
		v.AddError(field, fmt.Sprintf("value must be between 0 and 1, got %g", value), value)
	}
}

// AbsPath validates that path is absolute and already in canonical form.
func (v *Validator) AbsPath(field, path string) {
	if path == "" {
		v.AddError(field, "path cannot be empty", path)
		return
	}
	if !filepath.IsAbs(path) {
		v.AddError(field, "path must be absolute", path)
		return
	}
	if filepath.Clean(path) != path {
		v.AddError(field, "path must be clean", path)
	}
}

// URLPrefix validates a URL path prefix such as "/static/".
func (v *Validator) URLPrefix(field, prefix string) {
	if prefix == "" {
		v.AddError(field, "URL prefix cannot be empty", prefix)
		return
	}
	if !strings.HasPrefix(prefix, "/") || !strings.HasSuffix(prefix, "/") {
		v.AddError(field, "URL prefix must start and end with '/'", prefix)
		return
	}
	if prefix == "/" {
		v.AddError(field, "URL prefix cannot be the site root", prefix)
		return
	}
	if strings.Contains(prefix, "..") {
		v.AddError(field, "URL prefix contains traversal sequences (..)", prefix)
	}
}

// Origin validates a trusted origin such as "https://example.com" or
// "https://*.example.com".
func (v *Validator) Origin(field, value string) {
	u, err := url.Parse(value)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid origin: %v", err), value)
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		v.AddError(field, fmt.Sprintf("unsupported origin scheme %q", u.Scheme), value)
		return
	}
	if u.Host == "" {
		v.AddError(field, "origin must have a host", value)
		return
	}
	if u.Path != "" && u.Path != "/" {
		v.AddError(field, "origin must not have a path", value)
	}
}

// Custom allows custom validation logic
func (v *Validator) Custom(field string, value any, check func(any) error) {
	if err := check(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}
