package atg

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TemplateError reports a malformed template file: a missing version marker
// or a bad metadata line.
type TemplateError struct {
	Message string
	Line    int
	Column  int
}

func (e *TemplateError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("template error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	} else if e.Line > 0 {
		return fmt.Sprintf("template error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// NewTemplateError creates a new template error with position information
func NewTemplateError(message string, line, column int) error {
	return &TemplateError{
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// ParseError reports a structural error in bracket expressions, such as an
// unmatched closing delimiter. Position is a byte offset into the scanned
// text; Line is filled in when the text came from a template file.
type ParseError struct {
	Message  string
	Token    string
	Position int
	Line     int
}

func (e *ParseError) Error() string {
	where := fmt.Sprintf("position %d", e.Position)
	if e.Line > 0 {
		where = fmt.Sprintf("line %d (position %d)", e.Line, e.Position)
	}
	if e.Token != "" {
		return fmt.Sprintf("parse error at %s near '%s': %s", where, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at %s: %s", where, e.Message)
}

// NewParseError creates a new parse error
func NewParseError(message, token string, position int) error {
	return &ParseError{
		Message:  message,
		Token:    token,
		Position: position,
	}
}

// EvaluationError reports a failure while processing rows: a missing key
// column, or a warning promoted to an error in strict mode.
type EvaluationError struct {
	Expression string
	Row        int
	Cause      error
}

func (e *EvaluationError) Error() string {
	if e.Row >= 0 && e.Cause != nil {
		return fmt.Sprintf("evaluation error for '%s' in row %d: %v", e.Expression, e.Row, e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("evaluation error for '%s': %v", e.Expression, e.Cause)
	}
	return fmt.Sprintf("evaluation error for '%s'", e.Expression)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// NewEvaluationError creates an evaluation error not tied to a row.
func NewEvaluationError(expression string, cause error) error {
	return &EvaluationError{
		Expression: expression,
		Row:        -1,
		Cause:      cause,
	}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var contextParts []string
	for _, k := range keys {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}

	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// IsTemplateError checks if err is or wraps a template error
func IsTemplateError(err error) bool {
	var target *TemplateError
	return errors.As(err, &target)
}

// IsParseError checks if err is or wraps a parse error
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsEvaluationError checks if err is or wraps an evaluation error
func IsEvaluationError(err error) bool {
	var target *EvaluationError
	return errors.As(err, &target)
}
