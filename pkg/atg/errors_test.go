package atg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "TemplateError with line and column",
			err:     &TemplateError{Message: "invalid key", Line: 2, Column: 5},
			wantMsg: "template error at line 2, column 5: invalid key",
		},
		{
			name:    "TemplateError with line",
			err:     NewTemplateError("not an ATGV2 template", 1, 0),
			wantMsg: "template error at line 1: not an ATGV2 template",
		},
		{
			name:    "ParseError",
			err:     NewParseError("closing delimiter has no matching opener", "$]", 42),
			wantMsg: "parse error at position 42 near '$]': closing delimiter has no matching opener",
		},
		{
			name:    "ParseError with line",
			err:     &ParseError{Message: "too deep", Position: 7, Line: 4},
			wantMsg: "parse error at line 4 (position 7): too deep",
		},
		{
			name:    "EvaluationError in a row",
			err:     &EvaluationError{Expression: "ID", Row: 3, Cause: errors.New("missing cell")},
			wantMsg: "evaluation error for 'ID' in row 3: missing cell",
		},
		{
			name:    "EvaluationError without row",
			err:     NewEvaluationError("ID", errors.New("unknown column")),
			wantMsg: "evaluation error for 'ID': unknown column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	wrapped := WithContext(NewParseError("bad", "", 1), "prepare template", map[string]interface{}{"path": "a.atg"})

	assert.True(t, IsParseError(wrapped))
	assert.False(t, IsTemplateError(wrapped))
	assert.False(t, IsEvaluationError(wrapped))
	assert.Equal(t, "prepare template [path=a.atg]: parse error at position 1: bad", wrapped.Error())

	assert.Nil(t, WithContext(nil, "noop", nil))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())
	assert.Equal(t, "no errors", m.Error())

	first := NewTemplateError("first", 1, 0)
	m.Add(first)
	m.Add(nil)
	assert.Equal(t, 1, m.Len())
	assert.Same(t, first, m.Err())

	m.Add(NewEvaluationError("x", errors.New("second")))
	assert.Equal(t, 2, m.Len())
	assert.True(t, IsTemplateError(m.Err()))
	assert.True(t, IsEvaluationError(m.Err()))
	assert.Contains(t, m.Error(), "2 errors occurred:")
	assert.Contains(t, m.Error(), "[2] evaluation error for 'x': second")
}
