package table

import (
	"strconv"
	"strings"
)

// Kind identifies the scalar type held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Value is a single typed table cell. The zero Value is empty text.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Int returns an integer cell.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating-point cell.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Infer types a raw cell once, at load time. The fallback order is fixed:
// integer first, then floating-point, then the raw text unchanged.
// Surrounding whitespace is ignored for the numeric attempts only.
func Infer(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Text(raw)
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Float(f)
	}
	return Text(raw)
}

// Kind returns the scalar type of v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is empty text. Numeric zero is not empty.
func (v Value) IsEmpty() bool { return v.kind == KindText && v.s == "" }

// String renders the cell the way it is substituted into templates.
// Integral floats keep a trailing ".0" so 2.0 and 2 stay distinguishable.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	default:
		return v.s
	}
}

// Float converts v to a float64. Text cells are parsed.
func (v Value) Float() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	default:
		return strconv.ParseFloat(strings.TrimSpace(v.s), 64)
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
