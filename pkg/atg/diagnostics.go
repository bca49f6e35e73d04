package atg

import "fmt"

// Severity of a Diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic codes
const (
	CodeUnknownColumn    = "UNKNOWN_COLUMN"
	CodeUnknownGroup     = "UNKNOWN_GROUP"
	CodeNotComparable    = "NOT_COMPARABLE"
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeMissingCell      = "MISSING_CELL"
	CodeIndexOutsideList = "INDEX_OUTSIDE_LIST"
	CodeEmptyReplace     = "EMPTY_REPLACE"
	CodeDuplicateName    = "DUPLICATE_NAME"
)

// Diagnostic is a non-fatal condition met while validating or evaluating a
// template. Row is -1 when the condition is not tied to a row.
type Diagnostic struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`
	Row      int      `json:"row" yaml:"row"`
	Command  string   `json:"command,omitempty" yaml:"command,omitempty"`
	Subject  string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Row >= 0 {
		return fmt.Sprintf("%s row %d: [%s] %s", d.Severity, d.Row, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", d.Severity, d.Code, d.Message)
}

// Warnings returns only the warning-level diagnostics of ds.
func Warnings(ds []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}
