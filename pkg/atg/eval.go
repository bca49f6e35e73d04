package atg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaiSD/att/pkg/atg/table"
)

// skipMarker is rendered by ATGSKIP. A row whose text contains it after
// replacements is dropped.
const skipMarker = "\x00atg:skip\x00"

type replacement struct {
	from, to string
}

// evalContext holds everything one row evaluation reads and mutates. A fresh
// context is created for every row; header and footer contributions are
// merged into the run afterwards.
type evalContext struct {
	src    Source
	groups MultiValueIndex
	row    int
	logger *Logger

	prefix       string
	replacements []replacement
	headers      []string
	footers      []string
	diags        []Diagnostic
}

// rowResult is the outcome of evaluating one row.
type rowResult struct {
	index   int
	name    string
	text    string
	skipped bool
	// prefix is the name prefix after ATGPREFIX, set for skipped rows too.
	prefix  string
	headers []string
	footers []string
	diags   []Diagnostic
}

func newEvalContext(t *Template, src Source, groups MultiValueIndex, row int, logger *Logger) *evalContext {
	return &evalContext{
		src:    src,
		groups: groups,
		row:    row,
		logger: logger.WithField("row", row),
		prefix: t.NamePrefix,
	}
}

// evaluateRow renders the template body for one row and derives its output name.
func evaluateRow(t *Template, src Source, groups MultiValueIndex, row int, logger *Logger) (rowResult, error) {
	ec := newEvalContext(t, src, groups, row, logger)

	text := ec.renderNodes(t.nodes, scope{})
	for _, r := range ec.replacements {
		text = strings.ReplaceAll(text, r.from, r.to)
	}

	res := rowResult{
		index:   row,
		prefix:  ec.prefix,
		headers: ec.headers,
		footers: ec.footers,
		diags:   ec.diags,
	}

	key, err := src.Cell(t.KeyField, row)
	if err != nil {
		return res, &EvaluationError{Expression: t.KeyField, Row: row, Cause: err}
	}

	if strings.Contains(text, skipMarker) {
		ec.logger.WithField("key", key.String()).Info("Skip marker found, row dropped")
		res.skipped = true
		return res, nil
	}

	res.name = ec.prefix + key.String()
	res.text = text
	ec.logger.WithField("name", res.name).Debug("Row rendered")
	return res, nil
}

// renderNodes renders one scope. Control nodes run first so their effects on
// the context are in place before plain substitutions; the rendered parts are
// then joined in source order.
func (ec *evalContext) renderNodes(nodes []Node, sc scope) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		if n.Control() {
			parts[i] = n.render(ec, sc)
		}
	}
	for i, n := range nodes {
		if !n.Control() {
			parts[i] = n.render(ec, sc)
		}
	}
	return strings.Join(parts, "")
}

// resolve maps a column reference to the column it reads in scope sc. Inside
// a repetition, a multi-value group name reads the member of the current
// repetition.
func (ec *evalContext) resolve(name string, sc scope) string {
	if sc.index == 0 {
		return name
	}
	if _, ok := ec.groups.Count(name); ok {
		return name + strconv.Itoa(sc.index)
	}
	return name
}

func (ec *evalContext) cell(column string) (table.Value, error) {
	return ec.src.Cell(column, ec.row)
}

func (ec *evalContext) hasColumn(column string) bool {
	return containsString(ec.src.Columns(), column)
}

// schedule records a replacement to run over the rendered row. Scheduling
// the same search text again updates its replacement in place.
func (ec *evalContext) schedule(from, to string) {
	for i := range ec.replacements {
		if ec.replacements[i].from == from {
			ec.replacements[i].to = to
			return
		}
	}
	ec.replacements = append(ec.replacements, replacement{from: from, to: to})
}

func (ec *evalContext) warn(code string, cmd Command, subject, message string) {
	ec.diags = append(ec.diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Row:      ec.row,
		Command:  cmd.String(),
		Subject:  subject,
		Message:  message,
	})
	ec.logger.WithFields(Fields{
		"code":    code,
		"command": cmd.String(),
		"subject": subject,
	}).Warn("%s", message)
}

// warnLookup reports a failed cell or column lookup.
func (ec *evalContext) warnLookup(cmd Command, column string, err error) {
	switch {
	case errors.Is(err, table.ErrUnknownColumn):
		ec.warn(CodeUnknownColumn, cmd, column, fmt.Sprintf("column %q not found in table", column))
	default:
		ec.warn(CodeMissingCell, cmd, column, fmt.Sprintf("no value for column %q: %v", column, err))
	}
}
