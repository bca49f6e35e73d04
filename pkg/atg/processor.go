package atg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaiSD/att/pkg/atg/table"
)

// Source is the table a template is processed against. *table.Table
// implements it.
type Source interface {
	Columns() []string
	Len() int
	Cell(column string, row int) (table.Value, error)
}

// File is the output of one non-skipped row.
type File struct {
	Name string
	Text string
	// Row is the index of the row that produced the file.
	Row int
}

// Result is the outcome of one run of a template over a table.
type Result struct {
	// OneFile is set when the run produced a single text.
	OneFile bool
	// Text is header, every file text in row order and footer. Only set
	// when OneFile is set.
	Text string
	// Files lists every non-skipped row in row order.
	Files []File
	// Header and Footer are the deduplicated ATGHEADER and ATGFOOTER text
	// of the whole run.
	Header string
	Footer string
	// Prefix is the name prefix of the last evaluated row, including its
	// ATGPREFIX contributions. Single-file output is named after it.
	Prefix string

	Diagnostics []Diagnostic

	// Extension and Encoding are copied from the template for the writer.
	Extension string
	Encoding  string
}

// Map returns the per-file outputs, each wrapped in the run header and
// footer. When two rows produce the same name the later row wins.
func (r *Result) Map() map[string]string {
	out := make(map[string]string, len(r.Files))
	for _, f := range r.Files {
		out[f.Name] = r.Header + f.Text + r.Footer
	}
	return out
}

// Names returns the output names in row order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Files))
	for i, f := range r.Files {
		names[i] = f.Name
	}
	return names
}

type processOptions struct {
	oneFile *bool
	workers int
	strict  bool
	logger  *Logger
}

// ProcessOption adjusts a single run.
type ProcessOption func(*processOptions)

// WithOneFile overrides the template's oneFile flag.
func WithOneFile(oneFile bool) ProcessOption {
	return func(o *processOptions) {
		o.oneFile = &oneFile
	}
}

// WithWorkers sets how many rows are evaluated concurrently.
func WithWorkers(n int) ProcessOption {
	return func(o *processOptions) {
		o.workers = n
	}
}

// WithStrict turns the first warning of the run into an error.
func WithStrict(strict bool) ProcessOption {
	return func(o *processOptions) {
		o.strict = strict
	}
}

// WithLogger sets the logger a run writes to.
func WithLogger(logger *Logger) ProcessOption {
	return func(o *processOptions) {
		o.logger = logger
	}
}

// Process evaluates the template once per row of src. Rows may be
// evaluated concurrently; the result does not depend on the worker count.
func (t *Template) Process(ctx context.Context, src Source, opts ...ProcessOption) (*Result, error) {
	config := GetGlobalConfig()
	o := processOptions{
		workers: config.Workers,
		strict:  config.StrictMode,
		logger:  GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	oneFile := t.OneFile
	if o.oneFile != nil {
		oneFile = *o.oneFile
	}

	columns := src.Columns()
	if !containsString(columns, t.KeyField) {
		return nil, NewEvaluationError(t.KeyField,
			fmt.Errorf("%w: key column %q", table.ErrUnknownColumn, t.KeyField))
	}

	groups := BuildMultiValueIndex(columns)
	logger := o.logger.WithFields(Fields{
		"run_id": uuid.NewString(),
		"key":    t.KeyField,
	})
	logger.WithFields(Fields{
		"rows":    src.Len(),
		"workers": o.workers,
	}).Info("Processing template")

	rows, err := t.evaluateRows(ctx, src, groups, logger, o)
	if err != nil {
		return nil, err
	}

	res := &Result{
		OneFile:   oneFile,
		Prefix:    t.NamePrefix,
		Extension: t.Extension,
		Encoding:  t.Encoding,
	}
	seen := make(map[string]int)
	var body strings.Builder
	for _, r := range rows {
		res.Diagnostics = append(res.Diagnostics, r.diags...)
		res.Prefix = r.prefix
		for _, h := range r.headers {
			res.Header = appendOnce(res.Header, h)
		}
		for _, f := range r.footers {
			res.Footer = appendOnce(res.Footer, f)
		}
		if r.skipped {
			continue
		}

		if prev, ok := seen[r.name]; ok {
			d := Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeDuplicateName,
				Row:      r.index,
				Subject:  r.name,
				Message:  fmt.Sprintf("output name %q already produced by row %d", r.name, prev),
			}
			res.Diagnostics = append(res.Diagnostics, d)
			logger.WithFields(Fields{"row": r.index, "name": r.name}).Warn("%s", d.Message)
		}
		seen[r.name] = r.index

		res.Files = append(res.Files, File{Name: r.name, Text: r.text, Row: r.index})
		body.WriteString(r.text)
	}
	if oneFile {
		res.Text = res.Header + body.String() + res.Footer
	}

	if o.strict {
		if err := strictError(res.Diagnostics); err != nil {
			return nil, err
		}
	}

	logger.WithFields(Fields{
		"files":       len(res.Files),
		"diagnostics": len(res.Diagnostics),
	}).Info("Template processed")
	return res, nil
}

// evaluateRows evaluates every row and returns the results in row order.
func (t *Template) evaluateRows(ctx context.Context, src Source, groups MultiValueIndex, logger *Logger, o processOptions) ([]rowResult, error) {
	n := src.Len()
	results := make([]rowResult, n)

	if o.workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := evaluateRow(t, src, groups, i, logger)
			if err != nil {
				return nil, err
			}
			results[i] = r
			if o.strict {
				if err := strictError(r.diags); err != nil {
					return nil, err
				}
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := evaluateRow(t, src, groups, i, logger)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// strictError converts the first warning in ds into an *EvaluationError.
func strictError(ds []Diagnostic) error {
	for _, d := range ds {
		if d.Severity != SeverityWarning {
			continue
		}
		expr := d.Subject
		if expr == "" {
			expr = d.Command
		}
		return &EvaluationError{
			Expression: expr,
			Row:        d.Row,
			Cause:      fmt.Errorf("%s: %s", d.Code, d.Message),
		}
	}
	return nil
}

// appendOnce appends text to acc unless acc already contains it.
func appendOnce(acc, text string) string {
	if strings.Contains(acc, text) {
		return acc
	}
	return acc + text
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
