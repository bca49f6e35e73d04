// Package atr performs bulk find and replace over the contents and names of
// text files. Replacement texts are either fixed strings or per-file texts
// taken from a processed atg.Result.
package atr

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/KaiSD/att/pkg/atg"
)

// Sentinel errors for programmatic error handling.
var (
	ErrUnknownKeyFormat = errors.New("unknown key format")
	ErrLengthMismatch   = errors.New("lists of original and new files have different length")
	ErrNilResult        = errors.New("templated replacement needs a result")
)

// KeyFormat selects how a file is matched to an output name of a templated
// replacement.
type KeyFormat string

const (
	// KeyFilename matches the file's base name, directories ignored.
	KeyFilename KeyFormat = "filename"
	// KeyFullname matches the whole path as given, with '\' read as '/'.
	KeyFullname KeyFormat = "fullname"
	// KeyIndex matches the file's position in the list, starting at 0.
	KeyIndex KeyFormat = "index"
)

// ParseKeyFormat converts a flag value into a KeyFormat.
func ParseKeyFormat(s string) (KeyFormat, error) {
	switch k := KeyFormat(strings.ToLower(strings.TrimSpace(s))); k {
	case KeyFilename, KeyFullname, KeyIndex:
		return k, nil
	case "":
		return KeyFilename, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKeyFormat, s)
	}
}

type rule struct {
	re      *regexp.Regexp
	literal bool
	with    string
	texts   map[string]string
	key     KeyFormat
}

// replacement returns the text this rule substitutes for the file at index,
// and false when the rule does not apply to it.
func (r rule) replacement(file string, index int) (string, bool) {
	if r.texts == nil {
		return r.with, r.with != ""
	}
	var key string
	switch r.key {
	case KeyFullname:
		key = strings.ReplaceAll(file, `\`, "/")
	case KeyIndex:
		key = strconv.Itoa(index)
	default:
		key = path.Base(strings.ReplaceAll(file, `\`, "/"))
	}
	text, ok := r.texts[key]
	return text, ok && text != ""
}

func (r rule) apply(s, with string) string {
	if r.literal {
		return r.re.ReplaceAllLiteralString(s, with)
	}
	return r.re.ReplaceAllString(s, with)
}

// Replacer holds a list of files and an ordered list of replacement rules.
// Rules are applied in the order they were added.
type Replacer struct {
	files []string
	rules []rule
}

// New creates a replacer over files.
func New(files ...string) *Replacer {
	return &Replacer{files: append([]string(nil), files...)}
}

// Files returns the files the replacer works on.
func (r *Replacer) Files() []string {
	return append([]string(nil), r.files...)
}

// Len returns the number of rules.
func (r *Replacer) Len() int { return len(r.rules) }

func compile(pattern string, isRegexp bool) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}
	if !isRegexp {
		pattern = regexp.QuoteMeta(pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	return re, nil
}

// PlainReplace adds a rule replacing pattern with with. When isRegexp is set
// the pattern is a regular expression and with may refer to submatches as
// $1 or ${name}; otherwise both are taken literally. An empty with leaves the
// text unchanged.
func (r *Replacer) PlainReplace(pattern, with string, isRegexp bool) error {
	re, err := compile(pattern, isRegexp)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, rule{re: re, literal: !isRegexp, with: with})
	return nil
}

// TemplatedReplace adds a rule replacing pattern with the text res generated
// for each file. Files are matched to output names using key; files with no
// matching output, or with an empty one, are left unchanged.
func (r *Replacer) TemplatedReplace(pattern string, res *atg.Result, key KeyFormat, isRegexp bool) error {
	if res == nil {
		return ErrNilResult
	}
	if _, err := ParseKeyFormat(string(key)); err != nil {
		return err
	}
	re, err := compile(pattern, isRegexp)
	if err != nil {
		return err
	}
	r.rules = append(r.rules, rule{re: re, literal: !isRegexp, texts: res.Map(), key: key})
	return nil
}

// Clear removes all rules.
func (r *Replacer) Clear() {
	r.rules = nil
}

// Apply runs every rule over text as if it belonged to the file at index.
func (r *Replacer) Apply(text string, index int) string {
	file := ""
	if index >= 0 && index < len(r.files) {
		file = r.files[index]
	}
	for _, rl := range r.rules {
		with, ok := rl.replacement(file, index)
		if !ok {
			continue
		}
		text = rl.apply(text, with)
	}
	return text
}

// WriteInPlace applies the rules to every file and saves the result over the
// original, keeping its permissions.
func (r *Replacer) WriteInPlace() error {
	return r.WriteNewFiles(r.files)
}

// WriteNewFiles applies the rules to every file and saves the i-th result to
// outfiles[i]. Missing parent directories are created. A file that cannot be
// read or written does not stop the others; all failures are returned
// together as an *atg.MultiError.
func (r *Replacer) WriteNewFiles(outfiles []string) error {
	if len(outfiles) != len(r.files) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(r.files), len(outfiles))
	}

	errs := atg.NewMultiError()
	for i, file := range r.files {
		errs.Add(r.writeFile(file, outfiles[i], i))
	}
	return errs.Err()
}

func (r *Replacer) writeFile(file, target string, index int) error {
	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("stat %s: %w", file, err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	out := r.Apply(string(data), index)
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", target, err)
		}
	}
	if err := os.WriteFile(target, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	atg.WithFields(atg.Fields{"source": file, "changed": out != string(data)}).Info("Saved %s", target)
	return nil
}

// ReplaceInNames applies the rules to the file names instead of their
// contents and returns the new names. The result can be passed to
// WriteNewFiles.
func (r *Replacer) ReplaceInNames() []string {
	out := make([]string, len(r.files))
	for i, file := range r.files {
		out[i] = r.Apply(file, i)
	}
	return out
}
