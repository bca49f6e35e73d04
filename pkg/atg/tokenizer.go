package atg

import (
	"regexp"
	"strings"
)

// controlPrefix marks tags whose commands can consume, suppress or repeat
// their own body text.
const controlPrefix = "ATG"

var (
	// An opener is "[$", a tag without '$' or newlines, and the first '$'.
	openerRegex = regexp.MustCompile(`\[\$.*?\$`)
	closerRegex = regexp.MustCompile(`\$\]`)
)

// Span is one top-level bracket expression found in a scope of text.
type Span struct {
	// Tag is the text between "[$" and the first following "$".
	Tag string
	// Args is the raw text between the opener and the matching closer.
	// It may contain nested bracket expressions.
	Args string
	// Raw is the whole literal expression, text[Start:End].
	Raw string
	// Start and End are byte offsets of the expression in the scanned text.
	Start, End int
	// Control is set for tags in the control namespace.
	Control bool
}

// argsOffset returns the byte offset of Args within the scanned text.
func (s Span) argsOffset() int {
	return s.Start + len("[$") + len(s.Tag) + len("$")
}

// IsControlTag reports whether tag belongs to the control namespace.
func IsControlTag(tag string) bool {
	return strings.HasPrefix(tag, controlPrefix)
}

type delimiter struct {
	start, end int
}

// MatchSpans scans text for bracket expressions and returns the top-level
// ones. Every closer matches the most recently opened expression that is
// still open. Expressions nested inside another expression stay folded into
// its Args.
//
// Control spans come first, then plain spans; each group keeps the order in
// which its closers were matched. An unmatched closer or an opener that is
// never closed is a *ParseError.
func MatchSpans(text string) ([]Span, error) {
	openers := findDelimiters(openerRegex, text)
	closers := findDelimiters(closerRegex, text)

	logger := GetLogger()
	if logger.IsDebugMode() {
		logger.WithFields(Fields{
			"text_length": len(text),
			"openers":     len(openers),
			"closers":     len(closers),
		}).Debug("Matching bracket spans")
	}

	var (
		stack   []delimiter
		control []Span
		plain   []Span
		next    int
	)
	for _, cl := range closers {
		for next < len(openers) && openers[next].start < cl.start {
			stack = append(stack, openers[next])
			next++
		}
		if len(stack) == 0 {
			return nil, NewParseError("closing delimiter has no matching opener", "$]", cl.start)
		}
		op := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			continue
		}

		span := newSpan(text, op, cl)
		if span.Control {
			control = append(control, span)
		} else {
			plain = append(plain, span)
		}
	}

	if len(stack) > 0 {
		op := stack[0]
		return nil, NewParseError("opening delimiter is never closed", text[op.start:op.end], op.start)
	}
	if next < len(openers) {
		op := openers[next]
		return nil, NewParseError("opening delimiter is never closed", text[op.start:op.end], op.start)
	}

	return append(control, plain...), nil
}

func findDelimiters(re *regexp.Regexp, text string) []delimiter {
	matches := re.FindAllStringIndex(text, -1)
	out := make([]delimiter, len(matches))
	for i, m := range matches {
		out[i] = delimiter{start: m[0], end: m[1]}
	}
	return out
}

func newSpan(text string, op, cl delimiter) Span {
	tag := text[op.start+len("[$") : op.end-len("$")]
	args := ""
	// In "[$Tag$]" the closer reuses the opener's trailing '$'.
	if cl.start >= op.end {
		args = text[op.end:cl.start]
	}
	return Span{
		Tag:     tag,
		Args:    args,
		Raw:     text[op.start:cl.end],
		Start:   op.start,
		End:     cl.end,
		Control: IsControlTag(tag),
	}
}
