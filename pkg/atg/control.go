package atg

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Node is one element of a parsed template scope.
type Node interface {
	// Control reports whether the node is evaluated in the control pass,
	// before plain substitutions of the same scope.
	Control() bool
	String() string
	render(ec *evalContext, sc scope) string
}

// scope carries the innermost repetition of an ATGLIST body. index is 0
// outside any repetition.
type scope struct {
	group string
	index int
}

// expression holds what every bracket node knows about its source.
type expression struct {
	tag string
	raw string
}

// Raw returns the literal bracket expression as written in the template.
func (e expression) Raw() string { return e.raw }

func (e expression) Control() bool { return IsControlTag(e.tag) }

// TextNode represents literal template text
type TextNode struct {
	Content string
}

func (n *TextNode) Control() bool { return false }

func (n *TextNode) String() string {
	return fmt.Sprintf("Text(%q)", n.Content)
}

func (n *TextNode) render(*evalContext, scope) string {
	return n.Content
}

// PlainNode substitutes the cell of Column in the current row. Inside a
// repetition, a Column naming a multi-value group reads that group's member
// for the current repetition.
type PlainNode struct {
	expression
	Column string
}

func (n *PlainNode) Control() bool { return false }

func (n *PlainNode) String() string {
	return fmt.Sprintf("Plain(%s)", n.Column)
}

func (n *PlainNode) render(ec *evalContext, sc scope) string {
	column := ec.resolve(n.Column, sc)
	v, err := ec.cell(column)
	if err != nil {
		ec.warnLookup(CmdPlain, column, err)
		return n.raw
	}
	return v.String()
}

// IndexNode is ATGLINDEX, the 1-based index of the current repetition.
type IndexNode struct {
	expression
}

func (n *IndexNode) String() string { return "ListIndex" }

func (n *IndexNode) render(ec *evalContext, sc scope) string {
	if sc.index == 0 {
		ec.warn(CodeIndexOutsideList, CmdListIndex, "", "ATGLINDEX used outside of a list body")
		return n.raw
	}
	return strconv.Itoa(sc.index)
}

// CaptureNode is ATGHEADER or ATGFOOTER. Its text is collected verbatim into
// the run's header or footer and removed from the flow.
type CaptureNode struct {
	expression
	Footer bool
	Text   string
}

func (n *CaptureNode) String() string {
	if n.Footer {
		return fmt.Sprintf("Footer(%q)", n.Text)
	}
	return fmt.Sprintf("Header(%q)", n.Text)
}

func (n *CaptureNode) render(ec *evalContext, _ scope) string {
	if n.Footer {
		ec.footers = append(ec.footers, n.Text)
	} else {
		ec.headers = append(ec.headers, n.Text)
	}
	return ""
}

// ListNode is ATGLIST or ATGLISTCUT. Body is rendered once per member of
// Group; members whose cell is empty in the current row are left out.
type ListNode struct {
	expression
	Group string
	Cut   bool
	Body  []Node
}

func (n *ListNode) String() string {
	if n.Cut {
		return fmt.Sprintf("ListCut(%s)", n.Group)
	}
	return fmt.Sprintf("List(%s)", n.Group)
}

func (n *ListNode) command() Command {
	if n.Cut {
		return CmdListCut
	}
	return CmdList
}

func (n *ListNode) render(ec *evalContext, _ scope) string {
	count, ok := ec.groups.Count(n.Group)
	if !ok {
		ec.warn(CodeUnknownGroup, n.command(), n.Group, fmt.Sprintf("%q is not a multi-value group", n.Group))
		return n.raw
	}

	var b strings.Builder
	for j := 1; j <= count; j++ {
		text := ec.renderNodes(n.Body, scope{group: n.Group, index: j})
		member := n.Group + strconv.Itoa(j)
		v, err := ec.cell(member)
		if err != nil {
			ec.warnLookup(n.command(), member, err)
			continue
		}
		if v.IsEmpty() {
			continue
		}
		b.WriteString(text)
	}

	out := b.String()
	if n.Cut && out != "" {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return out
}

// CondNode is ATGIF, ATGIFNOT, ATGGREATER or ATGLESS. Body is rendered only
// when the cell of Column compares true against Value.
type CondNode struct {
	expression
	Command Command
	Column  string
	Value   string
	Body    []Node
}

func (n *CondNode) String() string {
	return fmt.Sprintf("%s(%s, %q)", n.Command, n.Column, n.Value)
}

func (n *CondNode) render(ec *evalContext, sc scope) string {
	column := ec.resolve(n.Column, sc)
	v, err := ec.cell(column)
	if err != nil {
		ec.warnLookup(n.Command, column, err)
		return n.raw
	}

	var match bool
	switch n.Command {
	case CmdIf:
		match = v.String() == n.Value
	case CmdIfNot:
		match = v.String() != n.Value
	case CmdGreater, CmdLess:
		left, lerr := v.Float()
		right, rerr := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
		if lerr != nil || rerr != nil {
			ec.warn(CodeNotComparable, n.Command, column,
				fmt.Sprintf("cannot compare %q with %q as numbers", v.String(), n.Value))
			return ""
		}
		if n.Command == CmdGreater {
			match = left > right
		} else {
			match = left < right
		}
	}

	if !match {
		return ""
	}
	return ec.renderNodes(n.Body, sc)
}

// ReplaceNode is ATGREPLACE. It schedules a literal replacement over the
// whole rendered row and removes itself from the flow.
type ReplaceNode struct {
	expression
	From string
	To   string
}

func (n *ReplaceNode) String() string {
	return fmt.Sprintf("Replace(%q, %q)", n.From, n.To)
}

func (n *ReplaceNode) render(ec *evalContext, _ scope) string {
	if n.From == "" {
		ec.warn(CodeEmptyReplace, CmdReplace, "", "ATGREPLACE with empty search text ignored")
		return ""
	}
	ec.schedule(n.From, n.To)
	return ""
}

// PrefixNode is ATGPREFIX. Its rendered body is appended to the row's
// output-name prefix.
type PrefixNode struct {
	expression
	Body []Node
}

func (n *PrefixNode) String() string { return "Prefix" }

func (n *PrefixNode) render(ec *evalContext, sc scope) string {
	ec.prefix += ec.renderNodes(n.Body, sc)
	return ""
}

// SkipNode is ATGSKIP. The row it ends up in is dropped from the output.
type SkipNode struct {
	expression
}

func (n *SkipNode) String() string { return "Skip" }

func (n *SkipNode) render(*evalContext, scope) string {
	return skipMarker
}

// PrevNode is ATGPREV, the value of Column in the previous row. The first
// row has no previous row and is skipped.
type PrevNode struct {
	expression
	Column string
}

func (n *PrevNode) String() string {
	return fmt.Sprintf("Prev(%s)", n.Column)
}

func (n *PrevNode) render(ec *evalContext, sc scope) string {
	column := ec.resolve(n.Column, sc)
	if !ec.hasColumn(column) {
		ec.warn(CodeUnknownColumn, CmdPrev, column, fmt.Sprintf("column %q not found in table", column))
		return n.raw
	}
	if ec.row == 0 {
		ec.logger.WithField("column", column).Info("ATGPREV in the first row, skipping it")
		return skipMarker
	}
	v, err := ec.src.Cell(column, ec.row-1)
	if err != nil {
		ec.warnLookup(CmdPrev, column, err)
		return n.raw
	}
	return v.String()
}

// UnknownNode is a bracket expression with arguments whose tag is not a
// registered command. It is left in the output unchanged.
type UnknownNode struct {
	expression
}

func (n *UnknownNode) String() string {
	return fmt.Sprintf("Unknown(%s)", n.tag)
}

func (n *UnknownNode) render(ec *evalContext, _ scope) string {
	ec.warn(CodeUnknownCommand, CmdUnknown, n.tag, fmt.Sprintf("unknown command %q", n.tag))
	return n.raw
}
