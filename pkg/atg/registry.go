package atg

import (
	"sort"
	"strings"
)

// Command identifies what a bracket expression does.
type Command int

const (
	CmdPlain Command = iota
	CmdListIndex
	CmdHeader
	CmdFooter
	CmdList
	CmdListCut
	CmdIf
	CmdIfNot
	CmdGreater
	CmdLess
	CmdReplace
	CmdPrefix
	CmdSkip
	CmdPrev
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdPlain:     "plain",
	CmdListIndex: "ATGLINDEX",
	CmdHeader:    "ATGHEADER",
	CmdFooter:    "ATGFOOTER",
	CmdList:      "ATGLIST",
	CmdListCut:   "ATGLISTCUT",
	CmdIf:        "ATGIF",
	CmdIfNot:     "ATGIFNOT",
	CmdGreater:   "ATGGREATER",
	CmdLess:      "ATGLESS",
	CmdReplace:   "ATGREPLACE",
	CmdPrefix:    "ATGPREFIX",
	CmdSkip:      "ATGSKIP",
	CmdPrev:      "ATGPREV",
	CmdUnknown:   "unknown",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// registry maps every command tag to its command. It is fixed at start-up.
var registry = map[string]Command{
	"ATGLINDEX":  CmdListIndex,
	"ATGHEADER":  CmdHeader,
	"ATGkey":     CmdHeader,
	"ATGFOOTER":  CmdFooter,
	"ATGLIST":    CmdList,
	"ATGLISTCUT": CmdListCut,
	"ATGIF":      CmdIf,
	"ATGIFNOT":   CmdIfNot,
	"ATGGREATER": CmdGreater,
	"ATGLESS":    CmdLess,
	"ATGREPLACE": CmdReplace,
	"ATGPREFIX":  CmdPrefix,
	"ATGSKIP":    CmdSkip,
	"ATGPREV":    CmdPrev,
}

// LookupCommand classifies a tag. Tags missing from the registry are plain
// column substitutions when they carry no arguments and unknown commands
// otherwise.
func LookupCommand(tag, args string) Command {
	if cmd, ok := registry[tag]; ok {
		return cmd
	}
	if args == "" {
		return CmdPlain
	}
	return CmdUnknown
}

// CommandTags returns every registered tag in sorted order.
func CommandTags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// parser turns text into a node tree, one scope at a time.
type parser struct {
	maxDepth int
}

// parseScope parses text found at byte offset base of the template body.
func (p *parser) parseScope(text string, base, depth int) ([]Node, error) {
	if p.maxDepth > 0 && depth > p.maxDepth {
		return nil, &ParseError{Message: "bracket expressions nested too deeply", Position: base}
	}

	spans, err := MatchSpans(text)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Position += base
		}
		return nil, err
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })

	var nodes []Node
	last := 0
	for _, sp := range spans {
		if sp.Start > last {
			nodes = append(nodes, &TextNode{Content: text[last:sp.Start]})
		}
		node, err := p.build(sp, base, depth)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		last = sp.End
	}
	if last < len(text) {
		nodes = append(nodes, &TextNode{Content: text[last:]})
	}
	return nodes, nil
}

// build creates the node for one span, parsing command bodies as nested scopes.
func (p *parser) build(sp Span, base, depth int) (Node, error) {
	expr := expression{tag: sp.Tag, raw: sp.Raw}
	argsBase := base + sp.argsOffset()

	switch cmd := LookupCommand(sp.Tag, sp.Args); cmd {
	case CmdPlain:
		return &PlainNode{expression: expr, Column: sp.Tag}, nil

	case CmdListIndex:
		return &IndexNode{expression: expr}, nil

	case CmdHeader, CmdFooter:
		return &CaptureNode{expression: expr, Footer: cmd == CmdFooter, Text: sp.Args}, nil

	case CmdList, CmdListCut:
		group, body, _ := strings.Cut(sp.Args, "$")
		children, err := p.parseScope(body, argsBase+len(group)+1, depth+1)
		if err != nil {
			return nil, err
		}
		return &ListNode{expression: expr, Group: group, Cut: cmd == CmdListCut, Body: children}, nil

	case CmdIf, CmdIfNot, CmdGreater, CmdLess:
		column, rest, ok := strings.Cut(sp.Args, "$")
		if !ok {
			return nil, &ParseError{
				Message:  cmd.String() + " needs a column and a value",
				Token:    sp.Raw,
				Position: sp.Start + base,
			}
		}
		value, body, _ := strings.Cut(rest, "$")
		children, err := p.parseScope(body, argsBase+len(column)+len(value)+2, depth+1)
		if err != nil {
			return nil, err
		}
		return &CondNode{expression: expr, Command: cmd, Column: column, Value: value, Body: children}, nil

	case CmdReplace:
		from, to, _ := strings.Cut(sp.Args, "$")
		return &ReplaceNode{expression: expr, From: from, To: to}, nil

	case CmdPrefix:
		children, err := p.parseScope(sp.Args, argsBase, depth+1)
		if err != nil {
			return nil, err
		}
		return &PrefixNode{expression: expr, Body: children}, nil

	case CmdSkip:
		return &SkipNode{expression: expr}, nil

	case CmdPrev:
		column, _, _ := strings.Cut(sp.Args, "$")
		return &PrevNode{expression: expr, Column: column}, nil

	default:
		return &UnknownNode{expression: expr}, nil
	}
}
