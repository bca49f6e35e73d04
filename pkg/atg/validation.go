package atg

import (
	"fmt"
	"sort"
)

// Reference is a column or multi-value group named by a template.
type Reference struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
	// Group is set for ATGLIST and ATGLISTCUT group names.
	Group bool `yaml:"group,omitempty"`
}

// walkNodes calls fn for every node of the tree in source order. inList is
// set for nodes inside an ATGLIST body.
func walkNodes(nodes []Node, inList bool, fn func(n Node, inList bool)) {
	for _, n := range nodes {
		fn(n, inList)
		switch n := n.(type) {
		case *ListNode:
			walkNodes(n.Body, true, fn)
		case *CondNode:
			walkNodes(n.Body, inList, fn)
		case *PrefixNode:
			walkNodes(n.Body, inList, fn)
		}
	}
}

// References returns every distinct column and group the template reads,
// sorted by name. The key field is included.
func (t *Template) References() []Reference {
	seen := map[Reference]bool{}
	add := func(r Reference) {
		seen[r] = true
	}
	add(Reference{Name: t.KeyField, Command: "key"})

	walkNodes(t.nodes, false, func(n Node, _ bool) {
		switch n := n.(type) {
		case *PlainNode:
			add(Reference{Name: n.Column, Command: CmdPlain.String()})
		case *CondNode:
			add(Reference{Name: n.Column, Command: n.Command.String()})
		case *PrevNode:
			add(Reference{Name: n.Column, Command: CmdPrev.String()})
		case *ListNode:
			add(Reference{Name: n.Group, Command: n.command().String(), Group: true})
		}
	})

	out := make([]Reference, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Command < out[j].Command
	})
	return out
}

// Validate checks the template against a column set without rendering any
// row. It reports the warnings that processing a table with these columns
// would produce regardless of cell values.
func (t *Template) Validate(columns []string) []Diagnostic {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	groups := BuildMultiValueIndex(columns)

	var diags []Diagnostic
	report := func(code string, cmd Command, subject, message string) {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     code,
			Row:      -1,
			Command:  cmd.String(),
			Subject:  subject,
			Message:  message,
		})
	}
	checkColumn := func(cmd Command, name string, inList bool) {
		if known[name] {
			return
		}
		if _, ok := groups.Count(name); ok && inList {
			return
		}
		report(CodeUnknownColumn, cmd, name, fmt.Sprintf("column %q not found in table", name))
	}

	if !known[t.KeyField] {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeUnknownColumn,
			Row:      -1,
			Command:  "key",
			Subject:  t.KeyField,
			Message:  fmt.Sprintf("key column %q not found in table", t.KeyField),
		})
	}

	walkNodes(t.nodes, false, func(n Node, inList bool) {
		switch n := n.(type) {
		case *PlainNode:
			checkColumn(CmdPlain, n.Column, inList)
		case *CondNode:
			checkColumn(n.Command, n.Column, inList)
		case *PrevNode:
			checkColumn(CmdPrev, n.Column, inList)
		case *ListNode:
			if _, ok := groups.Count(n.Group); !ok {
				report(CodeUnknownGroup, n.command(), n.Group, fmt.Sprintf("%q is not a multi-value group", n.Group))
			}
		case *IndexNode:
			if !inList {
				report(CodeIndexOutsideList, CmdListIndex, "", "ATGLINDEX used outside of a list body")
			}
		case *ReplaceNode:
			if n.From == "" {
				report(CodeEmptyReplace, CmdReplace, "", "ATGREPLACE with empty search text ignored")
			}
		case *UnknownNode:
			report(CodeUnknownCommand, CmdUnknown, n.tag, fmt.Sprintf("unknown command %q", n.tag))
		}
	})
	return diags
}
