package atg

import (
	"errors"
	"fmt"
	"strings"
)

// VersionMarker starts the first line of every template file.
const VersionMarker = "ATGV2"

// Template flags recognised on the metadata line
const (
	FlagOneFile   = "oneFile"
	FlagTranspose = "transpose"
)

// Metadata is what a template declares about its own output.
type Metadata struct {
	// KeyField names the column that enumerates rows and names outputs.
	KeyField   string `yaml:"key_field"`
	Extension  string `yaml:"extension"`
	NamePrefix string `yaml:"name_prefix"`
	Encoding   string `yaml:"encoding"`
	// OneFile requests all rows in a single output.
	OneFile bool `yaml:"one_file"`
	// Transpose is consumed by table loading; the evaluator ignores it.
	Transpose bool `yaml:"transpose"`
	// Flags holds every flag token as written, recognised or not.
	Flags []string `yaml:"flags,omitempty"`
}

// DefaultMetadata is used for templates built from a body alone.
func DefaultMetadata() Metadata {
	return Metadata{KeyField: "Index", Encoding: "utf-8"}
}

// Template is a parsed, immutable template. It is safe to process one
// Template from several goroutines.
type Template struct {
	Metadata
	body  string
	nodes []Node
}

// Body returns the template body as written.
func (t *Template) Body() string { return t.body }

// Nodes returns the top-level nodes of the parsed body.
func (t *Template) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Parse parses a complete template file: the version marker line, the
// metadata line and the body.
func Parse(text string) (*Template, error) {
	return parseTemplate(text, GetGlobalConfig().MaxNestingDepth)
}

// ParseBody parses a template body with metadata supplied by the caller.
func ParseBody(body string, meta Metadata) (*Template, error) {
	return parseBody(body, meta, GetGlobalConfig().MaxNestingDepth)
}

func parseTemplate(text string, maxDepth int) (*Template, error) {
	first, rest, _ := strings.Cut(text, "\n")
	if !strings.HasPrefix(first, VersionMarker) {
		return nil, NewTemplateError(fmt.Sprintf("not an %s template", VersionMarker), 1, 0)
	}

	second, body, found := strings.Cut(rest, "\n")
	if !found && second == "" {
		return nil, NewTemplateError("missing metadata line", 2, 0)
	}
	meta, err := parseMetadata(strings.TrimSuffix(second, "\r"))
	if err != nil {
		return nil, err
	}

	t, err := parseBody(body, meta, maxDepth)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pos := pe.Position
			if pos > len(body) {
				pos = len(body)
			}
			pe.Line = 3 + strings.Count(body[:pos], "\n")
		}
		return nil, err
	}
	return t, nil
}

// parseMetadata reads "[$key$ext$prefix$enc$flags...$]".
func parseMetadata(line string) (Metadata, error) {
	if !strings.HasPrefix(line, "[$") || !strings.HasSuffix(line, "$]") || len(line) < 4 {
		return Metadata{}, NewTemplateError("metadata line must be a single [$...$] expression", 2, 0)
	}
	fields := strings.Split(line[2:len(line)-2], "$")
	if len(fields) < 4 {
		return Metadata{}, NewTemplateError(
			fmt.Sprintf("metadata needs key, extension, prefix and encoding, got %d fields", len(fields)), 2, 0)
	}

	meta := Metadata{
		KeyField:   fields[0],
		Extension:  fields[1],
		NamePrefix: fields[2],
		Encoding:   fields[3],
	}
	for _, flag := range fields[4:] {
		if flag == "" {
			continue
		}
		meta.Flags = append(meta.Flags, flag)
		switch flag {
		case FlagOneFile:
			meta.OneFile = true
		case FlagTranspose:
			meta.Transpose = true
		}
	}
	return meta, nil
}

func parseBody(body string, meta Metadata, maxDepth int) (*Template, error) {
	if meta.KeyField == "" {
		return nil, NewTemplateError("key field is empty", 2, 0)
	}
	p := &parser{maxDepth: maxDepth}
	nodes, err := p.parseScope(body, 0, 0)
	if err != nil {
		return nil, err
	}

	GetLogger().WithFields(Fields{
		"key":   meta.KeyField,
		"nodes": len(nodes),
	}).Debug("Template parsed")

	return &Template{Metadata: meta, body: body, nodes: nodes}, nil
}

// Header renders the metadata back into the first two lines of a template
// file.
func (m Metadata) Header() string {
	fields := []string{m.KeyField, m.Extension, m.NamePrefix, m.Encoding}
	fields = append(fields, m.Flags...)
	if len(m.Flags) == 0 {
		if m.OneFile {
			fields = append(fields, FlagOneFile)
		}
		if m.Transpose {
			fields = append(fields, FlagTranspose)
		}
	}
	return VersionMarker + "\n[$" + strings.Join(fields, "$") + "$]\n"
}
