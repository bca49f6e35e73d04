// Package textenc resolves the text encoding names declared by templates and
// command-line flags ("utf-8", "cp1251", "windows-1252", "latin1", ...) and
// converts between those encodings and Go's native UTF-8 strings.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Lookup returns the encoding registered under name. An empty name means UTF-8.
// WHATWG labels are tried first, then IANA names.
func Lookup(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	if enc, err := htmlindex.Get(label); err == nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// IsUTF8 reports whether name resolves to plain UTF-8.
func IsUTF8(name string) bool {
	enc, err := Lookup(name)
	return err == nil && enc == unicode.UTF8
}

// NewReader wraps r so that it yields UTF-8 text decoded from the named
// encoding. A leading byte order mark always wins over the declared name.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// Decode converts b from the named encoding to a UTF-8 string.
func Decode(b []byte, name string) (string, error) {
	r, err := NewReader(bytes.NewReader(b), name)
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}

// Encode converts text to the named encoding. Characters the target
// encoding cannot represent produce an error.
func Encode(text, name string) ([]byte, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(text), nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", name, err)
	}
	return out, nil
}
