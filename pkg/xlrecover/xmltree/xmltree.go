// Package xmltree reads, edits and writes OOXML parts as etree documents.
//
// etree keeps every namespace prefix as written in the source part, so a
// part can be edited and written back without prefixes being rewritten or
// declarations being duplicated. Callers match elements on the namespace URI
// a prefix resolves to, never on the prefix itself.
package xmltree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Declaration is the XML declaration written at the start of every part.
const Declaration = `version="1.0" encoding="UTF-8" standalone="yes"`

// Header is the serialized form of Declaration, followed by a newline.
const Header = `<?xml ` + Declaration + `?>` + "\n"

// ErrNoRoot is returned when a document has no root element.
var ErrNoRoot = errors.New("xmltree: no root element")

// ErrMultipleRoots is returned when a document has more than one root element.
var ErrMultipleRoots = errors.New("xmltree: more than one root element")

// NewDocument returns an empty document that decodes non-UTF-8 input
// according to the encoding named in its XML declaration.
func NewDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	return doc
}

// Parse reads a complete XML document from r.
func Parse(r io.Reader) (*etree.Document, error) {
	doc := NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, err
	}
	switch roots := len(doc.ChildElements()); {
	case roots == 0:
		return nil, ErrNoRoot
	case roots > 1:
		return nil, ErrMultipleRoots
	}
	return doc, nil
}

// ParseBytes parses the XML document held in data.
func ParseBytes(data []byte) (*etree.Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile parses the XML document stored at path.
func ParseFile(path string) (*etree.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Bytes serializes doc with a UTF-8 declaration in place of the one it was
// read with. doc itself is not modified.
func Bytes(doc *etree.Document) ([]byte, error) {
	out := doc.Copy()
	setDeclaration(out)
	return out.WriteToBytes()
}

// WriteFile serializes doc to path, creating parent directories.
func WriteFile(doc *etree.Document, path string) error {
	data, err := Bytes(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// String returns el serialized on its own, without a declaration.
func String(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// setDeclaration replaces any leading XML declaration of doc, and the
// whitespace around it, with Header.
func setDeclaration(doc *etree.Document) {
	for len(doc.Child) > 0 && isHeaderToken(doc.Child[0]) {
		doc.RemoveChildAt(0)
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", Declaration))
	doc.InsertChildAt(1, etree.NewText("\n"))
}

func isHeaderToken(t etree.Token) bool {
	switch t := t.(type) {
	case *etree.ProcInst:
		return t.Target == "xml"
	case *etree.CharData:
		return strings.TrimSpace(t.Data) == ""
	}
	return false
}
