package parser

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// WorksheetTemplate is a skeleton worksheet used as the basis of every
// synthesized worksheet. It is never modified: each synthesis works on its
// own copy, so worksheets can be synthesized in any order.
type WorksheetTemplate struct {
	doc   *etree.Document
	names Names
}

// Worksheet is a synthesized worksheet part.
type Worksheet struct {
	// Doc is the complete worksheet document.
	Doc *etree.Document
	// SheetData is the populated sheetData element inside Doc.
	SheetData *etree.Element
	// Rows is the number of rows transplanted.
	Rows int
	// Dimension is the used range written to <dimension>, if any.
	Dimension string
}

// NewWorksheetTemplate validates doc as a template worksheet. The worksheet
// must contain exactly one sheetData element.
func NewWorksheetTemplate(doc *etree.Document, names Names) (*WorksheetTemplate, error) {
	if doc == nil || doc.Root() == nil {
		return nil, ErrMissingSheetData
	}
	found := xmltree.Descendants(doc.Root(), names.Match(names.SheetData))
	switch {
	case len(found) == 0:
		return nil, ErrMissingSheetData
	case len(found) > 1:
		return nil, fmt.Errorf("%w: found %d", ErrDuplicateSheetData, len(found))
	}
	return &WorksheetTemplate{doc: doc, names: names}, nil
}

// Synthesize returns a copy of the template whose sheetData content is
// replaced by a copy of the content of cached, in order. cached is expected
// to have gone through NormalizeCells already and is not modified.
// Elements in another accepted main namespace (strict versus transitional)
// are moved into the template's namespace. Namespace prefixes of the copied
// elements are rebound to the template's declarations and the <dimension>
// ref is set to the used range.
func (t *WorksheetTemplate) Synthesize(cached *etree.Element) *Worksheet {
	doc := t.doc.Copy()

	sheetData := xmltree.Descendants(doc.Root(), t.names.Match(t.names.SheetData))[0]
	xmltree.RemoveContent(sheetData)
	toTemplate := t.mainMapper(sheetData.NamespaceURI())

	for _, tok := range cached.Child {
		switch tok := tok.(type) {
		case *etree.Element:
			xmltree.Transplant(tok, sheetData, toTemplate)
		case *etree.CharData:
			sheetData.AddChild(etree.NewText(tok.Data))
		case *etree.Comment:
			sheetData.AddChild(etree.NewComment(tok.Data))
		}
	}

	ws := &Worksheet{
		Doc:       doc,
		SheetData: sheetData,
		Rows:      CountRows(sheetData, t.names),
	}
	if ref, ok := UsedRange(sheetData, t.names); ok && setDimension(doc, t.names, ref) {
		ws.Dimension = ref
	}
	return ws
}

// mainMapper moves every accepted main namespace to space.
func (t *WorksheetTemplate) mainMapper(space string) func(string) string {
	return func(uri string) string {
		if t.names.InMain(uri) {
			return space
		}
		return uri
	}
}
