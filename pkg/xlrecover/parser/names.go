// Package parser provides the OOXML part handling used to turn cached
// external-link data into worksheets.
package parser

import (
	"slices"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// SpreadsheetML and package namespaces, transitional and strict.
const (
	NSMain       = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NSMainStrict = "http://purl.oclc.org/ooxml/spreadsheetml/main"

	NSRelationships       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NSRelationshipsStrict = "http://purl.oclc.org/ooxml/officeDocument/relationships"

	NSPackageRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	NSContentTypes         = "http://schemas.openxmlformats.org/package/2006/content-types"
)

// Relationship and content types for worksheet parts.
const (
	RelTypeWorksheet       = NSRelationships + "/worksheet"
	RelTypeWorksheetStrict = NSRelationshipsStrict + "/worksheet"
	ContentTypeWorksheet   = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
)

// Names identifies the SpreadsheetML elements the parser works on. Elements
// match when their namespace URI is one of Namespaces and their local name
// equals the configured one; prefixes are never compared.
type Names struct {
	// Namespaces lists the accepted SpreadsheetML main namespace URIs.
	Namespaces []string `yaml:"namespaces"`
	// SheetData is the local name of the row container.
	SheetData string `yaml:"sheet_data"`
	// Row is the local name of a row.
	Row string `yaml:"row"`
	// Cell is the canonical worksheet cell name.
	Cell string `yaml:"cell"`
	// LegacyCells lists cell names used by external-link caches.
	LegacyCells []string `yaml:"legacy_cells"`
	// Dimension is the worksheet used-range element.
	Dimension string `yaml:"dimension"`
	// Sheets and Sheet are the workbook sheet list and its entries.
	Sheets string `yaml:"sheets"`
	Sheet  string `yaml:"sheet"`
	// BookViews and WorkbookView hold the workbook window settings.
	BookViews    string `yaml:"book_views"`
	WorkbookView string `yaml:"workbook_view"`
	// SheetNames and SheetName list the cached sheet names of an external
	// book.
	SheetNames string `yaml:"sheet_names"`
	SheetName  string `yaml:"sheet_name"`
}

// DefaultNames returns the element names used by Excel.
func DefaultNames() Names {
	return Names{
		Namespaces:   []string{NSMain, NSMainStrict},
		SheetData:    "sheetData",
		Row:          "row",
		Cell:         "c",
		LegacyCells:  []string{"cell"},
		Dimension:    "dimension",
		Sheets:       "sheets",
		Sheet:        "sheet",
		BookViews:    "bookViews",
		WorkbookView: "workbookView",
		SheetNames:   "sheetNames",
		SheetName:    "sheetName",
	}
}

// WithDefaults returns n with every unset field taken from DefaultNames.
func (n Names) WithDefaults() Names {
	def := DefaultNames()
	if len(n.Namespaces) == 0 {
		n.Namespaces = def.Namespaces
	}
	if n.LegacyCells == nil {
		n.LegacyCells = def.LegacyCells
	}
	setDefault(&n.SheetData, def.SheetData)
	setDefault(&n.Row, def.Row)
	setDefault(&n.Cell, def.Cell)
	setDefault(&n.Dimension, def.Dimension)
	setDefault(&n.Sheets, def.Sheets)
	setDefault(&n.Sheet, def.Sheet)
	setDefault(&n.BookViews, def.BookViews)
	setDefault(&n.WorkbookView, def.WorkbookView)
	setDefault(&n.SheetNames, def.SheetNames)
	setDefault(&n.SheetName, def.SheetName)
	return n
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// InMain reports whether space is an accepted main namespace.
func (n Names) InMain(space string) bool {
	return slices.Contains(n.Namespaces, space)
}

// Match returns a predicate for main-namespace elements named local.
func (n Names) Match(local string) xmltree.Match {
	return func(el *etree.Element) bool {
		return el.Tag == local && n.InMain(el.NamespaceURI())
	}
}

func (n Names) isLegacyCell(el *etree.Element) bool {
	return slices.Contains(n.LegacyCells, el.Tag) && n.InMain(el.NamespaceURI())
}
