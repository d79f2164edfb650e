package parser

import (
	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// LocateSheetData returns the first sheetData element of doc, in document
// order and at any depth, that has at least one row descendant. The
// returned element still belongs to doc.
func LocateSheetData(doc *etree.Document, names Names) (*etree.Element, bool) {
	if doc == nil || doc.Root() == nil {
		return nil, false
	}

	isSheetData := names.Match(names.SheetData)
	isRow := names.Match(names.Row)

	root := doc.Root()
	var candidates []*etree.Element
	if isSheetData(root) {
		candidates = append(candidates, root)
	}
	candidates = append(candidates, xmltree.Descendants(root, isSheetData)...)

	for _, sd := range candidates {
		if xmltree.HasDescendant(sd, isRow) {
			return sd, true
		}
	}
	return nil, false
}

// NormalizeCells renames the legacy cell elements found directly inside the
// rows of sheetData to the canonical worksheet cell name. Prefixes,
// attributes and content are left untouched. It returns the number of
// elements renamed, so a second call on the same tree returns 0.
func NormalizeCells(sheetData *etree.Element, names Names) int {
	renamed := 0
	for _, row := range sheetData.ChildElements() {
		for _, cell := range row.ChildElements() {
			if names.isLegacyCell(cell) {
				cell.Tag = names.Cell
				renamed++
			}
		}
	}
	return renamed
}

// CountRows returns the number of row elements directly inside sheetData.
func CountRows(sheetData *etree.Element, names Names) int {
	isRow := names.Match(names.Row)
	n := 0
	for _, el := range sheetData.ChildElements() {
		if isRow(el) {
			n++
		}
	}
	return n
}
