package parser

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
	"github.com/xuri/excelize/v2"
)

// UsedRange returns the cell range covered by the cell references inside
// sheetData (e.g. "A1:D10", or "B2" for a single cell). Cells without a
// valid reference are ignored; ok is false when none has one.
func UsedRange(sheetData *etree.Element, names Names) (ref string, ok bool) {
	minRow, maxRow := -1, -1
	minCol, maxCol := -1, -1

	isCell := names.Match(names.Cell)
	for _, row := range sheetData.ChildElements() {
		for _, cell := range row.ChildElements() {
			if !isCell(cell) {
				continue
			}
			name, found := xmltree.AttrValue(cell, "", "r")
			if !found {
				continue
			}
			col, rowNum, err := excelize.CellNameToCoordinates(name)
			if err != nil {
				continue
			}
			if minRow < 0 || rowNum < minRow {
				minRow = rowNum
			}
			if rowNum > maxRow {
				maxRow = rowNum
			}
			if minCol < 0 || col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}

	if minRow < 0 {
		return "", false
	}

	startCell, err := excelize.CoordinatesToCellName(minCol, minRow)
	if err != nil {
		return "", false
	}
	if minRow == maxRow && minCol == maxCol {
		return startCell, true
	}
	endCell, err := excelize.CoordinatesToCellName(maxCol, maxRow)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s:%s", startCell, endCell), true
}

// setDimension updates the ref of the worksheet's <dimension> element, if
// the worksheet has one.
func setDimension(doc *etree.Document, names Names, ref string) bool {
	dim := xmltree.Child(doc.Root(), names.Match(names.Dimension))
	if dim == nil {
		return false
	}
	dim.CreateAttr("ref", ref)
	return true
}
