package parser

import (
	"strconv"

	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
	"github.com/xuri/excelize/v2"
)

// ExtractRows reads the values of a sheet of an opened workbook.
// Empty rows are left out; at most limit rows are returned when limit > 0.
func ExtractRows(f *excelize.File, sheetName string, limit int) ([]models.CellRow, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	var result []models.CellRow
	for rowIdx, row := range rows {
		if limit > 0 && len(result) >= limit {
			break
		}
		cellMap := make(map[string]interface{})
		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			// 1-based column index as key
			cellMap[strconv.Itoa(colIdx+1)] = parseValue(cellValue)
		}
		if len(cellMap) > 0 {
			result = append(result, models.CellRow{R: rowIdx + 1, C: cellMap})
		}
	}

	return result, nil
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
