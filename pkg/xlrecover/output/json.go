// Package output serializes recovery reports.
package output

import (
	"encoding/json"

	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
)

// ToJSON serializes a run report.
func ToJSON(report *models.Report, pretty bool) ([]byte, error) {
	return marshal(report, pretty)
}

// SheetToJSON serializes a single recovered sheet.
func SheetToJSON(sheet *models.RecoveredSheet, pretty bool) ([]byte, error) {
	return marshal(sheet, pretty)
}

func marshal(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
