// Package models defines the data structures reported by a recovery run.
package models

// CellRow represents a single row of recovered cell values.
type CellRow struct {
	// R is the row index (1-based).
	R int `json:"r"`
	// C maps column index (string) to cell value.
	C map[string]interface{} `json:"c"`
}
