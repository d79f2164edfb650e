package models

// RecoveredSheet describes one worksheet synthesized from an external-link
// cache.
type RecoveredSheet struct {
	// Index is the 1-based position of the sheet in the output workbook.
	Index int `json:"index"`
	// Name is the sheet tab name.
	Name string `json:"name"`
	// Part is the external-link part the data came from.
	Part string `json:"part"`
	// Source is the external workbook the part refers to, when recorded.
	Source string `json:"source,omitempty"`
	// SourceSheet is the cached sheet name in the external workbook.
	SourceSheet string `json:"source_sheet,omitempty"`
	// Rows is the number of rows recovered.
	Rows int `json:"rows"`
	// CellsRenamed counts legacy cell elements renamed to c.
	CellsRenamed int `json:"cells_renamed"`
	// Dimension is the used range of the worksheet (e.g. A1:D10).
	Dimension string `json:"dimension,omitempty"`
	// Preview holds the values read back from the output package.
	Preview []CellRow `json:"preview,omitempty"`
}
