package models

// Level is the severity of a diagnostic.
type Level string

const (
	// LevelInfo reports progress.
	LevelInfo Level = "info"
	// LevelWarn reports a skipped part.
	LevelWarn Level = "warn"
)

// Reason classifies why a part was skipped or not processed.
type Reason string

const (
	// ReasonRecovered marks a part that produced a worksheet.
	ReasonRecovered Reason = "recovered"
	// ReasonMissingSheetData marks a part without a sheetData holding rows.
	ReasonMissingSheetData Reason = "missing_sheet_data"
	// ReasonMalformedXML marks a part that could not be parsed.
	ReasonMalformedXML Reason = "malformed_xml"
	// ReasonNoExternalLinks marks a package without external links.
	ReasonNoExternalLinks Reason = "no_external_links"
)

// Diagnostic is an informational message about one external-link part.
// Diagnostics never change the outcome of a run.
type Diagnostic struct {
	// Part is the external-link part name; empty for package-level messages.
	Part string `json:"part,omitempty"`
	// Level is the severity.
	Level Level `json:"level"`
	// Reason classifies the message.
	Reason Reason `json:"reason"`
	// Message is a human-readable description.
	Message string `json:"message"`
}
