package models

// Report is the outcome of one recovery run.
type Report struct {
	// Input is the source package path.
	Input string `json:"input"`
	// Output is the written package path.
	Output string `json:"output"`
	// Sheets lists the synthesized worksheets in output order.
	Sheets []RecoveredSheet `json:"sheets"`
	// Diagnostics lists per-part messages in processing order.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	// NoExternalLinks is set when the package has no externalLinks directory.
	NoExternalLinks bool `json:"no_external_links,omitempty"`
	// Verified is set when the output was reopened and checked.
	Verified bool `json:"verified,omitempty"`
}

// Skipped returns the diagnostics of parts that produced no worksheet.
func (r *Report) Skipped() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Level == LevelWarn {
			out = append(out, d)
		}
	}
	return out
}
