// Package xlrecover recovers the cached data of external-link references in
// an .xlsx package into a new workbook with one worksheet per cached sheet.
package xlrecover

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
)

// NamingMode selects how the recovered sheets are named.
type NamingMode string

const (
	// NameByIndex names sheets Sheet1, Sheet2, ...
	NameByIndex NamingMode = "index"
	// NameBySource uses the cached external sheet names where available.
	NameBySource NamingMode = "source"
)

// DefaultSuffix is appended to the input base name to form the output name.
const DefaultSuffix = "_recovered"

// Options configures a recovery run.
type Options struct {
	// TemplateDir is an unpacked template package. If empty, a template is
	// generated with excelize.
	TemplateDir string `yaml:"template_dir"`
	// OutputPath overrides the output file. If empty, the output is written
	// next to the input as <base><Suffix>.xlsx.
	OutputPath string `yaml:"output"`
	// Suffix is appended to the input base name.
	Suffix string `yaml:"suffix"`
	// Naming selects sheet names.
	Naming NamingMode `yaml:"naming"`
	// WorkDir is the parent of the temporary workspace. Defaults to the
	// system temp directory.
	WorkDir string `yaml:"work_dir"`
	// Verify reopens the written package with excelize and checks its sheets.
	Verify bool `yaml:"verify"`
	// PreviewRows includes up to this many rows of values per sheet in the
	// report. Implies Verify when > 0.
	PreviewRows int `yaml:"preview_rows"`
	// Names identifies the SpreadsheetML elements.
	Names parser.Names `yaml:"names"`
	// Logger receives progress and skip messages. Defaults to discarding.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultOptions returns default recovery options.
func DefaultOptions() Options {
	return Options{
		Suffix: DefaultSuffix,
		Naming: NameByIndex,
		Names:  parser.DefaultNames(),
	}
}

// ShouldVerify returns whether the output is reopened after writing.
func (o Options) ShouldVerify() bool {
	return o.Verify || o.PreviewRows > 0
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withDefaults fills unset fields from DefaultOptions. Names is copied so
// the run does not share slices with the caller.
func (o Options) withDefaults() (Options, error) {
	def := DefaultOptions()
	if o.Suffix == "" {
		o.Suffix = def.Suffix
	}
	if o.Naming == "" {
		o.Naming = def.Naming
	}
	var names parser.Names
	if err := deepcopy.Copy(&names, o.Names); err != nil {
		return o, fmt.Errorf("copy names: %w", err)
	}
	o.Names = names.WithDefaults()
	return o, nil
}
