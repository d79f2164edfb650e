// Package main provides the CLI entry point for xlrecover.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/output"
)

type cliFlags struct {
	configPath  string
	templateDir string
	outputPath  string
	suffix      string
	naming      string
	verify      bool
	preview     int
	asJSON      bool
	pretty      bool
	sheetsDir   string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fl cliFlags

	rootCmd := &cobra.Command{
		Use:   "xlrecover [input.xlsx]",
		Short: "Recover cached external-link data from Excel files",
		Long: `xlrecover turns the cached values of external workbook references
stored in an .xlsx file into a new workbook with one worksheet per
cached external sheet.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &fl)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&fl.configPath, "config", "", "YAML options file")
	f.StringVar(&fl.templateDir, "template", "", "Unpacked template package (default: built-in blank workbook)")
	f.StringVarP(&fl.outputPath, "output", "o", "", "Output file path (default: <input>"+xlrecover.DefaultSuffix+".xlsx)")
	f.StringVar(&fl.suffix, "suffix", xlrecover.DefaultSuffix, "Suffix appended to the input name")
	f.StringVar(&fl.naming, "names", string(xlrecover.NameByIndex), "Sheet naming: index or source")
	f.BoolVar(&fl.verify, "verify", false, "Reopen the output and check its sheets")
	f.IntVar(&fl.preview, "preview", 0, "Include up to N rows per sheet in the report (implies --verify)")
	f.BoolVar(&fl.asJSON, "json", false, "Print the run report as JSON")
	f.BoolVar(&fl.pretty, "pretty", false, "Pretty-print JSON output")
	f.StringVar(&fl.sheetsDir, "sheets-dir", "", "Directory for per-sheet report files")
	f.BoolVarP(&fl.verbose, "verbose", "v", false, "Log every processed part")

	rootCmd.AddCommand(newTemplateCmd())
	return rootCmd
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template [dir]",
		Short: "Write the built-in template package to a directory for customization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := xlrecover.WriteDefaultTemplate(args[0]); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}
			return nil
		},
	}
}

func run(cmd *cobra.Command, args []string, fl *cliFlags) error {
	inputPath := args[0]

	opts := xlrecover.DefaultOptions()
	if fl.configPath != "" {
		loaded, err := xlrecover.LoadOptions(fl.configPath)
		if err != nil {
			return err
		}
		opts = loaded
	}

	// Flags given on the command line win over the config file.
	flags := cmd.Flags()
	if flags.Changed("template") {
		opts.TemplateDir = fl.templateDir
	}
	if flags.Changed("output") {
		opts.OutputPath = fl.outputPath
	}
	if flags.Changed("suffix") {
		opts.Suffix = fl.suffix
	}
	if flags.Changed("names") {
		switch xlrecover.NamingMode(fl.naming) {
		case xlrecover.NameByIndex, xlrecover.NameBySource:
			opts.Naming = xlrecover.NamingMode(fl.naming)
		default:
			return fmt.Errorf("invalid names: %s (must be index or source)", fl.naming)
		}
	}
	if flags.Changed("verify") {
		opts.Verify = fl.verify
	}
	if flags.Changed("preview") {
		opts.PreviewRows = fl.preview
	}

	level := slog.LevelWarn
	if fl.verbose {
		level = slog.LevelInfo
	}
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	report, err := xlrecover.Recover(inputPath, opts)
	if err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	if fl.asJSON {
		jsonData, err := output.ToJSON(report, fl.pretty)
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	} else {
		printSummary(cmd, report)
	}

	if fl.sheetsDir != "" {
		if err := writeSheetFiles(report, fl.sheetsDir, fl.pretty); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}

	return nil
}

func printSummary(cmd *cobra.Command, report *models.Report) {
	out := cmd.OutOrStdout()
	if report.NoExternalLinks {
		fmt.Fprintln(out, "No externalLinks directory found.")
	}
	for _, d := range report.Skipped() {
		fmt.Fprintln(out, d.Message)
	}
	for _, s := range report.Sheets {
		fmt.Fprintf(out, "Processed: %s -> %s (%d rows)\n", s.Part, s.Name, s.Rows)
	}
	fmt.Fprintf(out, "Wrote %s with %d sheet(s)\n", report.Output, len(report.Sheets))
}

func writeSheetFiles(report *models.Report, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for i := range report.Sheets {
		sheet := &report.Sheets[i]
		jsonData, err := output.SheetToJSON(sheet, pretty)
		if err != nil {
			return err
		}

		filename := filepath.Join(dir, fmt.Sprintf("sheet%d.json", sheet.Index))
		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return err
		}
	}

	return nil
}
