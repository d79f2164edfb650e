package xlrecover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/container"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
)

// Recover reads the package at inputPath and writes a new package with one
// worksheet per external-link part that holds cached rows.
//
// The input is never modified. Parts without cached rows or with malformed
// XML are skipped and reported in the returned report's diagnostics; a
// package without external links yields a report with no sheets. Errors are
// returned for an invalid input name, unreadable packages and structural
// problems with the template. The temporary workspace is removed on every
// return path.
func Recover(inputPath string, opts Options) (*models.Report, error) {
	if !strings.EqualFold(filepath.Ext(inputPath), ".xlsx") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInputFormat, inputPath)
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = OutputPathFor(inputPath, opts.Suffix)
	}
	if sameFile(inputPath, outputPath) {
		return nil, fmt.Errorf("output %s would overwrite the input", outputPath)
	}

	ws, err := container.NewWorkspace(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer ws.Close()

	if err := container.Extract(inputPath, ws.Extracted); err != nil {
		return nil, err
	}
	if err := prepareTemplate(opts.TemplateDir, ws.Template); err != nil {
		return nil, fmt.Errorf("prepare template: %w", err)
	}
	if err := checkTemplate(ws.Template); err != nil {
		return nil, err
	}
	tmpl, err := loadWorksheetTemplate(ws.Template, opts.Names)
	if err != nil {
		return nil, err
	}
	if err := container.CopyDir(ws.Template, ws.Output, isWorksheetsDir); err != nil {
		return nil, fmt.Errorf("copy template: %w", err)
	}

	r := &run{
		opts:   opts,
		log:    opts.logger(),
		ws:     ws,
		report: &models.Report{Input: inputPath, Output: outputPath, Sheets: []models.RecoveredSheet{}},
	}
	if err := r.synthesizeAll(tmpl); err != nil {
		return nil, err
	}
	if err := r.rebuildMetadata(); err != nil {
		return nil, err
	}

	if err := container.PackFile(ws.Output, outputPath); err != nil {
		return nil, fmt.Errorf("write package: %w", err)
	}
	r.log.Info("package written", "output", outputPath, "sheets", len(r.report.Sheets))

	if opts.ShouldVerify() && len(r.report.Sheets) > 0 {
		if err := verifyOutput(outputPath, r.report.Sheets, opts.PreviewRows); err != nil {
			return r.report, err
		}
		r.report.Verified = true
	}
	return r.report, nil
}

// OutputPathFor returns the default output path for inputPath: the same
// directory, the input base name followed by suffix.
func OutputPathFor(inputPath, suffix string) string {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, base+suffix+".xlsx")
}

type run struct {
	opts   Options
	log    *slog.Logger
	ws     *container.Workspace
	report *models.Report
}

// cachedSheet is the extraction result of one external-link part.
type cachedSheet struct {
	doc       *etree.Document
	sheetData *etree.Element
	renamed   int
}

func (r *run) linksDir() string {
	return partPath(r.ws.Extracted, parser.ExternalLinksDir)
}

// synthesizeAll writes one worksheet per usable external-link part, in
// lexicographic part order, numbering the worksheets from 1.
func (r *run) synthesizeAll(tmpl *parser.WorksheetTemplate) error {
	parts, err := parser.ListExternalLinks(r.linksDir())
	if errors.Is(err, parser.ErrNoExternalLinks) {
		r.report.NoExternalLinks = true
		r.diag(models.Diagnostic{
			Level:   models.LevelInfo,
			Reason:  models.ReasonNoExternalLinks,
			Message: "No externalLinks directory found.",
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("list external links: %w", err)
	}

	var sourceNames []string
	for _, part := range parts {
		cached, skip, err := r.extractPart(part)
		if err != nil {
			return err
		}
		if skip != nil {
			r.diag(*skip)
			continue
		}

		sheet := tmpl.Synthesize(cached.sheetData)
		index := len(r.report.Sheets) + 1
		target := parser.WorksheetTarget(index)
		if err := xmltree.WriteFile(sheet.Doc, partPath(r.ws.Output, "xl/"+target)); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}

		source, err := parser.ExternalBookTarget(r.linksDir(), part)
		if err != nil {
			r.log.Warn("unreadable external-link relationships", "part", part, "error", err)
		}
		sourceSheet := parser.CachedSheetName(cached.doc, cached.sheetData, r.opts.Names)
		sourceNames = append(sourceNames, sourceSheet)

		r.report.Sheets = append(r.report.Sheets, models.RecoveredSheet{
			Index:        index,
			Name:         parser.DefaultSheetName(index),
			Part:         part,
			Source:       source,
			SourceSheet:  sourceSheet,
			Rows:         sheet.Rows,
			CellsRenamed: cached.renamed,
			Dimension:    sheet.Dimension,
		})
		r.diag(models.Diagnostic{
			Part:    part,
			Level:   models.LevelInfo,
			Reason:  models.ReasonRecovered,
			Message: fmt.Sprintf("Processed: %s -> xl/%s (%d rows)", part, target, sheet.Rows),
		})
	}

	if r.opts.Naming == NameBySource {
		for i, name := range parser.SheetNamesFromSources(sourceNames) {
			r.report.Sheets[i].Name = name
		}
	}
	return nil
}

// extractPart returns the normalized cached sheet data of one part. A part
// that cannot be used yields a skip diagnostic instead; err is reserved for
// I/O failures, which abort the run.
func (r *run) extractPart(part string) (*cachedSheet, *models.Diagnostic, error) {
	data, err := os.ReadFile(filepath.Join(r.linksDir(), part))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", part, err)
	}

	doc, err := xmltree.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &models.Diagnostic{
			Part:    part,
			Level:   models.LevelWarn,
			Reason:  models.ReasonMalformedXML,
			Message: fmt.Sprintf("Malformed XML in %s: %v", part, err),
		}, nil
	}

	sheetData, ok := parser.LocateSheetData(doc, r.opts.Names)
	if !ok {
		return nil, &models.Diagnostic{
			Part:    part,
			Level:   models.LevelWarn,
			Reason:  models.ReasonMissingSheetData,
			Message: fmt.Sprintf("No <sheetData> element with a <row> child found in %s", part),
		}, nil
	}

	renamed := parser.NormalizeCells(sheetData, r.opts.Names)
	return &cachedSheet{doc: doc, sheetData: sheetData, renamed: renamed}, nil, nil
}

// rebuildMetadata registers the synthesized worksheets in the workbook
// part, its relationships and the content types of the output tree.
func (r *run) rebuildMetadata() error {
	workbook, err := xmltree.ParseFile(partPath(r.ws.Output, WorkbookPart))
	if err != nil {
		return NewTemplateError(WorkbookPart, err)
	}
	rels, err := xmltree.ParseFile(partPath(r.ws.Output, WorkbookRelsPart))
	if err != nil {
		return NewTemplateError(WorkbookRelsPart, err)
	}

	names := make([]string, len(r.report.Sheets))
	for i, s := range r.report.Sheets {
		names[i] = s.Name
	}
	entries, err := parser.RebuildWorkbook(workbook, rels, names, r.opts.Names)
	if errors.Is(err, parser.ErrMissingSheetsElement) {
		return NewTemplateError(WorkbookPart, err)
	}
	if err != nil {
		return NewTemplateError(WorkbookRelsPart, err)
	}

	if err := xmltree.WriteFile(workbook, partPath(r.ws.Output, WorkbookPart)); err != nil {
		return err
	}
	if err := xmltree.WriteFile(rels, partPath(r.ws.Output, WorkbookRelsPart)); err != nil {
		return err
	}
	for _, e := range entries {
		r.log.Debug("registered worksheet", "name", e.Name, "id", e.RelID, "target", e.Target)
	}
	if err := r.rebuildAppProperties(names); err != nil {
		return err
	}

	ctPath := partPath(r.ws.Output, container.ContentTypesPart)
	contentTypes, err := xmltree.ParseFile(ctPath)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Warn("template has no content types part", "part", container.ContentTypesPart)
		return nil
	}
	if err != nil {
		return NewTemplateError(container.ContentTypesPart, err)
	}
	if err := parser.RegisterWorksheets(contentTypes, entries); err != nil {
		return NewTemplateError(container.ContentTypesPart, err)
	}
	return xmltree.WriteFile(contentTypes, ctPath)
}

// rebuildAppProperties lists the recovered sheets in docProps/app.xml. A
// template without the part is left alone.
func (r *run) rebuildAppProperties(sheetNames []string) error {
	appPath := partPath(r.ws.Output, AppPropertiesPart)
	app, err := xmltree.ParseFile(appPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return NewTemplateError(AppPropertiesPart, err)
	}
	parser.RebuildAppProperties(app, sheetNames)
	return xmltree.WriteFile(app, appPath)
}

func (r *run) diag(d models.Diagnostic) {
	r.report.Diagnostics = append(r.report.Diagnostics, d)
	level := slog.LevelInfo
	if d.Level == models.LevelWarn {
		level = slog.LevelWarn
	}
	r.log.Log(context.Background(), level, d.Message, "part", d.Part, "reason", string(d.Reason))
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
