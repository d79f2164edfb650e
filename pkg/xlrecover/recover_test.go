package xlrecover

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/container"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
	"github.com/xuri/excelize/v2"
)

const (
	fruitRows = `<row r="1"><cell r="A1" t="str"><v>Name</v></cell><cell r="B1" t="str"><v>Qty</v></cell></row>` +
		`<row r="2"><cell r="A2" t="str"><v>apple</v></cell><cell r="B2"><v>3</v></cell></row>` +
		`<row r="3"><cell r="A3" t="str"><v>pear</v></cell><cell r="B3"><v>5</v></cell></row>`

	inputContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Types xmlns="` + parser.NSContentTypes + `"><Default Extension="xml" ContentType="application/xml"/></Types>`
)

// linkXML builds an external-link part caching one sheet named sheetName.
func linkXML(sheetName, rows string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<externalLink xmlns="` + parser.NSMain + `" xmlns:r="` + parser.NSRelationships + `">` +
		`<externalBook r:id="rId1"><sheetNames><sheetName val="` + sheetName + `"/></sheetNames>` +
		`<sheetDataSet><sheetData sheetId="0">` + rows + `</sheetData></sheetDataSet>` +
		`</externalBook></externalLink>`
}

func linkRelsXML(target string) string {
	return `<Relationships xmlns="` + parser.NSPackageRelationships + `">` +
		`<Relationship Id="rId1" Type="` + parser.NSRelationships + `/externalLinkPath" Target="` + target + `" TargetMode="External"/>` +
		`</Relationships>`
}

// writeInput writes a package holding files to dir/name and returns its path.
func writeInput(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	zs := container.NewZipStorage(out)
	require.NoError(t, zs.WriteBlob(container.ContentTypesPart, []byte(inputContentTypes)))
	for part, body := range files {
		require.NoError(t, zs.WriteBlob(part, []byte(body)))
	}
	require.NoError(t, zs.Close())
	return path
}

// writeMinimalTemplate writes a template whose workbook relationships hold
// only the worksheet relationship rId1.
func writeMinimalTemplate(t *testing.T, dir string) {
	t.Helper()
	ds := container.NewDirStorage(dir)
	files := map[string]string{
		container.ContentTypesPart: `<Types xmlns="` + parser.NSContentTypes + `">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>` +
			`<Override PartName="/xl/worksheets/sheet1.xml" ContentType="` + parser.ContentTypeWorksheet + `"/>` +
			`</Types>`,
		"_rels/.rels": `<Relationships xmlns="` + parser.NSPackageRelationships + `">` +
			`<Relationship Id="rId1" Type="` + parser.NSRelationships + `/officeDocument" Target="xl/workbook.xml"/>` +
			`</Relationships>`,
		WorkbookPart: `<workbook xmlns="` + parser.NSMain + `" xmlns:r="` + parser.NSRelationships + `">` +
			`<sheets><sheet name="Template" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		WorkbookRelsPart: `<Relationships xmlns="` + parser.NSPackageRelationships + `">` +
			`<Relationship Id="rId1" Type="` + parser.RelTypeWorksheet + `" Target="worksheets/sheet1.xml"/>` +
			`</Relationships>`,
		TemplateSheetPart: `<worksheet xmlns="` + parser.NSMain + `"><dimension ref="A1"/><sheetData/></worksheet>`,
		AppPropertiesPart: `<Properties xmlns="` + parser.NSExtendedProperties + `" xmlns:vt="` + parser.NSDocPropsVTypes + `">` +
			`<Application>Microsoft Excel</Application>` +
			`<TitlesOfParts><vt:vector size="1" baseType="lpstr"><vt:lpstr>Template</vt:lpstr></vt:vector></TitlesOfParts>` +
			`</Properties>`,
	}
	for part, body := range files {
		require.NoError(t, ds.WriteBlob(part, []byte(body)))
	}
}

func readPackage(t *testing.T, path string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	parts := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}
	return parts
}

func worksheetParts(parts map[string]string) []string {
	var out []string
	for name := range parts {
		if strings.HasPrefix(name, WorksheetsDir+"/") {
			out = append(out, name)
		}
	}
	return out
}

func minimalOptions(t *testing.T) Options {
	t.Helper()
	tmpl := t.TempDir()
	writeMinimalTemplate(t, tmpl)
	opts := DefaultOptions()
	opts.TemplateDir = tmpl
	opts.WorkDir = t.TempDir()
	return opts
}

func TestRecoverSkipsPartsWithoutRows(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "book.xlsx", map[string]string{
		"xl/externalLinks/a.xml":            linkXML("Fruit", fruitRows),
		"xl/externalLinks/b.xml":            linkXML("Empty", ""),
		"xl/externalLinks/_rels/a.xml.rels": linkRelsXML("fruit.xlsx"),
	})
	before, err := os.ReadFile(input)
	require.NoError(t, err)

	opts := minimalOptions(t)
	report, err := Recover(input, opts)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "book_recovered.xlsx"), report.Output)
	require.Len(t, report.Sheets, 1)
	sheet := report.Sheets[0]
	assert.Equal(t, "Sheet1", sheet.Name)
	assert.Equal(t, "a.xml", sheet.Part)
	assert.Equal(t, "fruit.xlsx", sheet.Source)
	assert.Equal(t, "Fruit", sheet.SourceSheet)
	assert.Equal(t, 3, sheet.Rows)
	assert.Equal(t, 6, sheet.CellsRenamed)
	assert.Equal(t, "A1:B3", sheet.Dimension)
	assert.False(t, report.Verified)

	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "b.xml", skipped[0].Part)
	assert.Equal(t, models.ReasonMissingSheetData, skipped[0].Reason)

	parts := readPackage(t, report.Output)
	assert.Equal(t, []string{"xl/worksheets/sheet1.xml"}, worksheetParts(parts))

	ws := parts["xl/worksheets/sheet1.xml"]
	assert.Contains(t, ws, `<dimension ref="A1:B3"/>`)
	assert.Contains(t, ws, `<row r="2"><c r="A2" t="str"><v>apple</v></c><c r="B2"><v>3</v></c></row>`)
	assert.NotContains(t, ws, "<cell")

	assert.Contains(t, parts[WorkbookPart], `<sheets><sheet name="Sheet1" sheetId="1" state="visible" r:id="rId2"/></sheets>`)
	rels := parts[WorkbookRelsPart]
	assert.Contains(t, rels, `<Relationship Id="rId2" Type="`+parser.RelTypeWorksheet+`" Target="worksheets/sheet1.xml"/>`)
	assert.NotContains(t, rels, `Id="rId1"`)
	assert.Equal(t, 1, strings.Count(parts[container.ContentTypesPart], `PartName="/xl/worksheets/sheet1.xml"`))

	after, err := os.ReadFile(input)
	require.NoError(t, err)
	assert.Equal(t, before, after, "input must not change")

	leftovers, err := os.ReadDir(opts.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "workspace must be removed")
}

func TestRecoverNoExternalLinks(t *testing.T) {
	input := writeInput(t, t.TempDir(), "plain.xlsx", map[string]string{
		"xl/workbook.xml": `<workbook xmlns="` + parser.NSMain + `"/>`,
	})

	report, err := Recover(input, minimalOptions(t))
	require.NoError(t, err)

	assert.True(t, report.NoExternalLinks)
	assert.Empty(t, report.Sheets)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, models.ReasonNoExternalLinks, report.Diagnostics[0].Reason)

	parts := readPackage(t, report.Output)
	assert.Empty(t, worksheetParts(parts))
	assert.Contains(t, parts[WorkbookPart], `<sheets/>`)
	assert.NotContains(t, parts[WorkbookRelsPart], parser.RelTypeWorksheet)
	assert.NotContains(t, parts[container.ContentTypesPart], parser.ContentTypeWorksheet)
}

func TestRecoverInvalidInputFormat(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "book.xls")
	require.NoError(t, os.WriteFile(input, []byte("legacy"), 0644))

	_, err := Recover(input, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidInputFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecoverAcceptsUpperCaseExtension(t *testing.T) {
	input := writeInput(t, t.TempDir(), "BOOK.XLSX", map[string]string{
		"xl/externalLinks/a.xml": linkXML("Fruit", fruitRows),
	})

	report, err := Recover(input, minimalOptions(t))
	require.NoError(t, err)
	assert.Len(t, report.Sheets, 1)
	assert.Equal(t, "BOOK_recovered.xlsx", filepath.Base(report.Output))
}

func TestRecoverDefaultTemplateVerifies(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", map[string]string{
		"xl/externalLinks/externalLink1.xml": linkXML("Fruit", fruitRows),
		"xl/externalLinks/externalLink2.xml": linkXML("Other", `<row r="2"><cell r="C2"><v>42</v></cell></row>`),
	})

	opts := DefaultOptions()
	opts.WorkDir = t.TempDir()
	opts.PreviewRows = 2

	report, err := Recover(input, opts)
	require.NoError(t, err)
	assert.True(t, report.Verified)
	require.Len(t, report.Sheets, 2)

	preview := report.Sheets[0].Preview
	require.Len(t, preview, 2)
	assert.Equal(t, "Name", preview[0].C["1"])
	assert.Equal(t, int64(3), preview[1].C["2"])

	f, err := excelize.OpenFile(report.Output)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1", "Sheet2"}, f.GetSheetList())

	v, err := f.GetCellValue("Sheet2", "C2")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestRecoverNumbersInPartOrder(t *testing.T) {
	row := func(v string) string {
		return `<row r="1"><cell r="A1" t="str"><v>` + v + `</v></cell></row>`
	}
	input := writeInput(t, t.TempDir(), "book.xlsx", map[string]string{
		"xl/externalLinks/c.xml": linkXML("C", row("third")),
		"xl/externalLinks/a.xml": linkXML("A", row("first")),
		"xl/externalLinks/b.xml": linkXML("B", row("second")),
	})

	report, err := Recover(input, minimalOptions(t))
	require.NoError(t, err)
	require.Len(t, report.Sheets, 3)

	parts := readPackage(t, report.Output)
	for i, want := range []struct{ part, value string }{{"a.xml", "first"}, {"b.xml", "second"}, {"c.xml", "third"}} {
		sheet := report.Sheets[i]
		assert.Equal(t, i+1, sheet.Index)
		assert.Equal(t, want.part, sheet.Part)
		assert.Contains(t, parts["xl/"+parser.WorksheetTarget(i+1)], "<v>"+want.value+"</v>")
	}
	assert.Contains(t, parts[WorkbookPart], `<sheet name="Sheet3" sheetId="3" state="visible" r:id="rId4"/>`)
}

func TestRecoverSkipsMalformedParts(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", map[string]string{
		"xl/externalLinks/a.xml": `<externalLink><sheetData><row r=1/></sheetData></externalLink>`,
		"xl/externalLinks/b.xml": linkXML("Fruit", fruitRows),
	})

	report, err := Recover(input, minimalOptions(t))
	require.NoError(t, err)
	require.Len(t, report.Sheets, 1)
	assert.Equal(t, "b.xml", report.Sheets[0].Part)
	assert.Equal(t, "Sheet1", report.Sheets[0].Name)

	skipped := report.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "a.xml", skipped[0].Part)
	assert.Equal(t, models.ReasonMalformedXML, skipped[0].Reason)
}

func TestRecoverRebuildsAppProperties(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "book.xlsx", map[string]string{
		"xl/externalLinks/externalLink1.xml": linkXML("Fruit", fruitRows),
		"xl/externalLinks/externalLink2.xml": linkXML("Veg", fruitRows),
	})

	report, err := Recover(input, minimalOptions(t))
	require.NoError(t, err)
	require.Len(t, report.Sheets, 2)

	app := readPackage(t, report.Output)[AppPropertiesPart]
	assert.Contains(t, app, `<vt:vector size="2" baseType="lpstr"><vt:lpstr>Sheet1</vt:lpstr><vt:lpstr>Sheet2</vt:lpstr></vt:vector>`)
	assert.NotContains(t, app, "Template")
	assert.Contains(t, app, "<Application>Microsoft Excel</Application>")
}

func TestRecoverSourceNaming(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", map[string]string{
		"xl/externalLinks/a.xml": linkXML("Prices", fruitRows),
		"xl/externalLinks/b.xml": linkXML("Prices", fruitRows),
		"xl/externalLinks/c.xml": linkXML("", fruitRows),
	})

	opts := DefaultOptions()
	opts.WorkDir = t.TempDir()
	opts.Naming = NameBySource
	opts.Verify = true

	report, err := Recover(input, opts)
	require.NoError(t, err)
	assert.True(t, report.Verified)

	var got []string
	for _, s := range report.Sheets {
		got = append(got, s.Name)
	}
	assert.Equal(t, []string{"Prices", "Prices (2)", "Sheet3"}, got)
}

func TestRecoverTemplateErrors(t *testing.T) {
	tests := []struct {
		name    string
		part    string
		body    string
		wantErr error
	}{
		{
			name:    "worksheet without sheetData",
			part:    TemplateSheetPart,
			body:    `<worksheet xmlns="` + parser.NSMain + `"><dimension ref="A1"/></worksheet>`,
			wantErr: ErrMissingSheetData,
		},
		{
			name:    "workbook without sheets",
			part:    WorkbookPart,
			body:    `<workbook xmlns="` + parser.NSMain + `"/>`,
			wantErr: ErrMissingSheetsElement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := writeInput(t, dir, "book.xlsx", map[string]string{
				"xl/externalLinks/a.xml": linkXML("Fruit", fruitRows),
			})
			opts := minimalOptions(t)
			require.NoError(t, os.WriteFile(filepath.Join(opts.TemplateDir, filepath.FromSlash(tt.part)), []byte(tt.body), 0644))

			_, err := Recover(input, opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var te *TemplateError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.part, te.Part)

			assert.NoFileExists(t, filepath.Join(dir, "book_recovered.xlsx"))
		})
	}
}

func TestRecoverTemplateMissingParts(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", nil)
	opts := DefaultOptions()
	opts.TemplateDir = t.TempDir()

	_, err := Recover(input, opts)
	var te *TemplateError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, TemplateSheetPart, te.Part)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestRecoverRefusesToOverwriteInput(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", nil)
	opts := minimalOptions(t)
	opts.OutputPath = input

	_, err := Recover(input, opts)
	assert.Error(t, err)
}

func TestRecoverCustomOutputPath(t *testing.T) {
	input := writeInput(t, t.TempDir(), "book.xlsx", map[string]string{
		"xl/externalLinks/a.xml": linkXML("Fruit", fruitRows),
	})
	opts := minimalOptions(t)
	opts.OutputPath = filepath.Join(t.TempDir(), "nested", "out.xlsx")

	report, err := Recover(input, opts)
	require.NoError(t, err)
	assert.Equal(t, opts.OutputPath, report.Output)
	assert.FileExists(t, opts.OutputPath)
}

func TestOutputPathFor(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "book_recovered.xlsx"), OutputPathFor(filepath.Join("data", "book.xlsx"), DefaultSuffix))
	assert.Equal(t, "book-fixed.xlsx", OutputPathFor("book.xlsx", "-fixed"))
}

func TestWriteDefaultTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDefaultTemplate(dir))
	require.NoError(t, checkTemplate(dir))

	tmpl, err := loadWorksheetTemplate(dir, parser.DefaultNames())
	require.NoError(t, err)
	assert.NotNil(t, tmpl)

	ct, err := os.ReadFile(filepath.Join(dir, container.ContentTypesPart))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(ct, []byte(parser.ContentTypeWorksheet)))
}
