package xlrecover

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/container"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/xmltree"
	"github.com/xuri/excelize/v2"
)

// Package parts read from the template, relative to the package root.
const (
	TemplateSheetPart = "xl/worksheets/sheet1.xml"
	WorkbookPart      = "xl/workbook.xml"
	WorkbookRelsPart  = "xl/_rels/workbook.xml.rels"
	AppPropertiesPart = "docProps/app.xml"
	WorksheetsDir     = "xl/worksheets"
)

// WriteDefaultTemplate writes an unpacked blank workbook, as created by
// excelize, to dir.
func WriteDefaultTemplate(dir string) error {
	f := excelize.NewFile()
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return err
	}
	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return err
	}
	return container.ExtractReader(r, dir)
}

// prepareTemplate fills dir with a copy of src, or with the default
// template when src is empty.
func prepareTemplate(src, dir string) error {
	if src == "" {
		return WriteDefaultTemplate(dir)
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	return container.CopyDir(src, dir, nil)
}

// checkTemplate verifies that the parts every template must have exist.
func checkTemplate(dir string) error {
	for _, part := range []string{TemplateSheetPart, WorkbookPart, WorkbookRelsPart} {
		if _, err := os.Stat(partPath(dir, part)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return NewTemplateError(part, fs.ErrNotExist)
			}
			return err
		}
	}
	return nil
}

func loadWorksheetTemplate(dir string, names parser.Names) (*parser.WorksheetTemplate, error) {
	doc, err := xmltree.ParseFile(partPath(dir, TemplateSheetPart))
	if err != nil {
		return nil, NewTemplateError(TemplateSheetPart, err)
	}
	tmpl, err := parser.NewWorksheetTemplate(doc, names)
	if err != nil {
		return nil, NewTemplateError(TemplateSheetPart, err)
	}
	return tmpl, nil
}

// isWorksheetsDir excludes the template's worksheets from the output tree;
// they are replaced by the synthesized ones.
func isWorksheetsDir(rel string) bool {
	return rel == WorksheetsDir
}

func partPath(root, part string) string {
	return filepath.Join(root, filepath.FromSlash(part))
}
