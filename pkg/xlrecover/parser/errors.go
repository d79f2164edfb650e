package parser

import "errors"

// ErrMissingSheetData indicates that no sheetData element with rows was
// found. For an external-link part it is a reason to skip the part; for the
// template worksheet it is fatal.
var ErrMissingSheetData = errors.New("no sheetData element with a row")

// ErrDuplicateSheetData indicates a template worksheet with more than one
// sheetData element.
var ErrDuplicateSheetData = errors.New("more than one sheetData element")

// ErrMissingSheetsElement indicates a workbook part without <sheets>.
var ErrMissingSheetsElement = errors.New("workbook has no sheets element")

// ErrNoExternalLinks indicates a package without an xl/externalLinks
// directory. It is informational: there is simply nothing to recover.
var ErrNoExternalLinks = errors.New("no externalLinks directory")
