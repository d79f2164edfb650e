package xlrecover

import (
	"errors"
	"fmt"

	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
)

// ErrInvalidInputFormat indicates the input path does not name an .xlsx
// package. It is returned before any file is touched.
var ErrInvalidInputFormat = errors.New("input must be an .xlsx file")

// ErrMissingSheetData indicates a worksheet without a usable sheetData
// element. Returned (wrapped in a TemplateError) only for the template;
// for external-link parts it is reported as a diagnostic.
var ErrMissingSheetData = parser.ErrMissingSheetData

// ErrMissingSheetsElement indicates a template workbook.xml without
// <sheets>.
var ErrMissingSheetsElement = parser.ErrMissingSheetsElement

// ErrVerification indicates that the written package did not read back as
// expected.
var ErrVerification = errors.New("output verification failed")

// TemplateError represents a structural problem with the template package.
// Template errors abort the run.
type TemplateError struct {
	Part string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template part %s: %v", e.Part, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// NewTemplateError creates a new TemplateError.
func NewTemplateError(part string, err error) *TemplateError {
	return &TemplateError{
		Part: part,
		Err:  err,
	}
}
