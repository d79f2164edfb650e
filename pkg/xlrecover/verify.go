package xlrecover

import (
	"fmt"
	"slices"

	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/models"
	"github.com/ukaji3/xlrecover-go/pkg/xlrecover/parser"
	"github.com/xuri/excelize/v2"
)

// verifyOutput reopens the written package and checks that it lists the
// recovered sheets in order and that every sheet can be read. With
// previewRows > 0 the first rows of each sheet are stored in sheets.
func verifyOutput(path string, sheets []models.RecoveredSheet, previewRows int) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	defer f.Close()

	want := make([]string, len(sheets))
	for i, s := range sheets {
		want[i] = s.Name
	}
	if got := f.GetSheetList(); !slices.Equal(got, want) {
		return fmt.Errorf("%w: sheets %q, want %q", ErrVerification, got, want)
	}

	for i := range sheets {
		rows, err := parser.ExtractRows(f, sheets[i].Name, previewRows)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrVerification, sheets[i].Name, err)
		}
		if previewRows > 0 {
			sheets[i].Preview = rows
		}
	}
	return nil
}
