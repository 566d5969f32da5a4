package sales

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the workbook has no sheet of the
// configured name.
var ErrSheetNotFound = errors.New("worksheet not found")

// xlsxReader reads Office Open XML workbooks.
type xlsxReader struct{}

func (xlsxReader) ReadSheet(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
