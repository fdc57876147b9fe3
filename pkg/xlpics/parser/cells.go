package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrHeaderRowMissing indicates the header row is past the end of the sheet.
	ErrHeaderRowMissing = errors.New("header row not present")
	// ErrHeaderRowBlank indicates the header row holds no labels.
	ErrHeaderRowBlank = errors.New("header row has no labels")
	// ErrNoValue indicates a cell that holds no value at all.
	ErrNoValue = errors.New("cell has no value")
	// ErrErrorValue indicates a cell holding a formula error such as #N/A.
	ErrErrorValue = errors.New("cell holds an error value")
	// ErrUnsafeKey indicates a key that cannot be used as a file name.
	ErrUnsafeKey = errors.New("key contains a path separator")
)

// HeaderMap maps a trimmed header label to its 1-based column index.
type HeaderMap map[string]int

// ReadHeaders builds the label to column mapping from the 1-based headerRow.
// Blank cells are skipped; when two cells carry the same label the later one wins.
// Cell values are the cached results for formula cells.
func ReadHeaders(f *excelize.File, sheetName string, headerRow int) (HeaderMap, error) {
	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rowNum := 1; rows.Next(); rowNum++ {
		if rowNum < headerRow {
			continue
		}

		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}

		headers := make(HeaderMap)
		for colIdx, cellValue := range cols {
			label := strings.TrimSpace(cellValue)
			if label == "" {
				continue
			}
			headers[label] = colIdx + 1 // 1-based column index
		}
		if len(headers) == 0 {
			return nil, fmt.Errorf("%w: row %d", ErrHeaderRowBlank, headerRow)
		}
		return headers, nil
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("%w: row %d", ErrHeaderRowMissing, headerRow)
}

// KeyValue reads the key cell and returns its trimmed, upper-cased text.
// An empty result means the cell exists but is blank. A cell with no value at
// all, an error value, or a value containing a path separator is an error.
func KeyValue(f *excelize.File, sheetName, cell string) (string, error) {
	cellType, err := f.GetCellType(sheetName, cell)
	if err != nil {
		return "", err
	}
	if cellType == excelize.CellTypeError {
		return "", ErrErrorValue
	}

	value, err := f.GetCellValue(sheetName, cell)
	if err != nil {
		return "", err
	}
	if value == "" && cellType == excelize.CellTypeUnset {
		return "", ErrNoValue
	}
	if strings.ContainsAny(value, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, value)
	}

	return strings.ToUpper(strings.TrimSpace(value)), nil
}
