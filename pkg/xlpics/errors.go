package xlpics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound indicates the input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFormat indicates the input file is not a valid xlsx package.
	ErrInvalidFormat = errors.New("invalid xlsx format")

	// ErrSheetNotFound indicates the configured sheet is not in the workbook.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrMalformedHeader indicates the header row is missing or holds no labels.
	ErrMalformedHeader = errors.New("malformed header row")

	// ErrColumnNotFound indicates a required header label is absent.
	ErrColumnNotFound = errors.New("could not find the specified columns")

	// ErrMalformedKeyCell indicates a key cell that cannot name an output file.
	ErrMalformedKeyCell = errors.New("malformed key cell")

	// ErrCodec indicates a picture could not be decoded or encoded.
	ErrCodec = errors.New("image codec error")
)

// ExtractionError represents a failure tied to one picture of a sheet.
type ExtractionError struct {
	Sheet string
	Cell  string // key cell address, empty if not yet known
	Image int    // 1-based picture index in drawing order
	Err   error
}

func (e *ExtractionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sheet %q", e.Sheet)
	if e.Image > 0 {
		fmt.Fprintf(&b, " image %d", e.Image)
	}
	if e.Cell != "" {
		fmt.Fprintf(&b, " cell %s", e.Cell)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheet, cell string, image int, err error) *ExtractionError {
	return &ExtractionError{
		Sheet: sheet,
		Cell:  cell,
		Image: image,
		Err:   err,
	}
}
