package xlpics

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ukaji3/xlpics-go/pkg/xlpics/models"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/parser"
	"github.com/xuri/excelize/v2"
)

// Workbook is an opened xlsx file. Cell values are read through excelize;
// drawing parts are read from the same bytes as a zip package.
type Workbook struct {
	// Name is the file name without directory.
	Name string

	file *excelize.File
	pkg  *zip.Reader
}

// Open reads the workbook at path.
func Open(path string) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}

	pkg, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	return &Workbook{
		Name: filepath.Base(path),
		file: f,
		pkg:  pkg,
	}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// File exposes the underlying excelize file for cell access.
func (w *Workbook) File() *excelize.File {
	return w.file
}

// CheckSheet returns ErrSheetNotFound unless the workbook has a sheet named exactly name.
func (w *Workbook) CheckSheet(name string) error {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	return nil
}

// Headers returns the header label to column mapping of a sheet.
func (w *Workbook) Headers(sheet string, headerRow int) (parser.HeaderMap, error) {
	headers, err := parser.ReadHeaders(w.file, sheet, headerRow)
	if err != nil {
		if errors.Is(err, parser.ErrHeaderRowBlank) || errors.Is(err, parser.ErrHeaderRowMissing) {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrMalformedHeader, sheet, err)
		}
		return nil, err
	}
	return headers, nil
}

// Pictures returns the pictures anchored on a sheet in drawing order.
func (w *Workbook) Pictures(sheet string) ([]models.Picture, error) {
	pictures, err := parser.ExtractPictures(w.pkg, sheet)
	if err != nil {
		if errors.Is(err, parser.ErrNoWorksheetPart) {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
		}
		return nil, fmt.Errorf("reading drawings of sheet %q: %w", sheet, err)
	}
	return pictures, nil
}
