package xlpics

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ukaji3/xlpics-go/pkg/xlpics/codec"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/models"
	"github.com/ukaji3/xlpics-go/pkg/xlpics/parser"
	"github.com/xuri/excelize/v2"
)

// Run exports the pictures of the configured sheet as JPEG files.
// The returned report is non-nil once extraction has started, including when
// a later picture aborts the run; files written before the failure are kept.
func Run(cfg Config, logger *slog.Logger) (*models.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	wb, err := Open(cfg.File)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if err := wb.CheckSheet(cfg.Sheet); err != nil {
		return nil, err
	}

	headers, err := wb.Headers(cfg.Sheet, cfg.HeaderRow)
	if err != nil {
		return nil, err
	}

	photoCol, keyCol, err := ResolveColumns(headers, cfg.PhotoColumn, cfg.KeyColumn)
	if err != nil {
		return nil, err
	}
	logger.Debug("columns resolved", "sheet", cfg.Sheet, "photo_column", photoCol, "key_column", keyCol)

	return ExtractImages(wb, cfg, photoCol, keyCol, logger)
}

// ResolveColumns looks up the 1-based indices of the photo and key columns.
func ResolveColumns(headers parser.HeaderMap, photoLabel, keyLabel string) (photoCol, keyCol int, err error) {
	photoLabel, keyLabel = strings.TrimSpace(photoLabel), strings.TrimSpace(keyLabel)
	photoCol, keyCol = headers[photoLabel], headers[keyLabel]

	var missing []string
	if photoCol == 0 {
		missing = append(missing, photoLabel)
	}
	if keyCol == 0 {
		missing = append(missing, keyLabel)
	}
	if len(missing) > 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrColumnNotFound, missing)
	}
	return photoCol, keyCol, nil
}

// ExtractImages writes every picture anchored in photoCol to
// <OutputDir>/<KEY>.jpg, where KEY is read from keyCol on the anchor row.
func ExtractImages(wb *Workbook, cfg Config, photoCol, keyCol int, logger *slog.Logger) (*models.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	report := &models.Report{
		BookName:  wb.Name,
		SheetName: cfg.Sheet,
	}

	pictures, err := wb.Pictures(cfg.Sheet)
	if err != nil {
		return report, err
	}

	keyLetter, err := excelize.ColumnNumberToName(keyCol)
	if err != nil {
		return report, err
	}

	for _, pic := range pictures {
		col, row := pic.Anchor.Coordinates()
		if col != photoCol {
			report.Ignored++
			continue
		}

		keyCell := fmt.Sprintf("%s%d", keyLetter, row)
		key, err := parser.KeyValue(wb.File(), cfg.Sheet, keyCell)
		if err != nil {
			kerr := NewExtractionError(cfg.Sheet, keyCell, pic.Index, fmt.Errorf("%w: %w", ErrMalformedKeyCell, err))
			if cfg.OnMalformedKey != MalformedKeySkip {
				return report, kerr
			}
			logger.Warn("key cell is malformed, file not saved", "cell", keyCell, "image", pic.Index, "error", err)
			report.MalformedKeys = append(report.MalformedKeys, keyCell)
			continue
		}

		if key == "" {
			logger.Warn("key cell is empty, file not saved", "cell", keyCell)
			report.EmptyKeys = append(report.EmptyKeys, keyCell)
			continue
		}

		dst := filepath.Join(cfg.OutputDir, key+".jpg")
		if err := saveJPEG(pic, dst, cfg.JPEGQuality); err != nil {
			return report, NewExtractionError(cfg.Sheet, keyCell, pic.Index, err)
		}

		logger.Debug("picture saved", "file", dst, "image", pic.Index, "media", pic.Media)
		report.Saved = append(report.Saved, dst)
	}

	return report, nil
}

// saveJPEG decodes the picture, drops transparency and writes it to dst.
func saveJPEG(pic models.Picture, dst string, quality int) error {
	img, err := codec.Decode(pic.Data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCodec, pic.Media, err)
	}

	if err := codec.WriteJPEG(dst, codec.Normalize(img), quality); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrCodec, dst, err)
	}
	return nil
}

// Inspect lists the pictures of the configured sheet together with the key
// each one would be saved under. Column resolution failures are not fatal:
// pictures are still listed with zero column indices.
func Inspect(cfg Config) (*models.SheetPictures, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	wb, err := Open(cfg.File)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if err := wb.CheckSheet(cfg.Sheet); err != nil {
		return nil, err
	}

	result := &models.SheetPictures{
		BookName:  wb.Name,
		SheetName: cfg.Sheet,
		Pictures:  []models.PictureView{},
	}

	if headers, err := wb.Headers(cfg.Sheet, cfg.HeaderRow); err == nil {
		result.PhotoColumn = headers[strings.TrimSpace(cfg.PhotoColumn)]
		result.KeyColumn = headers[strings.TrimSpace(cfg.KeyColumn)]
	}

	pictures, err := wb.Pictures(cfg.Sheet)
	if err != nil {
		return nil, err
	}

	for _, pic := range pictures {
		col, row := pic.Anchor.Coordinates()
		cell, err := pic.Anchor.CellName()
		if err != nil {
			return nil, err
		}

		view := models.PictureView{
			Picture:       pic,
			Cell:          cell,
			Col:           col,
			Row:           row,
			InPhotoColumn: result.PhotoColumn != 0 && col == result.PhotoColumn,
		}
		if result.KeyColumn != 0 {
			keyCell, err := excelize.CoordinatesToCellName(result.KeyColumn, row)
			if err != nil {
				return nil, err
			}
			if key, err := parser.KeyValue(wb.File(), cfg.Sheet, keyCell); err != nil {
				view.KeyError = err.Error()
			} else {
				view.Key = key
			}
		}
		result.Pictures = append(result.Pictures, view)
	}

	return result, nil
}
