// Package xlpics exports pictures embedded in a spreadsheet column as JPEG
// files named after a key column of the same row.
package xlpics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ukaji3/xlpics-go/pkg/xlpics/codec"
)

// Defaults used when a Config field is not set.
const (
	DefaultFile        = "mo_oa.xlsx"
	DefaultOutputDir   = "img"
	DefaultSheet       = "BAZA"
	DefaultHeaderRow   = 5
	DefaultPhotoColumn = "Photo"
	DefaultKeyColumn   = "MDC"
)

// MalformedKeyPolicy decides what happens when a key cell cannot name a file.
type MalformedKeyPolicy string

const (
	// MalformedKeyAbort stops the run; files already written are kept.
	MalformedKeyAbort MalformedKeyPolicy = "abort"
	// MalformedKeySkip warns, skips the picture and continues.
	MalformedKeySkip MalformedKeyPolicy = "skip"
)

// Config configures an extraction run.
type Config struct {
	// File is the path of the source workbook.
	File string `mapstructure:"file" yaml:"file"`
	// OutputDir receives the JPEG files; it is created when missing.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	// Sheet is the exact name of the sheet holding the pictures.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`
	// HeaderRow is the 1-based row holding the column labels.
	HeaderRow int `mapstructure:"header_row" yaml:"header_row"`
	// PhotoColumn is the header label of the column the pictures are anchored in.
	PhotoColumn string `mapstructure:"photo_column" yaml:"photo_column"`
	// KeyColumn is the header label of the column naming each picture.
	KeyColumn string `mapstructure:"key_column" yaml:"key_column"`
	// JPEGQuality is the encoder quality, 1-100 (default 75).
	JPEGQuality int `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	// OnMalformedKey is abort (default) or skip.
	OnMalformedKey MalformedKeyPolicy `mapstructure:"on_malformed_key" yaml:"on_malformed_key"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		File:           DefaultFile,
		OutputDir:      DefaultOutputDir,
		Sheet:          DefaultSheet,
		HeaderRow:      DefaultHeaderRow,
		PhotoColumn:    DefaultPhotoColumn,
		KeyColumn:      DefaultKeyColumn,
		JPEGQuality:    codec.DefaultJPEGQuality,
		OnMalformedKey: MalformedKeyAbort,
	}
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.File) == "" {
		errs = append(errs, errors.New("file must not be empty"))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.Sheet == "" {
		errs = append(errs, errors.New("sheet must not be empty"))
	}
	if c.HeaderRow < 1 {
		errs = append(errs, fmt.Errorf("header_row must be >= 1, got %d", c.HeaderRow))
	}
	if strings.TrimSpace(c.PhotoColumn) == "" {
		errs = append(errs, errors.New("photo_column must not be empty"))
	}
	if strings.TrimSpace(c.KeyColumn) == "" {
		errs = append(errs, errors.New("key_column must not be empty"))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be within 1-100, got %d", c.JPEGQuality))
	}
	switch c.OnMalformedKey {
	case MalformedKeyAbort, MalformedKeySkip:
	default:
		errs = append(errs, fmt.Errorf("on_malformed_key must be %q or %q, got %q",
			MalformedKeyAbort, MalformedKeySkip, c.OnMalformedKey))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
