package models

// Report summarises a single extraction run.
type Report struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name" yaml:"book_name"`
	// SheetName is the sheet the pictures were read from.
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
	// Saved lists the written JPEG paths in processing order.
	Saved []string `json:"saved,omitempty" yaml:"saved,omitempty"`
	// EmptyKeys lists key cell addresses that were blank.
	EmptyKeys []string `json:"empty_keys,omitempty" yaml:"empty_keys,omitempty"`
	// MalformedKeys lists key cell addresses skipped under the skip policy.
	MalformedKeys []string `json:"malformed_keys,omitempty" yaml:"malformed_keys,omitempty"`
	// Ignored counts pictures anchored outside the photo column.
	Ignored int `json:"ignored" yaml:"ignored"`
}

// Skipped returns the number of photo-column pictures that were not saved.
func (r *Report) Skipped() int {
	return len(r.EmptyKeys) + len(r.MalformedKeys)
}

// PictureView is a picture as listed by the inspect command.
type PictureView struct {
	Picture `yaml:",inline"`
	// Cell is the A1-style anchor address.
	Cell string `json:"cell" yaml:"cell"`
	// Col is the 1-based anchor column.
	Col int `json:"c" yaml:"c"`
	// Row is the 1-based anchor row.
	Row int `json:"r" yaml:"r"`
	// InPhotoColumn reports whether the picture would be exported.
	InPhotoColumn bool `json:"in_photo_column" yaml:"in_photo_column"`
	// Key is the upper-cased key value on the anchor row, if readable.
	Key string `json:"key,omitempty" yaml:"key,omitempty"`
	// KeyError describes why the key could not be read.
	KeyError string `json:"key_error,omitempty" yaml:"key_error,omitempty"`
}

// SheetPictures lists every picture found on a sheet.
type SheetPictures struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name" yaml:"book_name"`
	// SheetName is the inspected sheet.
	SheetName string `json:"sheet_name" yaml:"sheet_name"`
	// PhotoColumn is the resolved 1-based photo column (0 if unresolved).
	PhotoColumn int `json:"photo_column" yaml:"photo_column"`
	// KeyColumn is the resolved 1-based key column (0 if unresolved).
	KeyColumn int `json:"key_column" yaml:"key_column"`
	// Pictures contains the pictures in drawing order.
	Pictures []PictureView `json:"pictures" yaml:"pictures"`
}
