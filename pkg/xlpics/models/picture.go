// Package models defines data structures for picture extraction.
package models

import "github.com/xuri/excelize/v2"

// Anchor is the cell a picture is attached to, as stored in the drawing part.
// Both fields are zero-based.
type Anchor struct {
	// Col is the zero-based column index.
	Col int `json:"col" yaml:"col"`
	// Row is the zero-based row index.
	Row int `json:"row" yaml:"row"`
}

// Coordinates returns the 1-based (column, row) pair used for cell addressing.
// This is the only place where drawing coordinates are converted.
func (a Anchor) Coordinates() (col, row int) {
	return a.Col + 1, a.Row + 1
}

// CellName returns the A1-style address of the anchor cell.
func (a Anchor) CellName() (string, error) {
	col, row := a.Coordinates()
	return excelize.CoordinatesToCellName(col, row)
}

// Picture represents an embedded raster image and its position on the sheet.
type Picture struct {
	// Index is the 1-based position of the picture in drawing order.
	Index int `json:"index" yaml:"index"`
	// Name is the drawing object name (e.g. "Picture 3").
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Descr is the alternative text of the picture.
	Descr string `json:"descr,omitempty" yaml:"descr,omitempty"`
	// Anchor is the top-left cell the picture is anchored to.
	Anchor Anchor `json:"anchor" yaml:"anchor"`
	// Media is the package part holding the image bytes (e.g. xl/media/image1.png).
	Media string `json:"media" yaml:"media"`
	// Extension is the lower-cased media file extension including the dot.
	Extension string `json:"extension" yaml:"extension"`
	// Width is the displayed width in pixels (0 if unknown).
	Width int `json:"w,omitempty" yaml:"w,omitempty"`
	// Height is the displayed height in pixels (0 if unknown).
	Height int `json:"h,omitempty" yaml:"h,omitempty"`
	// Data holds the raw media bytes.
	Data []byte `json:"-" yaml:"-"`
}
