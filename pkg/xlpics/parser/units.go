// Package parser reads header cells, key cells and picture anchors from xlsx packages.
package parser

// EMUPerPixel is the number of EMUs per pixel at 96 DPI (914400 EMU per inch).
const EMUPerPixel = 9525

// EMUToPixels converts a drawing extent in EMU to whole pixels at 96 DPI.
// Negative extents are treated as unknown and yield 0.
func EMUToPixels(emu int64) int {
	if emu <= 0 {
		return 0
	}
	return int((emu + EMUPerPixel/2) / EMUPerPixel)
}
