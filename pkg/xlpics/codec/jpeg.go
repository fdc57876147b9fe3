// Package codec decodes embedded pictures and re-encodes them as JPEG.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// DefaultJPEGQuality matches the quality used by common image libraries when none is given.
const DefaultJPEGQuality = 75

// Decode decodes raw picture bytes of any registered raster format
// (JPEG, PNG, GIF, BMP, TIFF, WebP).
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// HasAlpha reports whether img has any pixel that is not fully opaque.
func HasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}

// Flatten drops the alpha channel of img. Colour channels keep their stored
// (non-premultiplied) values; nothing is composited against a background.
func Flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Normalize returns img ready for JPEG encoding: images with transparency are
// flattened, everything else is returned unchanged.
func Normalize(img image.Image) image.Image {
	if HasAlpha(img) {
		return Flatten(img)
	}
	return img
}

// WriteJPEG encodes img as JPEG into path, replacing any existing file.
func WriteJPEG(path string, img image.Image, quality int) (err error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
