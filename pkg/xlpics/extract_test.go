package xlpics

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/xlpics-go/pkg/xlpics/parser"
)

// testPNG returns a 6x6 PNG; with alpha < 255 the image carries transparency.
func testPNG(t *testing.T, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 30, G: 60, B: 200, A: alpha})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// buildWorkbook creates a BAZA sheet with MDC in B5 and Photo in D5,
// lets setup fill rows and pictures, and saves it under dir.
func buildWorkbook(t *testing.T, dir string, setup func(f *excelize.File)) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "BAZA"))
	require.NoError(t, f.SetCellValue("BAZA", "A1", "Price list"))
	require.NoError(t, f.SetCellValue("BAZA", "A5", "Name"))
	require.NoError(t, f.SetCellValue("BAZA", "B5", "MDC"))
	require.NoError(t, f.SetCellValue("BAZA", "D5", " Photo "))
	setup(f)

	path := filepath.Join(dir, "mo_oa.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func addPicture(t *testing.T, f *excelize.File, cell string, data []byte) {
	t.Helper()
	require.NoError(t, f.AddPictureFromBytes("BAZA", cell, &excelize.Picture{
		Extension: ".png",
		File:      data,
		Format:    &excelize.GraphicOptions{},
	}))
}

func testConfig(file, outDir string) Config {
	cfg := DefaultConfig()
	cfg.File = file
	cfg.OutputDir = outDir
	return cfg
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "sku-99"))
		addPicture(t, f, "D10", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "out", "img")

	logger, logs := bufferLogger()
	report, err := Run(testConfig(path, outDir), logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU-99.jpg"}, listDir(t, outDir))
	assert.Equal(t, []string{filepath.Join(outDir, "SKU-99.jpg")}, report.Saved)
	assert.Equal(t, "mo_oa.xlsx", report.BookName)
	assert.Equal(t, "BAZA", report.SheetName)
	assert.NotContains(t, logs.String(), "level=ERROR")

	f, err := os.Open(filepath.Join(outDir, "SKU-99.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 6, img.Bounds().Dx())
}

func TestRunIgnoresOtherColumns(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "keep"))
		require.NoError(t, f.SetCellValue("BAZA", "B11", "logo"))
		addPicture(t, f, "D10", testPNG(t, 255))
		addPicture(t, f, "F11", testPNG(t, 255))
		addPicture(t, f, "A2", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")

	report, err := Run(testConfig(path, outDir), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"KEEP.jpg"}, listDir(t, outDir))
	assert.Equal(t, 2, report.Ignored)
}

func TestRunEmptyKeySkipsAndContinues(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "first"))
		require.NoError(t, f.SetCellValue("BAZA", "B11", "   "))
		require.NoError(t, f.SetCellValue("BAZA", "B12", "third"))
		addPicture(t, f, "D10", testPNG(t, 255))
		addPicture(t, f, "D11", testPNG(t, 255))
		addPicture(t, f, "D12", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")

	logger, logs := bufferLogger()
	report, err := Run(testConfig(path, outDir), logger)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"FIRST.jpg", "THIRD.jpg"}, listDir(t, outDir))
	assert.Equal(t, []string{"B11"}, report.EmptyKeys)

	var warnings []string
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		if strings.Contains(line, "level=WARN") {
			warnings = append(warnings, line)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "cell=B11")
}

func TestRunTransparentPicture(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B7", "alpha"))
		addPicture(t, f, "D7", testPNG(t, 90))
	})
	outDir := filepath.Join(dir, "img")

	_, err := Run(testConfig(path, outDir), nil)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(outDir, "ALPHA.jpg"))
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)

	// three channels, no alpha
	require.IsType(t, &image.YCbCr{}, img)
	_, _, b, a := img.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	assert.Greater(t, b>>8, uint32(150), "stored colour is kept, not darkened by alpha")
}

func TestRunMalformedKeyAborts(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "before"))
		// B13 never set: the cell has no value at all
		require.NoError(t, f.SetCellValue("BAZA", "B14", "after"))
		addPicture(t, f, "D10", testPNG(t, 255))
		addPicture(t, f, "D13", testPNG(t, 255))
		addPicture(t, f, "D14", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")

	report, err := Run(testConfig(path, outDir), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedKeyCell)
	assert.ErrorIs(t, err, parser.ErrNoValue)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "B13", extErr.Cell)
	assert.Equal(t, 2, extErr.Image)
	assert.Equal(t, "BAZA", extErr.Sheet)
	assert.Contains(t, err.Error(), "B13")

	assert.Equal(t, []string{"BEFORE.jpg"}, listDir(t, outDir))
	require.NotNil(t, report)
	assert.Len(t, report.Saved, 1)
}

func TestRunMalformedKeySkipPolicy(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "before"))
		require.NoError(t, f.SetCellValue("BAZA", "B14", "after"))
		addPicture(t, f, "D10", testPNG(t, 255))
		addPicture(t, f, "D13", testPNG(t, 255))
		addPicture(t, f, "D14", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")

	cfg := testConfig(path, outDir)
	cfg.OnMalformedKey = MalformedKeySkip
	report, err := Run(cfg, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"BEFORE.jpg", "AFTER.jpg"}, listDir(t, outDir))
	assert.Equal(t, []string{"B13"}, report.MalformedKeys)
}

func TestRunMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B5", "MDC code"))
		require.NoError(t, f.SetCellValue("BAZA", "B10", "sku-1"))
		addPicture(t, f, "D10", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")

	report, err := Run(testConfig(path, outDir), nil)
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), "MDC")
	assert.Nil(t, report)
	assert.Empty(t, listDir(t, outDir))
}

func TestRunHardFailures(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {})

	notXLSX := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(notXLSX, []byte("not a zip"), 0o644))

	tests := []struct {
		name   string
		modify func(cfg *Config)
		want   error
	}{
		{"missing file", func(cfg *Config) { cfg.File = filepath.Join(dir, "nope.xlsx") }, ErrFileNotFound},
		{"invalid package", func(cfg *Config) { cfg.File = notXLSX }, ErrInvalidFormat},
		{"missing sheet", func(cfg *Config) { cfg.Sheet = "baza" }, ErrSheetNotFound},
		{"blank header row", func(cfg *Config) { cfg.HeaderRow = 3 }, ErrMalformedHeader},
		{"header row past end", func(cfg *Config) { cfg.HeaderRow = 500 }, ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(path, filepath.Join(t.TempDir(), "img"))
			tt.modify(&cfg)
			_, err := Run(cfg, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "sku-99"))
		addPicture(t, f, "D10", testPNG(t, 255))
	})
	outDir := filepath.Join(dir, "img")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	stale := filepath.Join(outDir, "SKU-99.jpg")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))

	_, err := Run(testConfig(path, outDir), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("stale"), data)
}

func TestRunCodecError(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "truncated"))
		// signature and IHDR only: the header parses, the pixel data is missing
		addPicture(t, f, "D10", testPNG(t, 255)[:33])
	})

	_, err := Run(testConfig(path, filepath.Join(dir, "img")), nil)
	assert.ErrorIs(t, err, ErrCodec)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, 1, extErr.Image)
}

func TestResolveColumns(t *testing.T) {
	headers := parser.HeaderMap{"Photo": 4, "MDC": 2}

	photo, key, err := ResolveColumns(headers, "Photo", " MDC ")
	require.NoError(t, err)
	assert.Equal(t, 4, photo)
	assert.Equal(t, 2, key)

	_, _, err = ResolveColumns(headers, "Photo", "SKU")
	assert.ErrorIs(t, err, ErrColumnNotFound)
	assert.Contains(t, err.Error(), "SKU")

	_, _, err = ResolveColumns(parser.HeaderMap{}, "Photo", "MDC")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := buildWorkbook(t, dir, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("BAZA", "B10", "sku-99"))
		addPicture(t, f, "D10", testPNG(t, 255))
		addPicture(t, f, "F12", testPNG(t, 255))
	})

	result, err := Inspect(testConfig(path, filepath.Join(dir, "img")))
	require.NoError(t, err)

	assert.Equal(t, 4, result.PhotoColumn)
	assert.Equal(t, 2, result.KeyColumn)
	require.Len(t, result.Pictures, 2)

	assert.Equal(t, "D10", result.Pictures[0].Cell)
	assert.True(t, result.Pictures[0].InPhotoColumn)
	assert.Equal(t, "SKU-99", result.Pictures[0].Key)

	assert.Equal(t, "F12", result.Pictures[1].Cell)
	assert.False(t, result.Pictures[1].InPhotoColumn)
	assert.NotEmpty(t, result.Pictures[1].KeyError)

	_, err = os.Stat(filepath.Join(dir, "img"))
	assert.True(t, os.IsNotExist(err), "inspect must not create the output directory")
}
