package parser

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/ukaji3/xlpics-go/pkg/xlpics/models"
)

// Relationship type suffixes used by SpreadsheetML packages.
const (
	relTypeWorksheet = "/worksheet"
	relTypeDrawing   = "/drawing"
	relTypeImage     = "/image"
)

// ErrNoWorksheetPart is returned when a sheet name has no worksheet part in the package.
var ErrNoWorksheetPart = errors.New("worksheet part not found")

// relationship is a single entry of a .rels part.
type relationship struct {
	ID     string
	Type   string
	Target string
	// External marks TargetMode="External"; such targets are not package parts.
	External bool
}

// xdrMarker is the <xdr:from> element of a cell anchor.
type xdrMarker struct {
	Col    int   `xml:"col"`
	ColOff int64 `xml:"colOff"`
	Row    int   `xml:"row"`
	RowOff int64 `xml:"rowOff"`
}

// xdrPic is the subset of <xdr:pic> needed to locate the image bytes.
type xdrPic struct {
	NvPicPr struct {
		CNvPr struct {
			ID    int    `xml:"id,attr"`
			Name  string `xml:"name,attr"`
			Descr string `xml:"descr,attr"`
		} `xml:"cNvPr"`
	} `xml:"nvPicPr"`
	BlipFill struct {
		Blip struct {
			Embed string `xml:"embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr struct {
		Xfrm struct {
			Ext struct {
				Cx int64 `xml:"cx,attr"`
				Cy int64 `xml:"cy,attr"`
			} `xml:"ext"`
		} `xml:"xfrm"`
	} `xml:"spPr"`
}

// pictureRef is a picture found in a drawing part before its media is resolved.
type pictureRef struct {
	anchor  models.Anchor
	pic     xdrPic
	extCx   int64
	extCy   int64
	hasFrom bool
}

// ExtractPictures returns the pictures anchored on sheetName in drawing order.
// A sheet without a drawing part yields no pictures and no error.
func ExtractPictures(r *zip.Reader, sheetName string) ([]models.Picture, error) {
	sheetPart, err := worksheetPart(r, sheetName)
	if err != nil {
		return nil, err
	}

	sheetRels, err := readRelationships(r, relsPathFor(sheetPart))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var result []models.Picture
	for _, rel := range sheetRels {
		if rel.External || !strings.HasSuffix(rel.Type, relTypeDrawing) {
			continue
		}
		drawingPart := resolvePartPath(rel.Target, path.Dir(sheetPart))
		pics, err := parseDrawingPart(r, drawingPart, len(result))
		if err != nil {
			return nil, fmt.Errorf("drawing %s: %w", drawingPart, err)
		}
		result = append(result, pics...)
	}

	return result, nil
}

// parseDrawingPart reads a drawing part and resolves every picture's media bytes.
// offset is the number of pictures already collected for the sheet.
func parseDrawingPart(r *zip.Reader, drawingPart string, offset int) ([]models.Picture, error) {
	drawingXML, err := fs.ReadFile(r, drawingPart)
	if err != nil {
		return nil, err
	}

	rels, err := readRelationships(r, relsPathFor(drawingPart))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	media := make(map[string]string)
	for _, rel := range rels {
		if !rel.External && strings.HasSuffix(rel.Type, relTypeImage) {
			media[rel.ID] = resolvePartPath(rel.Target, path.Dir(drawingPart))
		}
	}

	refs, err := parseDrawingXML(drawingXML)
	if err != nil {
		return nil, err
	}

	var pictures []models.Picture
	for _, ref := range refs {
		mediaPart, ok := media[ref.pic.BlipFill.Blip.Embed]
		if !ok {
			// linked or broken image, nothing embedded to export
			continue
		}
		data, err := fs.ReadFile(r, mediaPart)
		if err != nil {
			return nil, fmt.Errorf("media %s: %w", mediaPart, err)
		}

		cx, cy := ref.pic.SpPr.Xfrm.Ext.Cx, ref.pic.SpPr.Xfrm.Ext.Cy
		if cx == 0 && cy == 0 {
			cx, cy = ref.extCx, ref.extCy
		}

		pictures = append(pictures, models.Picture{
			Index:     offset + len(pictures) + 1,
			Name:      ref.pic.NvPicPr.CNvPr.Name,
			Descr:     ref.pic.NvPicPr.CNvPr.Descr,
			Anchor:    ref.anchor,
			Media:     mediaPart,
			Extension: strings.ToLower(path.Ext(mediaPart)),
			Width:     EMUToPixels(cx),
			Height:    EMUToPixels(cy),
			Data:      data,
		})
	}

	return pictures, nil
}

// parseDrawingXML walks the cell anchors of a drawing part in document order.
func parseDrawingXML(data []byte) ([]pictureRef, error) {
	var results []pictureRef

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if se, ok := token.(xml.StartElement); ok {
			switch se.Name.Local {
			case "twoCellAnchor", "oneCellAnchor":
				ref, err := parseAnchor(decoder)
				if err != nil {
					return nil, err
				}
				if ref != nil {
					results = append(results, *ref)
				}
			case "absoluteAnchor":
				// no cell position to attach a key to
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
			}
		}
	}

	return results, nil
}

// parseAnchor consumes one cell anchor element and returns its picture, if any.
// Pictures nested in group shapes are not considered.
func parseAnchor(decoder *xml.Decoder) (*pictureRef, error) {
	var ref pictureRef
	var hasPic bool
	depth := 1

	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "from":
				var m xdrMarker
				if err := decoder.DecodeElement(&m, &t); err != nil {
					return nil, err
				}
				ref.anchor = models.Anchor{Col: m.Col, Row: m.Row}
				ref.hasFrom = true
			case "ext":
				// oneCellAnchor carries its extent as a direct child
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "cx":
						ref.extCx, _ = strconv.ParseInt(attr.Value, 10, 64)
					case "cy":
						ref.extCy, _ = strconv.ParseInt(attr.Value, 10, 64)
					}
				}
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
			case "pic":
				if hasPic {
					if err := decoder.Skip(); err != nil {
						return nil, err
					}
					continue
				}
				if err := decoder.DecodeElement(&ref.pic, &t); err != nil {
					return nil, err
				}
				hasPic = true
			case "to", "sp", "cxnSp", "grpSp", "graphicFrame", "clientData", "Fallback":
				if err := decoder.Skip(); err != nil {
					return nil, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}

	if !hasPic || !ref.hasFrom {
		return nil, nil
	}
	return &ref, nil
}

// worksheetPart returns the package path of the worksheet named sheetName.
func worksheetPart(r *zip.Reader, sheetName string) (string, error) {
	workbookXML, err := fs.ReadFile(r, "xl/workbook.xml")
	if err != nil {
		return "", err
	}

	rID, ok := parseWorkbookSheets(workbookXML)[sheetName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoWorksheetPart, sheetName)
	}

	rels, err := readRelationships(r, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return "", err
	}
	for _, rel := range rels {
		if rel.ID == rID && strings.HasSuffix(rel.Type, relTypeWorksheet) {
			return resolvePartPath(rel.Target, "xl"), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrNoWorksheetPart, sheetName)
}

// parseWorkbookSheets maps sheet name to relationship id.
func parseWorkbookSheets(data []byte) map[string]string {
	result := make(map[string]string)
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var name, rID string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "name":
					name = attr.Value
				case "id":
					rID = attr.Value
				}
			}
			if name != "" && rID != "" {
				result[name] = rID
			}
		}
	}

	return result
}

// readRelationships reads a .rels part. A missing part returns fs.ErrNotExist.
func readRelationships(r *zip.Reader, relsPath string) ([]relationship, error) {
	data, err := fs.ReadFile(r, relsPath)
	if err != nil {
		return nil, err
	}
	return parseRelationships(data), nil
}

func parseRelationships(data []byte) []relationship {
	var result []relationship
	decoder := xml.NewDecoder(strings.NewReader(string(data)))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rel relationship
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rel.ID = attr.Value
				case "Type":
					rel.Type = attr.Value
				case "Target":
					rel.Target = attr.Value
				case "TargetMode":
					rel.External = strings.EqualFold(attr.Value, "External")
				}
			}
			result = append(result, rel)
		}
	}

	return result
}

// relsPathFor returns the relationships part of a package part,
// e.g. xl/worksheets/sheet1.xml -> xl/worksheets/_rels/sheet1.xml.rels.
func relsPathFor(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolvePartPath resolves a relationship target against the source part's directory.
// Absolute targets are relative to the package root.
func resolvePartPath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(baseDir, target)
}
