package docfill

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	imageRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	// Word measures drawings in English Metric Units.
	emuPerPixel = 9525

	// Embedded images render at a fixed 150x150 px. This is part of the
	// engine contract, not a tunable.
	imageDisplayPx  = 150
	imageDisplayEMU = imageDisplayPx * emuPerPixel
)

// pendingImage is an image consumed from the bindings, waiting to be written
// into the output package as a media part plus relationship.
type pendingImage struct {
	key         string
	relID       string
	drawingID   int
	filename    string
	contentType string
	data        []byte
}

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

var imageExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"bmp":  ".bmp",
	"tiff": ".tiff",
	"webp": ".webp",
}

// embedImage reads the bound stream fully, verifies it decodes as a known
// image format, and registers it for inclusion in the output package. The
// caller-provided stream is never closed here.
func (f *filler) embedImage(key string, r io.Reader) (*pendingImage, error) {
	if r == nil {
		return nil, &ImageError{Key: key, Cause: fmt.Errorf("nil image stream")}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ImageError{Key: key, Cause: fmt.Errorf("reading image stream: %w", err)}
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageError{Key: key, Cause: fmt.Errorf("decoding image: %w", err)}
	}

	contentType, ok := imageContentTypes[format]
	if !ok {
		return nil, &ImageError{Key: key, Cause: fmt.Errorf("unsupported image format %q", format)}
	}

	seq := len(f.pending) + 1
	img := &pendingImage{
		key:         key,
		relID:       fmt.Sprintf("rId%d", f.nextRelID),
		drawingID:   f.nextDrawingID,
		filename:    fmt.Sprintf("fillimage%d%s", seq, imageExtensions[format]),
		contentType: contentType,
		data:        data,
	}
	f.nextRelID++
	f.nextDrawingID++
	f.pending = append(f.pending, img)

	return img, nil
}

// run builds the run carrying the inline drawing for this image.
func (img *pendingImage) run() *Run {
	return &Run{Children: []RunChild{&RawXML{Content: []byte(img.drawingXML())}}}
}

// drawingXML renders a self-contained inline picture element. All drawing
// namespaces are declared locally so the result is valid even in templates
// that never contained a drawing before.
func (img *pendingImage) drawingXML() string {
	name := escapeAttrString(img.key)
	return fmt.Sprintf(
		`<w:drawing>`+
			`<wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">`+
			`<wp:extent cx="%[1]d" cy="%[1]d"/>`+
			`<wp:effectExtent l="0" t="0" r="0" b="0"/>`+
			`<wp:docPr id="%[2]d" name="%[3]s"/>`+
			`<wp:cNvGraphicFramePr/>`+
			`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
			`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:nvPicPr><pic:cNvPr id="%[2]d" name="%[3]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill>`+
			`<a:blip r:embed="%[4]s" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"/>`+
			`<a:stretch><a:fillRect/></a:stretch>`+
			`</pic:blipFill>`+
			`<pic:spPr>`+
			`<a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[1]d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom>`+
			`</pic:spPr>`+
			`</pic:pic>`+
			`</a:graphicData>`+
			`</a:graphic>`+
			`</wp:inline>`+
			`</w:drawing>`,
		imageDisplayEMU, img.drawingID, name, img.relID)
}

func escapeAttrString(s string) string {
	var sb strings.Builder
	escapeAttr(&sb, s)
	return sb.String()
}

// nextRelationshipID returns the numeric suffix one past the highest rIdN
// already present.
func nextRelationshipID(rels []Relationship) int {
	maxID := 0
	for _, rel := range rels {
		if strings.HasPrefix(rel.ID, "rId") {
			if id, err := strconv.Atoi(rel.ID[3:]); err == nil && id > maxID {
				maxID = id
			}
		}
	}
	return maxID + 1
}

// imageRelationship builds the package relationship for a pending image.
func (img *pendingImage) relationship() Relationship {
	return Relationship{
		ID:     img.relID,
		Type:   imageRelationshipType,
		Target: "media/" + img.filename,
	}
}
