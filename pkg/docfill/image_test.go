package docfill

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPNG returns an encoded 4x4 PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEmbedImageRegistersPendingImage(t *testing.T) {
	f := &filler{nextRelID: 5, nextDrawingID: 1000}

	img, err := f.embedImage("logo", bytes.NewReader(testPNG(t)))
	require.NoError(t, err)

	assert.Equal(t, "rId5", img.relID)
	assert.Equal(t, 1000, img.drawingID)
	assert.Equal(t, "fillimage1.png", img.filename)
	assert.Equal(t, "image/png", img.contentType)
	assert.Equal(t, 6, f.nextRelID)
	assert.Equal(t, 1001, f.nextDrawingID)
	require.Len(t, f.pending, 1)
}

func TestEmbedImageNilReader(t *testing.T) {
	f := &filler{nextRelID: 1}

	_, err := f.embedImage("logo", nil)
	require.Error(t, err)
	assert.True(t, IsImageError(err))
	assert.Empty(t, f.pending)
}

func TestEmbedImageRejectsNonImageData(t *testing.T) {
	f := &filler{nextRelID: 1}

	_, err := f.embedImage("logo", strings.NewReader("not an image"))
	require.Error(t, err)
	assert.True(t, IsImageError(err))
}

func TestDrawingXMLUsesFixedDisplaySize(t *testing.T) {
	img := &pendingImage{key: "logo", relID: "rId7", drawingID: 1000}
	xml := img.drawingXML()

	// 150 px at 9525 EMU per pixel
	assert.Contains(t, xml, `cx="1428750" cy="1428750"`)
	assert.Contains(t, xml, `r:embed="rId7"`)
	assert.Contains(t, xml, `name="logo"`)
}

func TestDrawingXMLEscapesKey(t *testing.T) {
	img := &pendingImage{key: `a"<b>`, relID: "rId1", drawingID: 1}
	xml := img.drawingXML()

	assert.NotContains(t, xml, `name="a"<b>"`)
	assert.Contains(t, xml, "a&quot;&lt;b&gt;")
}

func TestNextRelationshipID(t *testing.T) {
	assert.Equal(t, 1, nextRelationshipID(nil))
	assert.Equal(t, 4, nextRelationshipID([]Relationship{
		{ID: "rId1"}, {ID: "rId3"}, {ID: "other"},
	}))
}

func TestImageRelationship(t *testing.T) {
	img := &pendingImage{relID: "rId9", filename: "fillimage1.png"}
	rel := img.relationship()

	assert.Equal(t, "rId9", rel.ID)
	assert.Equal(t, imageRelationshipType, rel.Type)
	assert.Equal(t, "media/fillimage1.png", rel.Target)
}

func TestSubstituteParagraphEmbedsImage(t *testing.T) {
	p := parseParagraph(t, para("Logo: ", "${li", "cense}", " end"))
	f := &filler{
		data:          FillData{},
		images:        ImageMap{"license": bytes.NewReader(testPNG(t))},
		nextRelID:     2,
		nextDrawingID: 1000,
	}

	require.NoError(t, f.substituteParagraph(p))

	runs := p.Runs()
	require.Len(t, runs, 3)
	assert.Equal(t, "Logo: ", runs[0].GetText())
	assert.Equal(t, " end", runs[2].GetText())
	require.Len(t, runs[1].Children, 1)
	_, isRaw := runs[1].Children[0].(*RawXML)
	assert.True(t, isRaw)

	// the key is consumed
	assert.Empty(t, f.images)
	require.Len(t, f.pending, 1)
}

func TestSubstituteParagraphOnlyFirstImagePerParagraph(t *testing.T) {
	p := parseParagraph(t, para("${a} and ${b}"))
	later := parseParagraph(t, para("${b}"))
	f := &filler{
		data: FillData{},
		images: ImageMap{
			"a": bytes.NewReader(testPNG(t)),
			"b": bytes.NewReader(testPNG(t)),
		},
		nextRelID:     1,
		nextDrawingID: 1000,
	}

	require.NoError(t, f.substituteParagraph(p))

	// only the first placeholder is embedded; the rest of the paragraph
	// keeps its text, second placeholder included
	require.Len(t, f.pending, 1)
	assert.Equal(t, "a", f.pending[0].key)
	assert.Equal(t, " and ${b}", p.GetText())

	// the unconsumed key is still available to a later paragraph
	require.NoError(t, f.substituteParagraph(later))
	require.Len(t, f.pending, 2)
	assert.Equal(t, "b", f.pending[1].key)
	assert.Empty(t, f.images)
}

func TestSubstituteParagraphImageKeyConsumedOnce(t *testing.T) {
	p1 := parseParagraph(t, para("${pic}"))
	p2 := parseParagraph(t, para("${pic}"))
	f := &filler{
		data:          FillData{},
		images:        ImageMap{"pic": bytes.NewReader(testPNG(t))},
		nextRelID:     1,
		nextDrawingID: 1000,
	}

	require.NoError(t, f.substituteParagraph(p1))
	require.NoError(t, f.substituteParagraph(p2))

	// the second occurrence has no binding left and stays textual
	assert.Equal(t, "${pic}", p2.GetText())
	assert.Len(t, f.pending, 1)
}
