package docfill

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readZipPart(t *testing.T, docxBytes []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return content
	}
	t.Fatalf("part %s not found in output package", name)
	return nil
}

func zipPartNames(t *testing.T, docxBytes []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestFillScalarAcrossRuns(t *testing.T) {
	template := buildDocxBytes(para("Hello ", "${na", "me}", "!"))

	output, err := Fill(template, FillData{Text: ScalarMap{"name": "Zhang Wei"}})
	require.NoError(t, err)

	doc, err := parseBody(output)
	require.NoError(t, err)
	assert.Equal(t, "Hello Zhang Wei!", bodyText(doc))
}

func TestFillEmptyTemplate(t *testing.T) {
	_, err := Fill(nil, FillData{})
	require.Error(t, err)
	assert.True(t, IsInvalidInputError(err))
}

func TestFillInvalidZip(t *testing.T) {
	_, err := Fill([]byte("not a zip archive"), FillData{})
	require.Error(t, err)
	assert.True(t, IsDocumentError(err))
}

func TestFillNoBindingsIsLossless(t *testing.T) {
	template := buildDocxBytes(
		para("First paragraph") +
			tbl([]string{"a", "b"}, []string{"c", "d"}) +
			para("Last ${untouched} paragraph"))

	output, err := Fill(template, FillData{})
	require.NoError(t, err)

	doc, err := parseBody(output)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\na|b\nc|d\nLast ${untouched} paragraph", bodyText(doc))

	// untouched parts are copied through byte for byte
	assert.Equal(t,
		readZipPart(t, template, "word/styles.xml"),
		readZipPart(t, output, "word/styles.xml"))
}

func TestFillTableExpansion(t *testing.T) {
	template := buildDocxBytes(
		para("Invoice ${number}") +
			tbl(
				[]string{"Product", "Price"},
				[]string{"${table:items}", ""},
				[]string{"${product}", "${price}"},
			))

	output, err := Fill(template, FillData{
		Text: ScalarMap{"number": "2026-001"},
		Tables: TableMap{
			"items": {
				{"product": "Widget", "price": "19.99"},
				{"product": "Gadget", "price": "29.99"},
			},
		},
	})
	require.NoError(t, err)

	doc, err := parseBody(output)
	require.NoError(t, err)
	text := bodyText(doc)
	assert.Contains(t, text, "Invoice 2026-001")
	assert.Contains(t, text, "Widget|19.99")
	assert.Contains(t, text, "Gadget|29.99")
	assert.NotContains(t, text, "${table:items}")
	assert.NotContains(t, text, "${product}")
}

func TestFillEmbedsImagePackageParts(t *testing.T) {
	template := buildDocxBytes(para("Logo: ${logo} end"))

	output, err := Fill(template, FillData{
		Images: ImageMap{"logo": bytes.NewReader(testPNG(t))},
	})
	require.NoError(t, err)

	names := zipPartNames(t, output)
	assert.Contains(t, names, "word/media/fillimage1.png")

	relsXML := string(readZipPart(t, output, "word/_rels/document.xml.rels"))
	assert.Contains(t, relsXML, "media/fillimage1.png")
	assert.Contains(t, relsXML, imageRelationshipType)

	typesXML := string(readZipPart(t, output, "[Content_Types].xml"))
	assert.Contains(t, typesXML, `Extension="png"`)

	docXML := string(readZipPart(t, output, "word/document.xml"))
	assert.Contains(t, docXML, "<w:drawing>")
	assert.Contains(t, docXML, `cx="1428750"`)
	assert.NotContains(t, docXML, "${logo}")
}

func TestFillImageRelationshipIDsDoNotCollide(t *testing.T) {
	template := buildDocxBytes(para("${a}") + para("${b}"))

	output, err := Fill(template, FillData{
		Images: ImageMap{
			"a": bytes.NewReader(testPNG(t)),
			"b": bytes.NewReader(testPNG(t)),
		},
	})
	require.NoError(t, err)

	relsXML := string(readZipPart(t, output, "word/_rels/document.xml.rels"))
	// the template already holds rId1, images start after it
	assert.Contains(t, relsXML, `Id="rId2"`)
	assert.Contains(t, relsXML, `Id="rId3"`)
	assert.Equal(t, 1, strings.Count(relsXML, `Id="rId1"`))
}

func TestFillBadImageFailsWholeFill(t *testing.T) {
	template := buildDocxBytes(para("${logo}"))

	_, err := Fill(template, FillData{
		Images: ImageMap{"logo": strings.NewReader("junk")},
	})
	require.Error(t, err)
	assert.True(t, IsImageError(err))
}

func TestFillBase64RoundTrip(t *testing.T) {
	template := buildDocxBytes(para("Hi ${name}"))
	encoded := base64.StdEncoding.EncodeToString(template)

	outputB64, err := FillBase64(encoded, FillData{Text: ScalarMap{"name": "Li"}})
	require.NoError(t, err)

	output, err := base64.StdEncoding.DecodeString(outputB64)
	require.NoError(t, err)

	doc, err := parseBody(output)
	require.NoError(t, err)
	assert.Equal(t, "Hi Li", bodyText(doc))
}

func TestFillBase64InvalidInput(t *testing.T) {
	_, err := FillBase64("not-base64!!!", FillData{})
	require.Error(t, err)
	assert.True(t, IsInvalidInputError(err))
}

func TestFillOutputIsFillableAgain(t *testing.T) {
	template := buildDocxBytes(para("${greeting} ${name}"))

	first, err := Fill(template, FillData{Text: ScalarMap{"greeting": "Hello"}})
	require.NoError(t, err)

	second, err := Fill(first, FillData{Text: ScalarMap{"name": "Wang"}})
	require.NoError(t, err)

	doc, err := parseBody(second)
	require.NoError(t, err)
	assert.Equal(t, "Hello Wang", bodyText(doc))
}

func TestEngineAuthorizerGatesFill(t *testing.T) {
	engine := New()
	engine.UseAuthorizer(AuthorizerFunc(func(op string) error {
		return &AuthorizationError{Message: "denied"}
	}))

	_, err := engine.Fill(buildDocxBytes(para("x")), FillData{})
	require.Error(t, err)
	assert.True(t, IsAuthorizationError(err))
}

func TestEngineFillFile(t *testing.T) {
	dir := t.TempDir()
	templatePath := dir + "/template.docx"
	outputPath := dir + "/output.docx"
	require.NoError(t, os.WriteFile(templatePath, buildDocxBytes(para("Dear ${name},")), 0o644))

	engine := New()
	require.NoError(t, engine.FillFile(templatePath, outputPath, FillData{
		Text: ScalarMap{"name": "Chen"},
	}))

	output, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	doc, err := parseBody(output)
	require.NoError(t, err)
	assert.Equal(t, "Dear Chen,", bodyText(doc))
}
