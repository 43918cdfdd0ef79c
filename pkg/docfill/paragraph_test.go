package docfill

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseParagraph(t *testing.T, bodyXML string) *Paragraph {
	t.Helper()
	doc, err := ParseDocument(bytes.NewReader([]byte(wrapInDocumentXML(bodyXML))))
	require.NoError(t, err)
	require.NotEmpty(t, doc.Body.Elements)
	p, ok := doc.Body.Elements[0].(*Paragraph)
	require.True(t, ok, "first body element should be a paragraph")
	return p
}

func TestMergeTextJoinsFragmentedRuns(t *testing.T) {
	p := parseParagraph(t, para("Hello ", "${na", "me}", "!"))
	assert.Equal(t, "Hello ${name}!", mergeText(p))
}

func TestMergeTextSingleRun(t *testing.T) {
	p := parseParagraph(t, para("plain text"))
	assert.Equal(t, "plain text", mergeText(p))
}

func TestMergeTextEmptyParagraph(t *testing.T) {
	p := parseParagraph(t, "<w:p></w:p>")
	assert.Equal(t, "", mergeText(p))
}

func TestRewriteCollapsesToSingleRun(t *testing.T) {
	p := parseParagraph(t, para("a", "b", "c"))
	rewrite(p, "replaced")

	runs := p.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "replaced", p.GetText())
}

func TestNewRunExpandsNewlinesToBreaks(t *testing.T) {
	run := newRun("line1\nline2\nline3")

	var texts, breaks int
	for _, child := range run.Children {
		switch child.(type) {
		case *Text:
			texts++
		case *Break:
			breaks++
		}
	}
	assert.Equal(t, 3, texts)
	assert.Equal(t, 2, breaks)
	assert.Equal(t, "line1line2line3", run.GetText())
}

func TestRewriteDiscardsRunStyling(t *testing.T) {
	p := parseParagraph(t, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>bold ${x}</w:t></w:r></w:p>`)
	rewrite(p, "bold value")

	runs := p.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "bold value", p.GetText())
}

func TestRewriteWithImageSkipsEmptyFragments(t *testing.T) {
	p := parseParagraph(t, para("${pic}"))
	imageRun := &Run{Children: []RunChild{&RawXML{Content: []byte("<w:drawing/>")}}}
	rewriteWithImage(p, "", "", imageRun)

	runs := p.Runs()
	require.Len(t, runs, 1)
	assert.Empty(t, p.GetText())
}

func TestRewriteWithImageKeepsSurroundingText(t *testing.T) {
	p := parseParagraph(t, para("Logo: ${pic} (inline)"))
	imageRun := &Run{Children: []RunChild{&RawXML{Content: []byte("<w:drawing/>")}}}
	rewriteWithImage(p, "Logo: ", " (inline)", imageRun)

	runs := p.Runs()
	require.Len(t, runs, 3)
	assert.Equal(t, "Logo: ", runs[0].GetText())
	assert.Equal(t, " (inline)", runs[2].GetText())
}
