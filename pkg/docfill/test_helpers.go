// test_helpers.go contains builders used only by tests. They construct
// in-memory DOCX packages from body XML snippets.

package docfill

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// buildDocxBytes creates a minimal DOCX package whose word/document.xml
// body holds the given elements.
func buildDocxBytes(bodyXML string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	rels, _ := w.Create("_rels/.rels")
	io.WriteString(rels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)

	wordRels, _ := w.Create("word/_rels/document.xml.rels")
	io.WriteString(wordRels, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`)

	doc, _ := w.Create("word/document.xml")
	io.WriteString(doc, wrapInDocumentXML(bodyXML))

	styles, _ := w.Create("word/styles.xml")
	io.WriteString(styles, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`)

	ct, _ := w.Create("[Content_Types].xml")
	io.WriteString(ct, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`)

	w.Close()
	return buf.Bytes()
}

// wrapInDocumentXML wraps body elements in a complete document.xml.
func wrapInDocumentXML(bodyXML string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		bodyXML + `</w:body></w:document>`
}

// para builds a paragraph of one run per text fragment. Passing several
// fragments simulates a placeholder split across runs by Word.
func para(fragments ...string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	for _, frag := range fragments {
		sb.WriteString(`<w:r><w:t xml:space="preserve">`)
		escapeText(&sb, frag)
		sb.WriteString("</w:t></w:r>")
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

// tbl builds a table from rows, each row being a list of cell texts.
func tbl(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl>")
	for _, cells := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range cells {
			sb.WriteString("<w:tc>")
			sb.WriteString(para(cell))
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

// parseBody parses a full DOCX and returns its document model.
func parseBody(docxBytes []byte) (*Document, error) {
	reader, err := NewDocxReader(bytes.NewReader(docxBytes), int64(len(docxBytes)))
	if err != nil {
		return nil, err
	}
	docXML, err := reader.GetDocumentXML()
	if err != nil {
		return nil, err
	}
	return ParseDocument(bytes.NewReader(docXML))
}

// bodyText flattens the document body to plain text, paragraphs and table
// cells joined by newlines.
func bodyText(doc *Document) string {
	var parts []string
	for _, elem := range doc.Body.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			parts = append(parts, el.GetText())
		case *Table:
			for _, row := range el.Rows {
				var cells []string
				for i := range row.Cells {
					cells = append(cells, row.Cells[i].GetText())
				}
				parts = append(parts, strings.Join(cells, "|"))
			}
		}
	}
	return strings.Join(parts, "\n")
}
