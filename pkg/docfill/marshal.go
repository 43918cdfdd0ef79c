package docfill

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// prefixForURI converts a resolved namespace URI back to its conventional
// OOXML prefix. encoding/xml expands prefixes to URIs during decoding, so raw
// subtrees are re-prefixed at capture time.
func prefixForURI(uri string) string {
	prefixMap := map[string]string{
		"http://schemas.openxmlformats.org/wordprocessingml/2006/main":           "w",
		"http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing": "wp",
		"http://schemas.openxmlformats.org/drawingml/2006/main":                  "a",
		"http://schemas.openxmlformats.org/drawingml/2006/picture":               "pic",
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships":    "r",
		"http://schemas.openxmlformats.org/markup-compatibility/2006":            "mc",
		"http://www.w3.org/XML/1998/namespace":                                   "xml",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing":    "wp14",
		"http://schemas.microsoft.com/office/drawing/2010/main":                  "a14",
		"http://schemas.microsoft.com/office/word/2010/wordml":                   "w14",
		"http://schemas.microsoft.com/office/word/2012/wordml":                   "w15",
		"http://schemas.microsoft.com/office/word/2018/wordml":                   "w16",
		"http://schemas.microsoft.com/office/word/2015/wordml/symex":             "w16se",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas":     "wpc",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingGroup":      "wpg",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingInk":        "wpi",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":      "wps",
		"http://schemas.microsoft.com/office/word/2006/wordml":                   "wne",
		"http://schemas.openxmlformats.org/officeDocument/2006/math":             "m",
		"urn:schemas-microsoft-com:vml":                                          "v",
		"urn:schemas-microsoft-com:office:office":                                "o",
		"urn:schemas-microsoft-com:office:word":                                  "w10",
	}

	if prefix, ok := prefixMap[uri]; ok {
		return prefix
	}
	return uri
}

// writeName writes an element or attribute name in prefix form.
func writeName(sb *strings.Builder, name xml.Name) {
	if name.Space != "" {
		sb.WriteString(prefixForURI(name.Space))
		sb.WriteString(":")
	}
	sb.WriteString(name.Local)
}

func escapeAttr(sb *strings.Builder, value string) {
	for _, r := range value {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '"':
			sb.WriteString("&quot;")
		default:
			sb.WriteRune(r)
		}
	}
}

func escapeText(sb *strings.Builder, value string) {
	for _, r := range value {
		switch r {
		case '&':
			sb.WriteString("&amp;")
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		default:
			sb.WriteRune(r)
		}
	}
}

// captureRaw consumes the element opened by start and returns its full
// serialization, namespaces already converted back to prefix form.
func captureRaw(d *xml.Decoder, start xml.StartElement) (*RawXML, error) {
	var sb strings.Builder

	writeStart := func(t xml.StartElement) {
		sb.WriteString("<")
		writeName(&sb, t.Name)
		for _, attr := range t.Attr {
			sb.WriteString(" ")
			if attr.Name.Space == "xmlns" {
				sb.WriteString("xmlns:")
				sb.WriteString(attr.Name.Local)
			} else {
				writeName(&sb, attr.Name)
			}
			sb.WriteString(`="`)
			escapeAttr(&sb, attr.Value)
			sb.WriteString(`"`)
		}
		sb.WriteString(">")
	}

	writeStart(start)

	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			writeStart(t)
		case xml.EndElement:
			depth--
			sb.WriteString("</")
			writeName(&sb, t.Name)
			sb.WriteString(">")
		case xml.CharData:
			escapeText(&sb, string(t))
		}
	}

	return &RawXML{Content: []byte(sb.String())}, nil
}

// rawSplicer assigns markers to every RawXML node before marshaling and
// splices the stored content back into the serialized output afterwards.
// encoding/xml cannot emit raw bytes, so the model marshals placeholder
// elements instead.
type rawSplicer struct {
	contents map[string][]byte
	n        int
}

func newRawSplicer() *rawSplicer {
	return &rawSplicer{contents: make(map[string][]byte)}
}

func (s *rawSplicer) assign(raw *RawXML) {
	if raw == nil {
		return
	}
	raw.marker = fmt.Sprintf("__DOCFILL_RAW_%d__", s.n)
	s.contents[raw.marker] = raw.Content
	s.n++
}

func (s *rawSplicer) walkDocument(doc *Document) {
	if doc.Body == nil {
		return
	}
	s.assign(doc.Body.SectPr)
	for _, elem := range doc.Body.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			s.walkParagraph(el)
		case *Table:
			s.walkTable(el)
		case *rawBodyElement:
			s.assign(el.raw)
		}
	}
}

func (s *rawSplicer) walkParagraph(p *Paragraph) {
	s.assign(p.Props)
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			s.assign(c.Props)
			for _, rc := range c.Children {
				if raw, ok := rc.(*RawXML); ok {
					s.assign(raw)
				}
			}
		case *RawXML:
			s.assign(c)
		}
	}
}

func (s *rawSplicer) walkTable(t *Table) {
	s.assign(t.Props)
	s.assign(t.Grid)
	for i := range t.Rows {
		row := &t.Rows[i]
		s.assign(row.Props)
		for j := range row.Cells {
			cell := &row.Cells[j]
			s.assign(cell.Props)
			for _, child := range cell.Children {
				switch c := child.(type) {
				case *Paragraph:
					s.walkParagraph(c)
				case *RawXML:
					s.assign(c)
				}
			}
		}
	}
}

// splice replaces marker placeholders with the preserved raw content. Markers
// emitted as text elements take the whole <w:t> wrapper with them so the raw
// subtree becomes a sibling of the surrounding run content.
func (s *rawSplicer) splice(xmlStr string) string {
	for marker, raw := range s.contents {
		textForm := "<w:t>" + marker + "</w:t>"
		elemForm := "<rawXMLMarker>" + marker + "</rawXMLMarker>"
		if strings.Contains(xmlStr, textForm) {
			xmlStr = strings.Replace(xmlStr, textForm, string(raw), 1)
		} else if strings.Contains(xmlStr, elemForm) {
			xmlStr = strings.Replace(xmlStr, elemForm, string(raw), 1)
		}
	}
	return xmlStr
}

func encodeMarkerElement(e *xml.Encoder, marker string) error {
	elem := struct {
		Content string `xml:",chardata"`
	}{Content: marker}
	return e.EncodeElement(&elem, xml.StartElement{Name: xml.Name{Local: "rawXMLMarker"}})
}

// MarshalXML writes the body with w:-prefixed names, emitting markers for
// preserved raw subtrees.
func (b *Body) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:body"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	for _, elem := range b.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
				return err
			}
		case *Table:
			if err := e.EncodeElement(el, xml.StartElement{Name: xml.Name{Local: "w:tbl"}}); err != nil {
				return err
			}
		case *rawBodyElement:
			if err := encodeMarkerElement(e, el.raw.marker); err != nil {
				return err
			}
		}
	}

	// Section properties stay at the end of the body.
	if b.SectPr != nil {
		if err := encodeMarkerElement(e, b.SectPr.marker); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// MarshalXML writes the paragraph with its properties and children in order.
func (p *Paragraph) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:p"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if p.Props != nil {
		if err := encodeMarkerElement(e, p.Props.marker); err != nil {
			return err
		}
	}

	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			if err := e.EncodeElement(c, xml.StartElement{Name: xml.Name{Local: "w:r"}}); err != nil {
				return err
			}
		case *RawXML:
			if err := encodeMarkerElement(e, c.marker); err != nil {
				return err
			}
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// MarshalXML writes the run children in order. Raw children (drawings) are
// emitted as sentinel text elements; splice removes the wrapper.
func (r *Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:r"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if r.Props != nil {
		if err := encodeMarkerElement(e, r.Props.marker); err != nil {
			return err
		}
	}

	for _, child := range r.Children {
		switch c := child.(type) {
		case *Text:
			if err := c.MarshalXML(e, xml.StartElement{}); err != nil {
				return err
			}
		case *Break:
			if err := c.MarshalXML(e, xml.StartElement{}); err != nil {
				return err
			}
		case *RawXML:
			elem := struct {
				Content string `xml:",chardata"`
			}{Content: c.marker}
			if err := e.EncodeElement(&elem, xml.StartElement{Name: xml.Name{Local: "w:t"}}); err != nil {
				return err
			}
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// MarshalXML writes a w:t element, preserving significant whitespace.
func (t *Text) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "w:t"}}
	if t.Content != strings.TrimSpace(t.Content) {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: "xml:space"},
			Value: "preserve",
		})
	}
	elem := struct {
		Content string `xml:",chardata"`
	}{Content: t.Content}
	return e.EncodeElement(&elem, start)
}

// MarshalXML writes a w:br element.
func (b *Break) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: "w:br"}}
	if b.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Local: "w:type"},
			Value: b.Type,
		})
	}
	return e.EncodeElement(struct{}{}, start)
}

// MarshalXML writes the table with preserved properties and grid.
func (tbl *Table) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tbl"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if tbl.Props != nil {
		if err := encodeMarkerElement(e, tbl.Props.marker); err != nil {
			return err
		}
	}
	if tbl.Grid != nil {
		if err := encodeMarkerElement(e, tbl.Grid.marker); err != nil {
			return err
		}
	}

	for i := range tbl.Rows {
		if err := e.EncodeElement(&tbl.Rows[i], xml.StartElement{Name: xml.Name{Local: "w:tr"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// MarshalXML writes a table row.
func (tr *TableRow) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tr"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if tr.Props != nil {
		if err := encodeMarkerElement(e, tr.Props.marker); err != nil {
			return err
		}
	}

	for i := range tr.Cells {
		if err := e.EncodeElement(&tr.Cells[i], xml.StartElement{Name: xml.Name{Local: "w:tc"}}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// MarshalXML writes a table cell and its children in order.
func (tc *TableCell) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "w:tc"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if tc.Props != nil {
		if err := encodeMarkerElement(e, tc.Props.marker); err != nil {
			return err
		}
	}

	for _, child := range tc.Children {
		switch c := child.(type) {
		case *Paragraph:
			if err := e.EncodeElement(c, xml.StartElement{Name: xml.Name{Local: "w:p"}}); err != nil {
				return err
			}
		case *RawXML:
			if err := encodeMarkerElement(e, c.marker); err != nil {
				return err
			}
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// serializeDocument marshals the document back to word/document.xml bytes,
// re-emitting the preserved root attributes and raw subtrees.
func serializeDocument(doc *Document) ([]byte, error) {
	splicer := newRawSplicer()
	splicer.walkDocument(doc)

	var bodyBuf bytes.Buffer
	encoder := xml.NewEncoder(&bodyBuf)
	if doc.Body != nil {
		if err := encoder.Encode(doc.Body); err != nil {
			return nil, err
		}
	}
	if err := encoder.Flush(); err != nil {
		return nil, err
	}

	bodyXML := splicer.splice(bodyBuf.String())

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	buf.WriteString("<w:document")

	if len(doc.Attrs) > 0 {
		hasWPrefix := false
		for _, attr := range doc.Attrs {
			// The default xmlns is dropped: elements are written with
			// explicit w: prefixes.
			if attr.Name.Local == "xmlns" && attr.Name.Space == "" {
				continue
			}
			if attr.Name.Space == "xmlns" && attr.Name.Local == "w" {
				hasWPrefix = true
			}
			buf.WriteString(" ")
			if attr.Name.Space == "xmlns" {
				buf.WriteString("xmlns:")
				buf.WriteString(attr.Name.Local)
			} else if attr.Name.Space != "" {
				buf.WriteString(prefixForURI(attr.Name.Space))
				buf.WriteString(":")
				buf.WriteString(attr.Name.Local)
			} else {
				buf.WriteString(attr.Name.Local)
			}
			buf.WriteString(`="`)
			var sb strings.Builder
			escapeAttr(&sb, attr.Value)
			buf.WriteString(sb.String())
			buf.WriteString(`"`)
		}
		// A template that only declared the main namespace as the default
		// xmlns still needs the w: prefix declared for the re-emitted body.
		if !hasWPrefix {
			buf.WriteString(` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
		}
	} else {
		buf.WriteString(` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
		buf.WriteString(` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"`)
		buf.WriteString(` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`)
		buf.WriteString(` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`)
		buf.WriteString(` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	}

	buf.WriteString(">")
	buf.WriteString(bodyXML)
	buf.WriteString("</w:document>")

	return buf.Bytes(), nil
}
