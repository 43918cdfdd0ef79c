package docfill

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Document represents the parsed word/document.xml part.
type Document struct {
	XMLName xml.Name   `xml:"document"`
	Body    *Body      `xml:"body"`
	Attrs   []xml.Attr `xml:"-"` // root element attributes (namespace declarations)
}

// BodyElement is any block-level element that can appear in a document body.
type BodyElement interface {
	isBodyElement()
}

// Body represents the document body. Element order is significant.
type Body struct {
	Elements []BodyElement `xml:"-"`
	// SectPr holds the trailing section properties verbatim; Word requires
	// them at the end of the body.
	SectPr *RawXML `xml:"-"`
}

// Paragraph is an ordered sequence of runs plus any non-run children
// (hyperlinks, bookmarks) that are carried through untouched.
type Paragraph struct {
	Props    *RawXML
	Children []ParagraphChild
}

func (p *Paragraph) isBodyElement() {}
func (p *Paragraph) isCellChild()   {}

// ParagraphChild is either a *Run or a *RawXML passthrough.
type ParagraphChild interface {
	isParagraphChild()
}

// Run is the smallest text-carrying unit. Its children keep document order so
// a single run can hold text, line breaks, and drawings interleaved.
type Run struct {
	Props    *RawXML
	Children []RunChild
}

func (r *Run) isParagraphChild() {}

// RunChild is one of *Text, *Break, or *RawXML.
type RunChild interface {
	isRunChild()
}

// Text represents a w:t element.
type Text struct {
	Content string
}

func (t *Text) isRunChild() {}

// Break represents a w:br element.
type Break struct {
	Type string
}

func (b *Break) isRunChild() {}

// RawXML carries a subtree we do not model (pPr, tcPr, drawings, hyperlinks,
// nested tables, sectPr). Content is stored in prefix form, ready to be
// spliced back verbatim on serialization.
type RawXML struct {
	Content []byte
	marker  string // assigned during serialization
}

func (r *RawXML) isRunChild()       {}
func (r *RawXML) isParagraphChild() {}
func (r *RawXML) isCellChild()      {}

// Table represents a w:tbl element.
type Table struct {
	Props *RawXML
	Grid  *RawXML
	Rows  []TableRow
}

func (t *Table) isBodyElement() {}

// TableRow represents a w:tr element.
type TableRow struct {
	Props *RawXML
	Cells []TableCell
}

// TableCell represents a w:tc element. Besides paragraphs a cell may contain
// nested tables, which are preserved as raw children.
type TableCell struct {
	Props    *RawXML
	Children []CellChild
}

// CellChild is either a *Paragraph or a *RawXML passthrough.
type CellChild interface {
	isCellChild()
}

// GetText returns the concatenated text of all w:t children of the run.
func (r *Run) GetText() string {
	var sb strings.Builder
	for _, child := range r.Children {
		if t, ok := child.(*Text); ok {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

// Runs returns the run children of the paragraph in order.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, child := range p.Children {
		if r, ok := child.(*Run); ok {
			runs = append(runs, r)
		}
	}
	return runs
}

// GetText returns the concatenated text of all runs in document order.
// Missing text fragments contribute the empty string; no separators are added.
func (p *Paragraph) GetText() string {
	var sb strings.Builder
	for _, run := range p.Runs() {
		sb.WriteString(run.GetText())
	}
	return sb.String()
}

// Paragraphs returns the paragraph children of the cell in order.
func (c *TableCell) Paragraphs() []*Paragraph {
	var paras []*Paragraph
	for _, child := range c.Children {
		if p, ok := child.(*Paragraph); ok {
			paras = append(paras, p)
		}
	}
	return paras
}

// GetText returns the cell's paragraph texts joined with newlines.
func (c *TableCell) GetText() string {
	var texts []string
	for _, para := range c.Paragraphs() {
		texts = append(texts, para.GetText())
	}
	return strings.Join(texts, "\n")
}

// ParseDocument parses a word/document.xml stream into a Document.
func ParseDocument(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(r)

	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if doc.Body == nil {
		return nil, fmt.Errorf("failed to parse document: no body element")
	}

	return &doc, nil
}

// UnmarshalXML preserves the root element attributes so namespace
// declarations survive the round trip.
func (doc *Document) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	doc.Attrs = start.Attr
	doc.XMLName = start.Name

	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "body" {
				var body Body
				if err := d.DecodeElement(&body, &t); err != nil {
					return err
				}
				doc.Body = &body
			} else if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "document" {
				return nil
			}
		}
	}

	return nil
}

// UnmarshalXML decodes body children in order.
func (b *Body) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &para)
			case "tbl":
				var table Table
				if err := d.DecodeElement(&table, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, &table)
			case "sectPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				b.SectPr = raw
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				b.Elements = append(b.Elements, &rawBodyElement{raw})
			}
		case xml.EndElement:
			if t.Name.Local == "body" {
				return nil
			}
		}
	}

	return nil
}

// rawBodyElement carries an unmodeled block-level element (e.g. w:sdt).
type rawBodyElement struct {
	raw *RawXML
}

func (e *rawBodyElement) isBodyElement() {}

// UnmarshalXML decodes paragraph children in order, preserving anything that
// is not a run as raw XML.
func (p *Paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				p.Props = raw
			case "r":
				var run Run
				if err := d.DecodeElement(&run, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, &run)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				p.Children = append(p.Children, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return nil
			}
		}
	}

	return nil
}

// UnmarshalXML decodes run children in order.
func (r *Run) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				r.Props = raw
			case "t":
				var text struct {
					Content string `xml:",chardata"`
				}
				if err := d.DecodeElement(&text, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &Text{Content: text.Content})
			case "br":
				var br struct {
					Type string `xml:"type,attr"`
				}
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Children = append(r.Children, &Break{Type: br.Type})
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				r.Children = append(r.Children, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return nil
			}
		}
	}

	return nil
}

// UnmarshalXML decodes table children.
func (tbl *Table) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				tbl.Props = raw
			case "tblGrid":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				tbl.Grid = raw
			case "tr":
				var row TableRow
				if err := d.DecodeElement(&row, &t); err != nil {
					return err
				}
				tbl.Rows = append(tbl.Rows, row)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return nil
			}
		}
	}

	return nil
}

// UnmarshalXML decodes row children.
func (tr *TableRow) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				tr.Props = raw
			case "tc":
				var cell TableCell
				if err := d.DecodeElement(&cell, &t); err != nil {
					return err
				}
				tr.Cells = append(tr.Cells, cell)
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return nil
			}
		}
	}

	return nil
}

// UnmarshalXML decodes cell children in order, keeping nested tables raw.
func (tc *TableCell) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		token, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				tc.Props = raw
			case "p":
				var para Paragraph
				if err := d.DecodeElement(&para, &t); err != nil {
					return err
				}
				tc.Children = append(tc.Children, &para)
			default:
				raw, err := captureRaw(d, t)
				if err != nil {
					return err
				}
				tc.Children = append(tc.Children, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return nil
			}
		}
	}

	return nil
}
