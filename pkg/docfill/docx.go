package docfill

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
)

// DocxReader indexes the parts of a DOCX (OOXML zip) package.
type DocxReader struct {
	reader *zip.Reader
	Parts  map[string]*zip.File
}

// Relationship represents one entry of a package relationships part.
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents a package relationships part.
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// contentTypes models [Content_Types].xml; overrides are carried through
// untouched, defaults grow when new media extensions are added.
type contentTypes struct {
	XMLName   xml.Name            `xml:"Types"`
	Namespace string              `xml:"xmlns,attr"`
	Defaults  []contentTypeEntry  `xml:"Default"`
	Overrides []contentTypeChange `xml:"Override"`
}

type contentTypeEntry struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypeChange struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// NewDocxReader opens a DOCX package from a random-access reader.
func NewDocxReader(r io.ReaderAt, size int64) (*DocxReader, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip container: %w", err)
	}

	dr := &DocxReader{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	for _, file := range zipReader.File {
		dr.Parts[file.Name] = file
	}

	if _, ok := dr.Parts["word/document.xml"]; !ok {
		return nil, fmt.Errorf("not a valid DOCX file: missing word/document.xml")
	}

	return dr, nil
}

// GetPart returns the content of a named package part.
func (dr *DocxReader) GetPart(name string) ([]byte, error) {
	file, ok := dr.Parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}

	return content, nil
}

// GetDocumentXML returns the content of word/document.xml.
func (dr *DocxReader) GetDocumentXML() ([]byte, error) {
	return dr.GetPart("word/document.xml")
}

// GetRelationships returns the main document relationships. A missing
// relationships part is not an error.
func (dr *DocxReader) GetRelationships() ([]Relationship, error) {
	if _, ok := dr.Parts["word/_rels/document.xml.rels"]; !ok {
		return nil, nil
	}

	content, err := dr.GetPart("word/_rels/document.xml.rels")
	if err != nil {
		return nil, err
	}

	var rels Relationships
	if err := xml.Unmarshal(content, &rels); err != nil {
		return nil, fmt.Errorf("failed to parse relationships: %w", err)
	}

	return rels.Relationship, nil
}
