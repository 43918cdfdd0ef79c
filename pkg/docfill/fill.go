package docfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"
)

// filler carries the mutable state of one fill pass over a document.
type filler struct {
	data          FillData
	images        ImageMap
	pending       []*pendingImage
	nextRelID     int
	nextDrawingID int
}

// fill runs the full substitution pass over a template package and returns
// the rebuilt DOCX bytes.
func fill(template []byte, data FillData) ([]byte, error) {
	if len(template) == 0 {
		return nil, &InvalidInputError{Message: "empty template"}
	}

	reader, err := NewDocxReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, &DocumentError{Operation: "open", Cause: err}
	}

	documentXML, err := reader.GetDocumentXML()
	if err != nil {
		return nil, &DocumentError{Operation: "read", Path: "word/document.xml", Cause: err}
	}

	doc, err := ParseDocument(bytes.NewReader(documentXML))
	if err != nil {
		return nil, &TemplateError{Message: "parsing document body", Cause: err}
	}

	rels, err := reader.GetRelationships()
	if err != nil {
		return nil, &DocumentError{Operation: "read", Path: "word/_rels/document.xml.rels", Cause: err}
	}

	f := &filler{
		data:          data,
		images:        make(ImageMap, len(data.Images)),
		nextRelID:     nextRelationshipID(rels),
		nextDrawingID: 1000,
	}
	for key, r := range data.Images {
		f.images[key] = r
	}

	for _, elem := range doc.Body.Elements {
		switch el := elem.(type) {
		case *Paragraph:
			if err := f.substituteParagraph(el); err != nil {
				return nil, err
			}
		case *Table:
			f.processTable(el)
		}
	}

	rendered, err := serializeDocument(doc)
	if err != nil {
		return nil, &DocumentError{Operation: "serialize", Path: "word/document.xml", Cause: err}
	}

	output, err := rebuildPackage(reader, rendered, f.pending)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// rebuildPackage writes a new DOCX zip: the rendered document body replaces
// word/document.xml, new media and their bookkeeping parts are added when
// images were embedded, and every other part is copied through unchanged.
func rebuildPackage(reader *DocxReader, documentXML []byte, images []*pendingImage) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	replaced := map[string][]byte{
		"word/document.xml": documentXML,
	}

	if len(images) > 0 {
		relsXML, err := relationshipsWithImages(reader, images)
		if err != nil {
			return nil, err
		}
		replaced["word/_rels/document.xml.rels"] = relsXML

		typesXML, err := contentTypesWithImages(reader, images)
		if err != nil {
			return nil, err
		}
		replaced["[Content_Types].xml"] = typesXML
	}

	for _, file := range reader.reader.File {
		if content, ok := replaced[file.Name]; ok {
			if err := writePart(w, file.Name, content); err != nil {
				return nil, err
			}
			delete(replaced, file.Name)
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, &DocumentError{Operation: "copy", Path: file.Name, Cause: err}
		}
		fw, err := w.Create(file.Name)
		if err != nil {
			rc.Close()
			return nil, &DocumentError{Operation: "copy", Path: file.Name, Cause: err}
		}
		if _, err := io.Copy(fw, rc); err != nil {
			rc.Close()
			return nil, &DocumentError{Operation: "copy", Path: file.Name, Cause: err}
		}
		rc.Close()
	}

	// A template without a relationships part still gets one once images
	// are embedded.
	for name, content := range replaced {
		if err := writePart(w, name, content); err != nil {
			return nil, err
		}
	}

	for _, img := range images {
		if err := writePart(w, "word/media/"+img.filename, img.data); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, &DocumentError{Operation: "finalize", Cause: err}
	}
	return buf.Bytes(), nil
}

func writePart(w *zip.Writer, name string, content []byte) error {
	fw, err := w.Create(name)
	if err != nil {
		return &DocumentError{Operation: "write", Path: name, Cause: err}
	}
	if _, err := fw.Write(content); err != nil {
		return &DocumentError{Operation: "write", Path: name, Cause: err}
	}
	return nil
}

// relationshipsWithImages returns the document relationships part with one
// image relationship appended per embedded image.
func relationshipsWithImages(reader *DocxReader, images []*pendingImage) ([]byte, error) {
	rels := Relationships{
		Namespace: "http://schemas.openxmlformats.org/package/2006/relationships",
	}

	if content, err := reader.GetPart("word/_rels/document.xml.rels"); err == nil {
		if err := xml.Unmarshal(content, &rels); err != nil {
			return nil, &DocumentError{Operation: "read", Path: "word/_rels/document.xml.rels", Cause: err}
		}
	}

	for _, img := range images {
		rels.Relationship = append(rels.Relationship, img.relationship())
	}

	out, err := xml.Marshal(rels)
	if err != nil {
		return nil, &DocumentError{Operation: "write", Path: "word/_rels/document.xml.rels", Cause: err}
	}
	return append([]byte(xml.Header), out...), nil
}

// contentTypesWithImages returns [Content_Types].xml with default entries
// added for any embedded image extension not already declared.
func contentTypesWithImages(reader *DocxReader, images []*pendingImage) ([]byte, error) {
	content, err := reader.GetPart("[Content_Types].xml")
	if err != nil {
		return nil, &DocumentError{Operation: "read", Path: "[Content_Types].xml", Cause: err}
	}

	var types contentTypes
	if err := xml.Unmarshal(content, &types); err != nil {
		return nil, &DocumentError{Operation: "read", Path: "[Content_Types].xml", Cause: err}
	}

	declared := make(map[string]bool, len(types.Defaults))
	for _, def := range types.Defaults {
		declared[strings.ToLower(def.Extension)] = true
	}

	for _, img := range images {
		ext := strings.TrimPrefix(path.Ext(img.filename), ".")
		if declared[ext] {
			continue
		}
		types.Defaults = append(types.Defaults, contentTypeEntry{
			Extension:   ext,
			ContentType: img.contentType,
		})
		declared[ext] = true
	}

	out, err := xml.Marshal(types)
	if err != nil {
		return nil, &DocumentError{Operation: "write", Path: "[Content_Types].xml", Cause: err}
	}
	return append([]byte(xml.Header), out...), nil
}
