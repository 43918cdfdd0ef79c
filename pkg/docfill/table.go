package docfill

// processTable runs the repeat-row state machine over a table.
//
// Every row's cells receive scalar substitution while scanning, independent
// of loop detection. The first row whose merged cell text contains a
// ${table:name} marker becomes the marker row; the row immediately after it
// is the template row, cloned once per entry of the bound dataset. Exactly
// one repeat region per table is expanded.
func (f *filler) processTable(t *Table) {
	markerDone := false

	for r := 0; r < len(t.Rows); r++ {
		substituteRowScalars(&t.Rows[r], f.data.Text)

		if markerDone {
			continue
		}

		name, found := findRowMarker(&t.Rows[r])
		if !found {
			continue
		}
		markerDone = true

		// Marker on the last row: nothing to repeat.
		if r == len(t.Rows)-1 {
			clearRowMarker(&t.Rows[r])
			continue
		}

		dataset := f.data.Tables[name]
		if len(dataset) == 0 {
			// Absent or empty dataset keeps the template row visible and
			// untouched, so the document still shows what would repeat.
			clearRowMarker(&t.Rows[r])
			r++ // skip substitution of the preserved template row
			continue
		}

		// Rebuild the row slice in one pass rather than inserting and
		// deleting in place; positional edits shift every later index.
		template := t.Rows[r+1]
		rows := make([]TableRow, 0, len(t.Rows)-1+len(dataset))
		rows = append(rows, t.Rows[:r+1]...)
		for _, rowData := range dataset {
			rows = append(rows, buildRowFromTemplate(&template, rowData, f.data.Text))
		}
		rows = append(rows, t.Rows[r+2:]...)
		t.Rows = rows

		clearRowMarker(&t.Rows[r])
		r += len(dataset) // generated rows are already fully substituted
	}
}

// substituteRowScalars applies scalar substitution to every paragraph of
// every cell in the row. Tables are text-only; image placeholders inside
// cells are not resolved.
func substituteRowScalars(row *TableRow, scalars ScalarMap) {
	for i := range row.Cells {
		for _, para := range row.Cells[i].Paragraphs() {
			substituteParagraphText(para, scalars)
		}
	}
}

// findRowMarker reports the dataset name of the first ${table:name} marker
// found in any cell of the row.
func findRowMarker(row *TableRow) (string, bool) {
	for i := range row.Cells {
		if m := tableMarkerPattern.FindStringSubmatch(row.Cells[i].GetText()); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// clearRowMarker removes ${table:...} markers from every paragraph of the
// row, preserving any other text. Paragraphs without a marker are left
// untouched, fragmentation included.
func clearRowMarker(row *TableRow) {
	for i := range row.Cells {
		for _, para := range row.Cells[i].Paragraphs() {
			merged := mergeText(para)
			cleaned := tableMarkerPattern.ReplaceAllString(merged, "")
			if cleaned == merged {
				continue
			}
			rewrite(para, cleaned)
		}
	}
}

// buildRowFromTemplate materializes one dataset row from the template row.
// Each new cell starts from the corresponding template cell's merged text,
// substituted first against the dataset row's own bindings and then against
// the global scalar bindings. Applying the row-local pass first means
// row-local values shadow global ones for the same key: once replaced, the
// placeholder is gone before the global pass runs.
func buildRowFromTemplate(template *TableRow, rowData RowData, scalars ScalarMap) TableRow {
	row := TableRow{Cells: make([]TableCell, 0, len(template.Cells))}
	for i := range template.Cells {
		text := template.Cells[i].GetText()
		text = replaceScalars(text, ScalarMap(rowData))
		text = replaceScalars(text, scalars)
		row.Cells = append(row.Cells, TableCell{
			Children: []CellChild{newParagraph(text)},
		})
	}
	return row
}
