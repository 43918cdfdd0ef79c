package docfill

import "strings"

// mergeText reconstructs the paragraph's logical text by concatenating every
// run's text fragments in order. Word splits one logical sentence across an
// arbitrary number of runs, so all pattern matching happens on the merged
// string, never on individual fragments.
func mergeText(p *Paragraph) string {
	return p.GetText()
}

// newRun builds a single run carrying the given text, with embedded newlines
// expanded into explicit w:br elements inside the run.
func newRun(text string) *Run {
	run := &Run{}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			run.Children = append(run.Children, &Break{})
		}
		if line != "" || i == 0 {
			run.Children = append(run.Children, &Text{Content: line})
		}
	}
	return run
}

// stripRunText removes text and break children from a run, keeping raw
// content (drawings) intact. Returns nil when nothing remains.
func stripRunText(run *Run) *Run {
	var kept []RunChild
	for _, child := range run.Children {
		if raw, ok := child.(*RawXML); ok {
			kept = append(kept, raw)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Run{Props: run.Props, Children: kept}
}

// clearRunText empties every run of the paragraph while keeping non-text run
// content and non-run children (hyperlinks, bookmarks) in place. Run styling
// applied to the cleared text is discarded; this is a documented limitation
// of the merge-then-rewrite strategy.
func clearRunText(p *Paragraph) {
	var kept []ParagraphChild
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			if stripped := stripRunText(c); stripped != nil {
				kept = append(kept, stripped)
			}
		default:
			kept = append(kept, child)
		}
	}
	p.Children = kept
}

// rewrite replaces the paragraph's text with newText written as one new run.
// The paragraph stays structurally present even when newText is empty.
func rewrite(p *Paragraph, newText string) {
	clearRunText(p)
	p.Children = append(p.Children, newRun(newText))
}

// rewriteWithImage replaces the paragraph's text with a before / image /
// after run sequence. Empty text fragments are skipped rather than written as
// empty runs, which can corrupt the document in Word.
func rewriteWithImage(p *Paragraph, before, after string, imageRun *Run) {
	clearRunText(p)
	if before != "" {
		p.Children = append(p.Children, newRun(before))
	}
	p.Children = append(p.Children, imageRun)
	if after != "" {
		p.Children = append(p.Children, newRun(after))
	}
}

// newParagraph builds a paragraph containing a single run with the given
// text, newlines expanded to breaks.
func newParagraph(text string) *Paragraph {
	return &Paragraph{Children: []ParagraphChild{newRun(text)}}
}
