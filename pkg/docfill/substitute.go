package docfill

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder conventions for the Word path. These are load-bearing for
// template compatibility and must not change:
//
//	scalar/image placeholder: ${key}
//	table repeat marker:      ${table:name}
var (
	placeholderPattern = regexp.MustCompile(`\$\{([^}]+)}`)
	tableMarkerPattern = regexp.MustCompile(`\$\{table:([^}]+)}`)
)

// stringify renders a binding value as text. Nil values become the empty
// string, everything else goes through default formatting.
func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// replaceScalars substitutes every literal ${key} occurrence for each key
// present in scalars. Matching is exact-key and order-independent across
// keys; placeholders for keys not present in the map are left in place.
func replaceScalars(text string, scalars ScalarMap) string {
	for key, value := range scalars {
		placeholder := "${" + key + "}"
		if strings.Contains(text, placeholder) {
			text = strings.ReplaceAll(text, placeholder, stringify(value))
		}
	}
	return text
}

// substituteParagraphText applies scalar substitution to a paragraph and
// rewrites it as a single run. Paragraphs without runs are left alone.
func substituteParagraphText(p *Paragraph, scalars ScalarMap) {
	if len(p.Runs()) == 0 {
		return
	}
	merged := mergeText(p)
	rewrite(p, replaceScalars(merged, scalars))
}

// substituteParagraph applies scalar and image substitution to a paragraph.
//
// The merged paragraph text is scalar-substituted first. Then the text is
// scanned left to right for the first placeholder whose key has an image
// bound to it: the paragraph is rewritten as before-text, inline image,
// after-text. Only the first image placeholder per paragraph is processed;
// any further image placeholders in the same paragraph stay unresolved. A
// consumed image key is not available to later paragraphs.
func (f *filler) substituteParagraph(p *Paragraph) error {
	if len(p.Runs()) == 0 {
		return nil
	}

	merged := mergeText(p)
	replaced := replaceScalars(merged, f.data.Text)

	if len(f.images) > 0 {
		for _, m := range placeholderPattern.FindAllStringSubmatchIndex(replaced, -1) {
			key := replaced[m[2]:m[3]]
			reader, ok := f.images[key]
			if !ok {
				continue
			}

			img, err := f.embedImage(key, reader)
			if err != nil {
				return err
			}
			delete(f.images, key)

			before := replaced[:m[0]]
			after := replaced[m[1]:]
			rewriteWithImage(p, before, after, img.run())
			return nil
		}
	}

	rewrite(p, replaced)
	return nil
}
