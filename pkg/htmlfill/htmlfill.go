// Package htmlfill fills HTML templates with data.
//
// The HTML path uses a {{key}} placeholder convention, distinct from the
// ${key} convention of the Word path. Every placeholder is consumed on fill:
// keys without a binding are replaced with the empty string.
package htmlfill

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"
)

// placeholderPattern matches {{key}} placeholders. The capture is
// non-greedy so adjacent placeholders on one line stay separate.
var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// stringify renders a binding value as text, nil included.
func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// normalizeKeys rebuilds the binding map with NFC-normalized keys, so
// composed and decomposed spellings of the same key match.
func normalizeKeys(data map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(data))
	for key, value := range data {
		normalized[norm.NFC.String(strings.TrimSpace(key))] = value
	}
	return normalized
}

// Fill substitutes every {{key}} placeholder in doc. The captured key is
// trimmed of surrounding whitespace and NFC-normalized before lookup; keys
// without a binding produce the empty string. Replacement text is inserted
// literally.
func Fill(doc string, data map[string]interface{}) string {
	bindings := normalizeKeys(data)
	return placeholderPattern.ReplaceAllStringFunc(doc, func(match string) string {
		key := norm.NFC.String(strings.TrimSpace(match[2 : len(match)-2]))
		value, ok := bindings[key]
		if !ok {
			return ""
		}
		return stringify(value)
	})
}

// FillReader reads an HTML template, decoding legacy encodings to UTF-8
// first, and fills it. contentType may carry a charset hint from an HTTP
// header or be empty.
func FillReader(r io.Reader, contentType string, data map[string]interface{}) (string, error) {
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", fmt.Errorf("detecting template charset: %w", err)
	}
	content, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return Fill(string(content), data), nil
}

// Keys returns the distinct placeholder keys of doc in first-seen order,
// trimmed and NFC-normalized.
func Keys(doc string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(doc, -1) {
		key := norm.NFC.String(strings.TrimSpace(m[1]))
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Validate checks that doc parses as HTML. The parser recovers from most
// real-world markup, so only truly unreadable input fails.
func Validate(doc string) error {
	if _, err := html.Parse(strings.NewReader(doc)); err != nil {
		return fmt.Errorf("parsing html: %w", err)
	}
	return nil
}
