// Package parser turns recognized identity-document text into an IdentityRecord.
//
// The heuristics are tuned for the Romanian identity card layout: the
// address block follows a "Domiciliu/Adresse/Address" line, the county
// and locality sit on the line below it and the street on the line after
// that. Everything else is searched in the whole text. Rules are applied
// in a fixed order, each one independent of the others; a rule that does
// not match leaves its field nil.
package parser

import (
	"strings"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
)

// document is the normalized view of the recognized text shared by all rules
type document struct {
	text   string
	lines  []string
	anchor int // index of the address anchor line, -1 if absent
}

func newDocument(rawText string) *document {
	normalized := strings.ReplaceAll(rawText, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	d := &document{
		text:   strings.Join(lines, "\n"),
		lines:  lines,
		anchor: -1,
	}
	for i, line := range lines {
		if anchorPattern.MatchString(line) {
			d.anchor = i
			break
		}
	}
	return d
}

// lineAt returns the line at the given offset from the anchor
func (d *document) lineAt(offset int) (string, bool) {
	if d.anchor < 0 {
		return "", false
	}
	i := d.anchor + offset
	if i < 0 || i >= len(d.lines) {
		return "", false
	}
	return d.lines[i], true
}

// Parse extracts an identity record from raw recognized text.
// It is pure and total: any input, including an empty string, yields a
// record, and the same input always yields the same record.
func Parse(rawText string) domain.IdentityRecord {
	doc := newDocument(rawText)

	var rec domain.IdentityRecord
	for _, r := range rules {
		r.apply(doc, &rec)
	}
	return rec
}

// RuleNames lists the field rules in the order they are applied
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.field
	}
	return names
}

func ptr(s string) *string {
	return &s
}
