package parser

import (
	"regexp"
	"strings"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
)

type scope int

const (
	scopeAnchor scope = iota
	scopeDocument
)

// rule extracts one field (or one group of fields set together)
type rule struct {
	field string
	scope scope
	apply func(d *document, rec *domain.IdentityRecord)
}

// rules is the ordered extraction table. Order only matters for
// documentation and logging; no rule reads another rule's output.
var rules = []rule{
	{field: "county", scope: scopeAnchor, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractCounty(d); ok {
			rec.County = ptr(v)
		}
	}},
	{field: "street", scope: scopeAnchor, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractStreet(d); ok {
			rec.Street = ptr(v)
		}
	}},
	{field: "locality", scope: scopeAnchor, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractLocality(d); ok {
			rec.Locality = ptr(v)
		}
	}},
	{field: "street_number", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractStreetNumber(d); ok {
			rec.StreetNumber = ptr(v)
		}
	}},
	{field: "block", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := firstUpper(blockPattern, d.text); ok {
			rec.Block = ptr(v)
		}
	}},
	{field: "staircase", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := firstUpper(staircasePattern, d.text); ok {
			rec.Staircase = ptr(v)
		}
	}},
	{field: "floor", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractFloor(d); ok {
			rec.Floor = ptr(v)
		}
	}},
	{field: "apartment", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := firstUpper(apartmentPattern, d.text); ok {
			rec.Apartment = ptr(v)
		}
	}},
	{field: "personal_code", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractPersonalCode(d); ok {
			rec.PersonalCode = ptr(v)
		}
	}},
	{field: "document_series_number", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if series, number, ok := extractSeriesNumber(d); ok {
			rec.DocumentSeries = ptr(series)
			rec.DocumentNumber = ptr(number)
		}
	}},
	{field: "issuing_office", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractIssuingOffice(d); ok {
			rec.IssuingOffice = ptr(v)
		}
	}},
	{field: "valid_until", scope: scopeDocument, apply: func(d *document, rec *domain.IdentityRecord) {
		if v, ok := extractValidUntil(d); ok {
			rec.ValidUntil = ptr(v)
		}
	}},
}

// Go's \b is ASCII-only, so patterns avoid a trailing \b after letters
// that may carry diacritics.
var (
	anchorPattern = regexp.MustCompile(`(?i)\b(?:domiciliu|adres|address)`)

	countyPattern = regexp.MustCompile(`\b(?i:jud(?:e[tț]ul)?)\.?\s*([A-Z]{2})\b`)

	streetPrefixPattern = regexp.MustCompile(
		`^(?i:strada|str|bulevardul|b-dul|bd|calea|aleea|al|[sș]oseaua|[sș]os|pia[tț]a|p-?[tț]a|intrarea|intr)(?:\.\s*|\s+)`)

	localityPattern = regexp.MustCompile(
		`\b(?i:municipiul|mun|ora[sș]ul|ora[sș]|or|comuna|com|satul|sat|localitatea|loc)(?:\.\s*|\s+)([\p{L}][\p{L}\-]*(?:[ \t]+[\p{L}][\p{L}\-]*)*)`)
	localityCutPattern = regexp.MustCompile(
		`(?i)[ \t]+(?:jud|str|sector|sec|bd|nr|mun|com|sat|or|loc)(?:[^\p{L}].*)?$`)

	streetNumberPattern = regexp.MustCompile(`(?i)\bnr\.?\s*(\d{1,4}[A-Z]?)\b`)
	blockPattern        = regexp.MustCompile(`(?i)\bbl(?:oc)?(?:\.\s*|\s+)([A-Z0-9]{1,4})\b`)
	staircasePattern    = regexp.MustCompile(`(?i)\bsc(?:ara)?(?:\.\s*|\s+)([A-Z0-9]{1,3})\b`)
	floorPattern        = regexp.MustCompile(`(?i)\bet(?:aj)?(?:\.\s*|\s+)(\d{1,2}|parter|p)\b`)
	apartmentPattern    = regexp.MustCompile(`(?i)\bap(?:artament)?(?:\.\s*|\s+)(\d{1,4}[A-Z]?)\b`)

	digitRunPattern = regexp.MustCompile(`\d+`)

	labelledSeriesPattern = regexp.MustCompile(`\b(?i:seria)\s*([A-Z]{2})\s*(?i:nr)\.?\s*(\d{6,9})\b`)
	seriesNumberPattern   = regexp.MustCompile(`\b([A-Z]{1,3})(\d{6,9})\b`)

	issuingOfficePattern = regexp.MustCompile(`\b(?i:(spclep|spcep))[ \t]+([\p{L}\p{N}][\p{L}\p{N}\-]*)`)
)

// personalCodeLength is the length of the Romanian personal numeric code (CNP)
const personalCodeLength = 13

// maxFieldLength bounds free-text fields to the width of their columns.
// Longer values are OCR run-ons and are left unset.
const maxFieldLength = 255

func extractCounty(d *document) (string, bool) {
	line, ok := d.lineAt(1)
	if !ok {
		return "", false
	}
	m := countyPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// extractStreet reads the line two below the anchor. The line must start
// with a street-type prefix, which is removed.
func extractStreet(d *document) (string, bool) {
	line, ok := d.lineAt(2)
	if !ok {
		return "", false
	}
	loc := streetPrefixPattern.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	street := strings.TrimSpace(line[loc[1]:])
	if street == "" {
		return "", false
	}
	return bounded(street)
}

// extractLocality scans the anchor line and the two lines below it
func extractLocality(d *document) (string, bool) {
	for offset := 0; offset <= 2; offset++ {
		line, ok := d.lineAt(offset)
		if !ok {
			break
		}
		m := localityPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := localityCutPattern.ReplaceAllString(m[1], "")
		name = strings.TrimSpace(name)
		if n := len([]rune(name)); n < 2 || n > maxFieldLength {
			continue
		}
		return name, true
	}
	return "", false
}

// extractStreetNumber is deliberately strict: it only answers when every
// "nr" marker in the text agrees on the same value.
func extractStreetNumber(d *document) (string, bool) {
	matches := streetNumberPattern.FindAllStringSubmatch(d.text, -1)
	if len(matches) == 0 {
		return "", false
	}
	value := strings.ToUpper(matches[0][1])
	for _, m := range matches[1:] {
		if strings.ToUpper(m[1]) != value {
			return "", false
		}
	}
	return value, true
}

func extractFloor(d *document) (string, bool) {
	v, ok := firstUpper(floorPattern, d.text)
	if !ok {
		return "", false
	}
	if v == "PARTER" {
		v = "P"
	}
	return v, true
}

// extractPersonalCode requires exactly one maximal run of 13 digits
func extractPersonalCode(d *document) (string, bool) {
	var found string
	count := 0
	for _, run := range digitRunPattern.FindAllString(d.text, -1) {
		if len(run) == personalCodeLength {
			found = run
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return found, true
}

// extractSeriesNumber returns series and number from a single match. The
// first letters-then-digits word wins; the labelled "SERIA XX NR" form is
// only consulted when no such word exists.
func extractSeriesNumber(d *document) (string, string, bool) {
	if m := seriesNumberPattern.FindStringSubmatch(d.text); m != nil {
		return m[1], m[2], true
	}
	if m := labelledSeriesPattern.FindStringSubmatch(d.text); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

func extractIssuingOffice(d *document) (string, bool) {
	m := issuingOfficePattern.FindStringSubmatch(d.text)
	if m == nil {
		return "", false
	}
	return bounded(strings.ToUpper(m[1]) + " " + m[2])
}

func extractValidUntil(d *document) (string, bool) {
	return firstDate(d.text)
}

func bounded(v string) (string, bool) {
	if len([]rune(v)) > maxFieldLength {
		return "", false
	}
	return v, true
}

func firstUpper(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
