package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docintake/docintake-backend/internal/docextract/parser"
)

const identityCard = `ROMANIA
CARTE DE IDENTITATE
SERIA CJ NR 123456
CNP 1850101123456
Nume/Nom/Last name
POPESCU
Domiciliu/Adresse/Address
Jud.CJ Mun.Cluj-Napoca
Str.Exemplu nr.12 bl.A1 sc.2 et.3 ap.14
Emisa de/Delivree par/Issued by
SPCLEP Cluj
Valabilitate/Validite/Validity
05.03.2025-05.03.2035`

func TestParse_FullIdentityCard(t *testing.T) {
	rec := parser.Parse(identityCard)

	expected := map[string]string{
		"county":          "CJ",
		"locality":        "Cluj-Napoca",
		"street":          "Exemplu nr.12 bl.A1 sc.2 et.3 ap.14",
		"street_number":   "12",
		"block":           "A1",
		"staircase":       "2",
		"floor":           "3",
		"apartment":       "14",
		"personal_code":   "1850101123456",
		"document_series": "CJ",
		"document_number": "123456",
		"issuing_office":  "SPCLEP Cluj",
		"valid_until":     "2025-03-05",
	}

	assert.ElementsMatch(t, keys(expected), rec.FieldsPresent())
	assert.Equal(t, expected["county"], *rec.County)
	assert.Equal(t, expected["locality"], *rec.Locality)
	assert.Equal(t, expected["street"], *rec.Street)
	assert.Equal(t, expected["street_number"], *rec.StreetNumber)
	assert.Equal(t, expected["block"], *rec.Block)
	assert.Equal(t, expected["staircase"], *rec.Staircase)
	assert.Equal(t, expected["floor"], *rec.Floor)
	assert.Equal(t, expected["apartment"], *rec.Apartment)
	assert.Equal(t, expected["personal_code"], *rec.PersonalCode)
	assert.Equal(t, expected["document_series"], *rec.DocumentSeries)
	assert.Equal(t, expected["document_number"], *rec.DocumentNumber)
	assert.Equal(t, expected["issuing_office"], *rec.IssuingOffice)
	assert.Equal(t, expected["valid_until"], *rec.ValidUntil)
}

func TestParse_AddressExample(t *testing.T) {
	text := "Domiciliu\nJud.CJ Mun.Cluj-Napoca\nStr. Exemplu nr 12"

	rec := parser.Parse(text)

	require.NotNil(t, rec.County)
	require.NotNil(t, rec.Locality)
	require.NotNil(t, rec.Street)
	require.NotNil(t, rec.StreetNumber)
	assert.Equal(t, "CJ", *rec.County)
	assert.Equal(t, "Cluj-Napoca", *rec.Locality)
	assert.Equal(t, "Exemplu nr 12", *rec.Street)
	assert.Equal(t, "12", *rec.StreetNumber)
}

func TestParse_RecognizedLines(t *testing.T) {
	text := strings.Join([]string{
		"Adresa",
		"Jud. CJ",
		"Str. Exemplu nr 12",
		"Nume",
		"1234567890123",
		"Seria si numarul",
		"AB123456",
		"Emisa de",
		"SPCLEP CLUJ",
		"Valabilitate",
		"05.03.2025",
	}, "\n")

	rec := parser.Parse(text)

	require.NotNil(t, rec.County)
	require.NotNil(t, rec.Street)
	require.NotNil(t, rec.PersonalCode)
	require.NotNil(t, rec.DocumentSeries)
	require.NotNil(t, rec.DocumentNumber)
	require.NotNil(t, rec.IssuingOffice)
	require.NotNil(t, rec.ValidUntil)
	assert.Equal(t, "CJ", *rec.County)
	assert.Equal(t, "Exemplu nr 12", *rec.Street)
	assert.Equal(t, "1234567890123", *rec.PersonalCode)
	assert.Equal(t, "AB", *rec.DocumentSeries)
	assert.Equal(t, "123456", *rec.DocumentNumber)
	assert.Equal(t, "SPCLEP CLUJ", *rec.IssuingOffice)
	assert.Equal(t, "2025-03-05", *rec.ValidUntil)
}

func TestParse_OverlongFieldsLeftUnset(t *testing.T) {
	t.Run("street", func(t *testing.T) {
		rec := parser.Parse("Domiciliu\nJud.CJ\nStr. " + strings.Repeat("A", 400))
		assert.Nil(t, rec.Street)
		require.NotNil(t, rec.County)
		assert.Equal(t, "CJ", *rec.County)
	})

	t.Run("street at column width", func(t *testing.T) {
		rec := parser.Parse("Domiciliu\nJud.CJ\nStr. " + strings.Repeat("A", 255))
		require.NotNil(t, rec.Street)
		assert.Len(t, *rec.Street, 255)
	})

	t.Run("locality", func(t *testing.T) {
		rec := parser.Parse("Domiciliu\nJud.CJ Mun." + strings.Repeat("C", 400))
		assert.Nil(t, rec.Locality)
	})

	t.Run("issuing office", func(t *testing.T) {
		rec := parser.Parse("SPCLEP " + strings.Repeat("B", 400))
		assert.Nil(t, rec.IssuingOffice)
	})
}

func TestParse_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\r\n"} {
		rec := parser.Parse(text)
		assert.True(t, rec.IsEmpty(), "text %q", text)
		assert.Empty(t, rec.FieldsPresent())
	}
}

func TestParse_GarbageDoesNotPanic(t *testing.T) {
	inputs := []string{
		"\x00\xff\xfe garbage",
		strings.Repeat("nr.", 1000),
		"Domiciliu",
		"Domiciliu\n",
		"Adresa\nJud.",
		strings.Repeat("9", 5000),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { parser.Parse(in) })
	}
}

func TestParse_Deterministic(t *testing.T) {
	first := parser.Parse(identityCard)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, parser.Parse(identityCard))
	}
}

func TestParse_NoAnchor(t *testing.T) {
	text := "Jud.CJ Mun.Cluj-Napoca\nStr.Exemplu nr.7\nCNP 2900202123456"

	rec := parser.Parse(text)

	assert.Nil(t, rec.County)
	assert.Nil(t, rec.Locality)
	assert.Nil(t, rec.Street)
	require.NotNil(t, rec.StreetNumber)
	assert.Equal(t, "7", *rec.StreetNumber)
	require.NotNil(t, rec.PersonalCode)
	assert.Equal(t, "2900202123456", *rec.PersonalCode)
}

func TestParse_PersonalCodeAmbiguity(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"single code", "CNP 1850101123456", strPtr("1850101123456")},
		{"two codes", "1850101123456 2900202123456", nil},
		{"same code twice", "1850101123456\n1850101123456", nil},
		{"fourteen digits", "18501011234567", nil},
		{"twelve digits", "185010112345", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parser.Parse(tt.text)
			assert.Equal(t, tt.want, rec.PersonalCode)
		})
	}
}

func TestParse_ValidUntilUsesFirstDateOnly(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"day first slash", "Valabil 05/12/2030", strPtr("2030-12-05")},
		{"year first slash", "Valabil 2030/12/05", strPtr("2030-12-05")},
		{"year first dash", "2031-01-09", strPtr("2031-01-09")},
		{"single digit day", "5.3.2029", strPtr("2029-03-05")},
		{"invalid first date", "31.02.2030 01.01.2031", nil},
		{"month out of range", "01.13.2030", nil},
		{"leap day", "29.02.2028", strPtr("2028-02-29")},
		{"no date", "Valabilitate nelimitata", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := parser.Parse(tt.text)
			assert.Equal(t, tt.want, rec.ValidUntil)
		})
	}
}

func TestParse_PlainSeriesNumber(t *testing.T) {
	rec := parser.Parse("IDROUPOPESCU<<ION\nAB1234567<4ROU8501011M3001011")

	require.NotNil(t, rec.DocumentSeries)
	require.NotNil(t, rec.DocumentNumber)
	assert.Equal(t, "AB", *rec.DocumentSeries)
	assert.Equal(t, "1234567", *rec.DocumentNumber)
}

func TestRuleNames_Order(t *testing.T) {
	assert.Equal(t, []string{
		"county", "street", "locality",
		"street_number", "block", "staircase", "floor", "apartment",
		"personal_code", "document_series_number", "issuing_office", "valid_until",
	}, parser.RuleNames())
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
