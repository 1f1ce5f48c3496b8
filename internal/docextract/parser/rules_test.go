package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocument_Anchor(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		anchor int
	}{
		{"domiciliu", "A\nDomiciliu\nB", 1},
		{"adresa with diacritic", "Adresă\nB", 0},
		{"english", "x\ny\nAddress", 2},
		{"first wins", "Domiciliu\nAdresse", 0},
		{"blank lines skipped", "\n\n  \nDomiciliu", 0},
		{"absent", "nothing here", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.anchor, newDocument(tt.text).anchor)
		})
	}
}

func TestExtractCounty(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"dot", "Domiciliu\nJud.CJ Mun.Cluj-Napoca", "CJ", true},
		{"space", "Domiciliu\nJUD. B Sector 3", "", false},
		{"judetul", "Domiciliu\nJudetul AB Or.Sebes", "AB", true},
		{"lowercase code", "Domiciliu\nJud.cj", "", false},
		{"line missing", "Domiciliu", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractCounty(newDocument(tt.text))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStreet(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{"str dot", "Str.Exemplu nr.12", "Exemplu nr.12", true},
		{"strada", "Strada Lunga nr 3", "Lunga nr 3", true},
		{"boulevard", "B-dul Eroilor nr.5", "Eroilor nr.5", true},
		{"calea", "Calea Victoriei 10", "Victoriei 10", true},
		{"no prefix", "Albinelor nr 4", "", false},
		{"prefix only", "Str.", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractStreet(newDocument("Domiciliu\nJud.CJ\n" + tt.line))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLocality(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"municipality after county", "Domiciliu\nJud.CJ Mun.Cluj-Napoca", "Cluj-Napoca", true},
		{"cut at county", "Domiciliu\nMun.Cluj-Napoca Jud.CJ", "Cluj-Napoca", true},
		{"village before commune", "Domiciliu\nJud.CJ Sat Valea Lunga Com. Gilau", "Valea Lunga", true},
		{"town on anchor line", "Domiciliu Or.Turda", "Turda", true},
		{"two words", "Adresse\nJud.MM Mun.Baia Mare", "Baia Mare", true},
		{"outside window", "Domiciliu\nJud.CJ\nStr.Mare 1\nMun.Dej", "", false},
		{"birthplace above anchor", "Loc nastere Mun.Dej\nDomiciliu\nJud.CJ", "", false},
		{"no marker", "Domiciliu\nJud.CJ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractLocality(newDocument(tt.text))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractStreetNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"single", "Str.X nr.12", "12", true},
		{"letter suffix", "Str.X Nr 4b", "4B", true},
		{"repeated agreeing", "nr.12\nNR. 12", "12", true},
		{"conflicting", "nr.12 nr.14", "", false},
		{"document number ignored", "SERIA CJ NR 123456", "", false},
		{"absent", "Str.X", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractStreetNumber(newDocument(tt.text))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApartmentDetails(t *testing.T) {
	d := newDocument("Str.X nr.1 Bloc C4 Scara B Etaj parter Ap. 7")

	block, ok := firstUpper(blockPattern, d.text)
	assert.True(t, ok)
	assert.Equal(t, "C4", block)

	stair, ok := firstUpper(staircasePattern, d.text)
	assert.True(t, ok)
	assert.Equal(t, "B", stair)

	floor, ok := extractFloor(d)
	assert.True(t, ok)
	assert.Equal(t, "P", floor)

	ap, ok := firstUpper(apartmentPattern, d.text)
	assert.True(t, ok)
	assert.Equal(t, "7", ap)
}

func TestApartmentDetails_RequireSeparator(t *testing.T) {
	d := newDocument("blana scandura etalon apus")

	_, ok := firstUpper(blockPattern, d.text)
	assert.False(t, ok)
	_, ok = firstUpper(staircasePattern, d.text)
	assert.False(t, ok)
	_, ok = extractFloor(d)
	assert.False(t, ok)
	_, ok = firstUpper(apartmentPattern, d.text)
	assert.False(t, ok)
}

func TestExtractSeriesNumber(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		series string
		number string
		ok     bool
	}{
		{"labelled", "SERIA CJ NR 123456", "CJ", "123456", true},
		{"labelled no spaces", "Seria KX nr.987654", "KX", "987654", true},
		{"plain wins over labelled", "SERIA XY NR 654321\nAB123456", "AB", "123456", true},
		{"plain", "RX 000000 AB1234567", "AB", "1234567", true},
		{"lowercase ignored", "ab123456", "", "", false},
		{"too short", "AB12345", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, number, ok := extractSeriesNumber(newDocument(tt.text))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.series, series)
			assert.Equal(t, tt.number, number)
		})
	}
}

func TestExtractIssuingOffice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"spclep", "Emisa de SPCLEP CLUJ", "SPCLEP CLUJ", true},
		{"spcep lowercase", "spcep Sector 3", "SPCEP Sector", true},
		{"hyphenated", "SPCLEP Cluj-Napoca", "SPCLEP Cluj-Napoca", true},
		{"token on next line", "SPCLEP\nValabilitate", "", false},
		{"absent", "Emisa de politie", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractIssuingOffice(newDocument(tt.text))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		y, m, d string
		want    string
		ok      bool
	}{
		{"2030", "12", "5", "2030-12-05", true},
		{"2029", "02", "29", "", false},
		{"2028", "02", "29", "2028-02-29", true},
		{"2030", "04", "31", "", false},
		{"2030", "00", "10", "", false},
		{"2030", "10", "00", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeDate(tt.y, tt.m, tt.d)
		assert.Equal(t, tt.ok, ok, "%s-%s-%s", tt.y, tt.m, tt.d)
		assert.Equal(t, tt.want, got)
	}
}
