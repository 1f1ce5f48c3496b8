package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
)

// SampleIdentityCardText is recognized text of a Romanian identity card
// from which every field can be extracted.
const SampleIdentityCardText = `ROMANIA
CARTE DE IDENTITATE
SERIA CJ NR 123456
CNP 1850101123456
Domiciliu/Adresse/Address
Jud.CJ Mun.Cluj-Napoca
Str.Exemplu nr.12 bl.A1 sc.2 et.3 ap.14
SPCLEP Cluj
05.03.2025-05.03.2035`

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Document creates a persisted identity document with a populated record
func (f *FixtureFactory) Document(opts ...func(*domain.IdentityDocument)) domain.IdentityDocument {
	seq := f.nextSeq()
	userID := fmt.Sprintf("user-%d", seq)
	backend := "cloud"

	doc := domain.IdentityDocument{
		ID:       uuid.New().String(),
		UserID:   userID,
		FileName: fmt.Sprintf("id-card-%d.jpg", seq),
		FilePath: fmt.Sprintf("%s/%d.jpg", userID, seq),
		IdentityRecord: domain.IdentityRecord{
			County:       PtrString("CJ"),
			Locality:     PtrString("Cluj-Napoca"),
			PersonalCode: PtrString("1850101123456"),
			ValidUntil:   PtrString("2035-03-05"),
		},
		Backend:   &backend,
		RawText:   PtrString(SampleIdentityCardText),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	for _, opt := range opts {
		opt(&doc)
	}

	return doc
}

// WithOwner sets the owning user
func WithOwner(userID string) func(*domain.IdentityDocument) {
	return func(d *domain.IdentityDocument) {
		d.UserID = userID
	}
}

// WithEmptyRecord makes the document an unsuccessful extraction
func WithEmptyRecord() func(*domain.IdentityDocument) {
	return func(d *domain.IdentityDocument) {
		d.IdentityRecord = domain.IdentityRecord{}
		d.Backend = nil
	}
}

// PNGImage encodes a white w x h PNG
func PNGImage(w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// MinimalPDF builds a syntactically complete PDF with the given number of empty pages
func MinimalPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", i+3))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}
