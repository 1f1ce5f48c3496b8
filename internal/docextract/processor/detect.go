package processor

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
)

func init() {
	// pdfcpu would otherwise create a configuration directory under $HOME
	api.DisableConfigDir()
}

var (
	pdfMagic    = []byte("%PDF-")
	jpegMagic   = []byte{0xFF, 0xD8, 0xFF}
	pngMagic    = []byte{0x89, 0x50, 0x4E, 0x47}
	gifMagic    = []byte("GIF8")
	bmpMagic    = []byte("BM")
	tiffLEMagic = []byte{'I', 'I', 0x2A, 0x00}
	tiffBEMagic = []byte{'M', 'M', 0x00, 0x2A}
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// DetectKind classifies an upload by its magic bytes, falling back to the
// file extension when the content is not recognized.
func DetectKind(data []byte, fileName string) (domain.DocumentKind, bool) {
	switch ContentType(data) {
	case "application/pdf":
		return domain.KindPDF, true
	case "application/octet-stream":
	default:
		return domain.KindImage, true
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch {
	case ext == ".pdf":
		return domain.KindPDF, true
	case imageExtensions[ext]:
		return domain.KindImage, true
	}
	return "", false
}

// ContentType sniffs the MIME type of a supported document
func ContentType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return "application/pdf"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, gifMagic):
		return "image/gif"
	case bytes.HasPrefix(data, tiffLEMagic), bytes.HasPrefix(data, tiffBEMagic):
		return "image/tiff"
	case isWebP(data):
		return "image/webp"
	case bytes.HasPrefix(data, bmpMagic) && len(data) > 14:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

// PageCount returns the number of pages of a PDF document
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("read pdf page count: %w", err)
	}
	return n, nil
}
