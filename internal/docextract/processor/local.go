package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/pkg/config"
	"github.com/docintake/docintake-backend/pkg/logger"
)

// LocalBackend recognizes raster images with the Tesseract CLI
type LocalBackend struct {
	binary      string
	language    string
	psm         int
	tessdataDir string
	timeout     time.Duration
	minWidth    int
	maxPixels   int64

	slots  *semaphore.Weighted
	runner Runner
	log    *logger.Logger
}

// NewLocalBackend creates a local backend. It returns nil when the
// local engine is disabled.
func NewLocalBackend(cfg config.LocalConfig, runner Runner, log *logger.Logger) *LocalBackend {
	if !cfg.Enabled {
		return nil
	}

	b := &LocalBackend{
		binary:      cfg.TesseractPath,
		language:    cfg.Language,
		psm:         cfg.PSM,
		tessdataDir: cfg.TessdataDir,
		timeout:     cfg.Timeout,
		minWidth:    cfg.MinWidth,
		maxPixels:   cfg.MaxPixels,
		runner:      runner,
		log:         log.WithComponent("local-backend"),
	}
	if b.binary == "" {
		b.binary = "tesseract"
	}
	if b.language == "" {
		b.language = "ron"
	}
	if b.timeout <= 0 {
		b.timeout = 60 * time.Second
	}
	if b.maxPixels <= 0 {
		b.maxPixels = defaultMaxPixels
	}
	slots := cfg.MaxConcurrent
	if slots <= 0 {
		slots = 1
	}
	b.slots = semaphore.NewWeighted(slots)
	return b
}

func (b *LocalBackend) Name() string { return BackendLocal }

func (b *LocalBackend) Supports(kind domain.DocumentKind) bool {
	return kind == domain.KindImage
}

func (b *LocalBackend) Recognize(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	if !b.Supports(kind) {
		return "", b.fail(domain.ErrBackendUnavailable, fmt.Errorf("unsupported document kind %q", kind))
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	// Decoding holds the full bitmap in memory, so it counts against the
	// engine slots as well.
	if err := b.slots.Acquire(ctx, 1); err != nil {
		return "", b.fail(domain.ErrBackendTimeout, fmt.Errorf("waiting for engine slot: %w", err))
	}
	defer b.slots.Release(1)

	img, err := normalizeImage(data, b.minWidth, b.maxPixels)
	if err != nil {
		return "", b.fail(domain.ErrBackendRequestFailed, err)
	}

	dir, err := os.MkdirTemp("", "docintake-ocr-*")
	if err != nil {
		return "", b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("create work dir: %w", err))
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "page.png")
	if err := os.WriteFile(input, img, 0o600); err != nil {
		return "", b.fail(domain.ErrBackendRequestFailed, fmt.Errorf("write page image: %w", err))
	}

	stdout, stderr, err := b.runner.Run(ctx, b.binary, b.args(input)...)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", b.fail(domain.ErrBackendTimeout, fmt.Errorf("tesseract exceeded %s", b.timeout))
		case errors.Is(err, exec.ErrNotFound):
			return "", b.fail(domain.ErrBackendUnavailable, err)
		default:
			return "", b.fail(domain.ErrBackendRequestFailed,
				fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(stderr))))
		}
	}

	return string(stdout), nil
}

func (b *LocalBackend) args(input string) []string {
	args := []string{input, "stdout", "-l", b.language, "--psm", strconv.Itoa(b.psm)}
	if b.tessdataDir != "" {
		args = append(args, "--tessdata-dir", b.tessdataDir)
	}
	return args
}

func (b *LocalBackend) fail(kind, err error) *domain.BackendError {
	return domain.NewBackendError(BackendLocal, kind, err)
}

// defaultMaxPixels bounds decoded images to roughly a 600 dpi A4 scan
const defaultMaxPixels = 40_000_000

// normalizeImage decodes a raster image, applies EXIF orientation,
// converts to grayscale and upscales scans narrower than minWidth.
// The result is PNG encoded. Images whose header declares more than
// maxPixels, before or after upscaling, are rejected without decoding.
func normalizeImage(data []byte, minWidth int, maxPixels int64) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("decode image: empty image")
	}
	width, height := int64(cfg.Width), int64(cfg.Height)
	if minWidth > 0 && width < int64(minWidth) {
		height = height * int64(minWidth) / width
		width = int64(minWidth)
	}
	if maxPixels > 0 && (int64(cfg.Width)*int64(cfg.Height) > maxPixels || width*height > maxPixels) {
		return nil, fmt.Errorf("image of %dx%d exceeds the %d pixel limit", cfg.Width, cfg.Height, maxPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errors.New("decode image: empty image")
	}
	if minWidth > 0 && bounds.Dx() < minWidth {
		img = imaging.Resize(img, minWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
