// Package extract turns uploaded files into plain text.
//
// PDF files are read page by page with github.com/dslipak/pdf, each page
// bounded by a timeout, and fall back to github.com/ledongthuc/pdf when the
// primary reader yields nothing. Plain text is decoded as UTF-8 with any
// byte-order mark removed. Word processor formats (.docx, .odt, .rtf) are
// read with github.com/lu4p/cat when enabled.
//
// Every upload is spooled to a temporary file that is removed on all exit
// paths.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var (
	// ErrUnsupportedType is returned for any file type that is not accepted.
	ErrUnsupportedType = errors.New("Only PDF and TXT files are supported")
	// ErrEmptyContent is returned when a file yields no non-space text.
	ErrEmptyContent = errors.New("no text could be extracted from the file")
	// ErrExtraction wraps reader failures (corrupt PDF, unreadable document).
	ErrExtraction = errors.New("text extraction failed")
)

// Accepted media types.
const (
	TypePDF  = "application/pdf"
	TypeText = "text/plain"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeODT  = "application/vnd.oasis.opendocument.text"
	TypeRTF  = "application/rtf"

	typeOctetStream = "application/octet-stream"
	typeTextRTF     = "text/rtf"
)

// DefaultPageTimeout bounds text extraction of a single PDF page.
const DefaultPageTimeout = 10 * time.Second

// Options configures an Extractor.
type Options struct {
	// TmpDir holds spooled uploads; empty means os.TempDir().
	TmpDir string
	// PageTimeout bounds each PDF page; zero means DefaultPageTimeout.
	PageTimeout time.Duration
	// OfficeFormats enables .docx, .odt and .rtf.
	OfficeFormats bool
}

// Extractor converts uploads to text. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	opts Options
}

// New returns an Extractor with opts, filling defaults.
func New(opts Options) *Extractor {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	return &Extractor{opts: opts}
}

// Result is the outcome of a successful extraction.
type Result struct {
	Text      string
	MediaType string
}

// Extract spools r to a temporary file, resolves its media type from
// declaredType (sniffing the bytes when it is empty or
// application/octet-stream) and returns the extracted text.
func (e *Extractor) Extract(ctx context.Context, r io.Reader, declaredType string) (Result, error) {
	path, err := e.spool(r)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(rmErr).Str("path", path).Msg("temp file cleanup failed")
		}
	}()

	typ := normalizeType(declaredType)
	if typ == "" || typ == typeOctetStream {
		typ, err = sniffFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrExtraction, err)
		}
	}
	if !e.Accepts(typ) {
		return Result{MediaType: typ}, ErrUnsupportedType
	}

	var text string
	switch typ {
	case TypePDF:
		text, err = e.readPDF(ctx, path)
	case TypeText:
		text, err = readText(path)
	default:
		text, err = readOffice(path, typ)
	}
	if err != nil {
		return Result{MediaType: typ}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{MediaType: typ}, ErrEmptyContent
	}
	return Result{Text: text, MediaType: typ}, nil
}

// Accepts reports whether typ (already normalized) can be extracted.
func (e *Extractor) Accepts(typ string) bool {
	switch typ {
	case TypePDF, TypeText:
		return true
	}
	_, ok := officeReaders[typ]
	return ok && e.opts.OfficeFormats
}

func (e *Extractor) spool(r io.Reader) (string, error) {
	f, err := os.CreateTemp(e.opts.TmpDir, "upload-*")
	if err != nil {
		return "", err
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

// normalizeType lowercases a Content-Type, drops parameters and folds
// aliases onto the canonical constants.
func normalizeType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	} else if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == typeTextRTF {
		return TypeRTF
	}
	return ct
}

// sniffFile detects the media type of the file at path from its content.
func sniffFile(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return DetectType(m), nil
}

// DetectType maps a detected MIME onto one of the accepted media types, or
// returns its own type with parameters removed.
func DetectType(m *mimetype.MIME) string {
	for _, t := range []string{TypePDF, TypeDOCX, TypeODT, TypeRTF, typeTextRTF, TypeText} {
		if m.Is(t) {
			return normalizeType(t)
		}
	}
	return normalizeType(m.String())
}
