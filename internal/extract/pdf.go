package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

var errPageTimeout = errors.New("page extraction timed out")

// readPDF extracts text page by page. Pages that fail or time out are
// skipped. When the primary reader cannot open the file or returns no text,
// the whole document is retried with the fallback reader.
func (e *Extractor) readPDF(ctx context.Context, path string) (string, error) {
	lg := zerolog.Ctx(ctx)

	text, err := e.readPDFPages(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		lg.Debug().Err(err).Msg("primary pdf reader failed, trying fallback")
	}

	fallback, ferr := readPDFFallback(path)
	if ferr != nil {
		if err == nil {
			err = ferr
		}
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	return fallback, nil
}

func (e *Extractor) readPDFPages(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", err
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	lg := zerolog.Ctx(ctx)
	var pages []string
	n := r.NumPage()
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := e.pageText(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			lg.Warn().Err(err).Int("page", i).Msg("skipping pdf page")
			continue
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}

// pageText runs GetPlainText in its own goroutine so a malformed page can
// neither hang nor crash the request.
func (e *Extractor) pageText(ctx context.Context, page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resCh <- result{err: fmt.Errorf("pdf page panic: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resCh <- result{content, err}
	}()

	timer := time.NewTimer(e.opts.PageTimeout)
	defer timer.Stop()

	select {
	case r := <-resCh:
		return r.content, r.err
	case <-timer.C:
		return "", errPageTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func readPDFFallback(path string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf fallback panic: %v", rec)
		}
	}()

	f, rdr, err := lpdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
