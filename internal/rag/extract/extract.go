package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/pkg/logx"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var logger = logx.New("extract")

// Page is one unit of extracted text. Formats without a page concept come
// back as a single page numbered 1.
type Page struct {
	Number  int
	Content string
}

// Strategy is one way of turning a file into pages. Strategies are tried in
// declared order; adding a format means appending to the list.
type Strategy struct {
	Name    string
	Accepts func(ext string, mediaType string) bool
	Extract func(path string) ([]Page, error)
}

// AttemptError records a single strategy's failure so callers can report
// what was tried instead of only the last error.
type AttemptError struct {
	Strategy string
	Err      error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e AttemptError) Unwrap() error { return e.Err }

// ExtractionError aggregates every failed attempt for one file.
type ExtractionError struct {
	Filename string
	Attempts []AttemptError
}

func (e *ExtractionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no extraction strategy accepts %q", e.Filename)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Error()
	}
	return fmt.Sprintf("extraction failed for %q: %s", e.Filename, strings.Join(parts, "; "))
}

var strategies = []Strategy{
	{
		Name: "pdf",
		Accepts: func(ext string, mediaType string) bool {
			return ext == ".pdf" || mediaType == "application/pdf"
		},
		Extract: extractPDF,
	},
	{
		Name: "cat",
		Accepts: func(ext string, mediaType string) bool {
			switch ext {
			case ".docx", ".odt", ".rtf", ".txt", ".md":
				return true
			}
			return strings.HasPrefix(mediaType, "text/")
		},
		Extract: extractWithCat,
	},
}

// Supported reports whether any strategy accepts the file. Used by upload
// validation so unsupported types are rejected before bytes hit disk.
func Supported(filename string, mediaType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range strategies {
		if s.Accepts(ext, mediaType) {
			return true
		}
	}
	return false
}

// Validate applies the upload preconditions: supported type, non-empty,
// within the size cap. Runs before any extraction work.
func Validate(filename string, size int64, mediaType string) error {
	if !Supported(filename, mediaType) {
		return &chatmodel.ValidationError{Field: "file", Reason: fmt.Sprintf("unsupported media type for %q", filename)}
	}
	if size == 0 {
		return &chatmodel.ValidationError{Field: "file", Reason: fmt.Sprintf("%q is empty", filename)}
	}
	if size > config.MaxUploadBytes {
		return &chatmodel.ValidationError{Field: "file", Reason: fmt.Sprintf("%q exceeds the %dMB limit", filename, config.MaxUploadBytes>>20)}
	}
	return nil
}

// File runs the strategy list against path in priority order and returns
// the pages from the first strategy that succeeds.
func File(path string, mediaType string) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	failed := &ExtractionError{Filename: filepath.Base(path)}

	for _, s := range strategies {
		if !s.Accepts(ext, mediaType) {
			continue
		}
		pages, err := s.Extract(path)
		if err != nil {
			logger.Warn("Extraction strategy failed", "strategy", s.Name, "file", path, "error", err)
			failed.Attempts = append(failed.Attempts, AttemptError{Strategy: s.Name, Err: err})
			continue
		}
		return pages, nil
	}

	return nil, failed
}

func extractPDF(path string) ([]Page, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	var pages []Page
	numPages := f.NumPage()
	logger.Debug("extractPDF", "path", path, "pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := protectExtract(page)
		if err != nil {
			// keep going, a single bad page should not sink the document
			logger.Error("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, Page{Number: i, Content: content})
	}
	return pages, nil
}

// extractWithCat reads .docx, .odt, .rtf and plaintext files. cat has no
// page awareness so everything lands on page 1.
func extractWithCat(path string) ([]Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return []Page{{Number: 1, Content: text}}, nil
}

// protectExtract guards against pdf pages whose text extraction hangs.
func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errors.New("timeout")
	}
}
