package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		filename  string
		size      int64
		mediaType string
		wantErr   bool
	}{
		{"pdf ok", "report.pdf", 1024, "application/pdf", false},
		{"txt ok", "notes.txt", 10, "text/plain", false},
		{"docx ok", "DOC.DOCX", 500, "", false},
		{"unsupported", "image.png", 1024, "image/png", true},
		{"zero byte", "empty.txt", 0, "text/plain", true},
		{"too large", "huge.pdf", config.MaxUploadBytes + 1, "application/pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filename, tt.size, tt.mediaType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%s) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if err != nil && !chatmodel.IsValidation(err) {
				t.Errorf("expected a validation error, got %T", err)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	if !Supported("a.pdf", "") {
		t.Error("pdf should be supported by extension")
	}
	if !Supported("a.bin", "text/plain") {
		t.Error("text media type should be supported regardless of extension")
	}
	if Supported("a.exe", "application/octet-stream") {
		t.Error("binaries should not be supported")
	}
}

func TestFile_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.txt")
	content := "Paris is the capital of France."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	pages, err := File(path, "text/plain")
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Number != 1 {
		t.Errorf("page number = %d, want 1", pages[0].Number)
	}
	if pages[0].Content != content {
		t.Errorf("content = %q, want %q", pages[0].Content, content)
	}
}

func TestFile_NoStrategyAccepts(t *testing.T) {
	_, err := File("/tmp/whatever.png", "image/png")

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if len(extractionErr.Attempts) != 0 {
		t.Errorf("no strategy should have been attempted, got %d", len(extractionErr.Attempts))
	}
}

func TestFile_CapturesFailedAttempts(t *testing.T) {
	// an accepted extension whose file does not exist forces the strategy
	// to fail, which must surface as a recorded attempt
	_, err := File("/nonexistent/dir/ghost.pdf", "application/pdf")

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if len(extractionErr.Attempts) != 1 {
		t.Fatalf("got %d attempts, want 1", len(extractionErr.Attempts))
	}
	if extractionErr.Attempts[0].Strategy != "pdf" {
		t.Errorf("attempt strategy = %q, want pdf", extractionErr.Attempts[0].Strategy)
	}
}
