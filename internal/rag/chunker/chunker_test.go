package chunker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

func TestSplit_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t  \n"} {
		_, err := Split(text, DefaultOptions(), Metadata{Filename: "empty.txt"})
		var ece *chatmodel.EmptyContentError
		if !errors.As(err, &ece) {
			t.Errorf("Split(%q) error = %v, want EmptyContentError", text, err)
		}
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	pieces, err := Split("short text", DefaultOptions(), Metadata{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(pieces) != 1 || pieces[0].Content != "short text" {
		t.Errorf("got %+v, want one piece with the original text", pieces)
	}
}

// The canonical ingestion scenario: ~1600 chars of repeated sentence with
// size 1000 / overlap 200 must produce exactly 2 chunks, each within the
// limit, with the tail of chunk 0 reappearing at the head of chunk 1.
func TestSplit_TwoChunkOverlap(t *testing.T) {
	text := strings.Repeat("Paris is the capital of France. ", 50)
	opts := Options{Size: 1000, Overlap: 200}

	pieces, err := Split(text, opts, Metadata{Filename: "paris.txt"})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(pieces) != 2 {
		t.Fatalf("got %d chunks, want exactly 2", len(pieces))
	}
	for i, p := range pieces {
		if len(p.Content) > opts.Size {
			t.Errorf("chunk %d length %d exceeds size %d", i, len(p.Content), opts.Size)
		}
	}

	tail := pieces[0].Content[len(pieces[0].Content)-opts.Overlap:]
	if !strings.HasPrefix(pieces[1].Content, tail) {
		t.Errorf("chunk 1 does not start with the %d-char tail of chunk 0", opts.Overlap)
	}
}

func TestSplit_Coverage(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon zeta. ", 120)
	opts := Options{Size: 300, Overlap: 60}

	pieces, err := Split(text, opts, Metadata{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// reconstruct: each chunk after the first repeats the previous chunk's
	// overlap, so dropping that prefix must restore the original text
	var rebuilt strings.Builder
	rebuilt.WriteString(pieces[0].Content)
	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1].Content
		overlap := opts.Overlap
		if overlap > len(prev) {
			overlap = 0
		}
		shared := prev[len(prev)-overlap:]
		if strings.HasPrefix(pieces[i].Content, shared) {
			rebuilt.WriteString(pieces[i].Content[len(shared):])
		} else {
			rebuilt.WriteString(pieces[i].Content)
		}
	}
	if rebuilt.String() != text {
		t.Error("concatenating chunks minus overlaps does not reconstruct the input")
	}

	for i, p := range pieces {
		if p.Index != i {
			t.Errorf("chunk %d carries index %d", i, p.Index)
		}
	}
}

func TestSplit_PrefersParagraphBreaks(t *testing.T) {
	para1 := strings.Repeat("a", 400)
	para2 := strings.Repeat("b", 400)
	para3 := strings.Repeat("c", 400)
	text := para1 + "\n\n" + para2 + "\n\n" + para3

	pieces, err := Split(text, Options{Size: 1000, Overlap: 0}, Metadata{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(pieces) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(pieces))
	}
	if !strings.HasSuffix(pieces[0].Content, "\n\n") {
		t.Errorf("first cut should land on the paragraph break, got tail %q", pieces[0].Content[len(pieces[0].Content)-5:])
	}
}

func TestSplit_UnsplittableToken(t *testing.T) {
	text := strings.Repeat("x", 2500) // no separators at all
	opts := Options{Size: 1000, Overlap: 100}

	pieces, err := Split(text, opts, Metadata{})
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	for i, p := range pieces {
		if len(p.Content) > opts.Size {
			t.Errorf("chunk %d length %d exceeds hard limit", i, len(p.Content))
		}
	}
}

func TestSplit_MetadataStamping(t *testing.T) {
	meta := Metadata{
		Filename:    "report.pdf",
		MediaType:   "application/pdf",
		Size:        4096,
		ProcessedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	text := strings.Repeat("some words here and there. ", 100)

	pieces, err := Split(text, Options{Size: 500, Overlap: 50}, meta)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(pieces) < 2 {
		t.Fatal("expected multiple chunks")
	}
	for i, p := range pieces {
		if p.Meta != meta {
			t.Errorf("chunk %d metadata = %+v, want %+v", i, p.Meta, meta)
		}
	}
}
