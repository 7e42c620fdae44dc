package chunker

import (
	"strings"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

// Separators ordered from "best" to "worst" for semantic meaning: prefer to
// cut on a paragraph break, then a line break, then a space, and only hard
// cut mid-word when nothing else fits inside the size limit.
var separators = []string{"\n\n", "\n", " "}

type Options struct {
	Size    int
	Overlap int
}

// Metadata is stamped identically onto every piece of a document.
type Metadata struct {
	Filename    string
	MediaType   string
	Size        int64
	ProcessedAt time.Time
}

type Piece struct {
	Content string
	Index   int
	Meta    Metadata
}

func DefaultOptions() Options {
	return Options{Size: config.ChunkSize, Overlap: config.ChunkOverlap}
}

// Split cuts text into overlapping pieces of at most opts.Size characters.
// Consecutive pieces share opts.Overlap characters at the boundary so that
// retrieval never loses cross-boundary context. Whitespace-only input is a
// per-document failure, not a silent empty result.
func Split(text string, opts Options, meta Metadata) ([]Piece, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &chatmodel.EmptyContentError{Filename: meta.Filename}
	}
	if opts.Size <= 0 {
		opts.Size = config.ChunkSize
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		opts.Overlap = opts.Size / 5
	}

	var pieces []Piece
	start := 0
	for {
		if len(text)-start <= opts.Size {
			pieces = append(pieces, Piece{Content: text[start:], Index: len(pieces), Meta: meta})
			return pieces, nil
		}

		cut := splitPoint(text, start, start+opts.Size)
		pieces = append(pieces, Piece{Content: text[start:cut], Index: len(pieces), Meta: meta})

		next := cut - opts.Overlap
		if next <= start {
			// overlap would stall on a short piece, move on without it
			next = cut
		}
		start = next
	}
}

// splitPoint finds where to end the piece that starts at start and must not
// run past limit. Separators are tried in priority order; the cut lands just
// after the last occurrence inside the window, keeping the separator with
// the left piece. No separator at all means a hard cut at the limit.
func splitPoint(text string, start, limit int) int {
	window := text[start:limit]
	for _, sep := range separators {
		if p := strings.LastIndex(window, sep); p > 0 {
			return start + p + len(sep)
		}
	}
	return limit
}
