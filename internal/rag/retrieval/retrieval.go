package retrieval

import (
	"context"
	"sort"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
	"github.com/anvikal/ragchat/pkg/logx"
)

// Engine shapes queries to the vector index and its results. It always
// applies the conversation scope filter and never propagates index errors:
// a broken index degrades to answering without document context, it must
// not abort the chat turn.
type Engine struct {
	index  vectorstore.Index
	logger *logx.Logger
}

func New(index vectorstore.Index) *Engine {
	return &Engine{
		index:  index,
		logger: logx.New("Retrieval"),
	}
}

// Search returns the topK most similar chunks scoped to conversationId,
// ordered by descending score. Any index failure yields an empty result.
func (e *Engine) Search(ctx context.Context, vector []float32, conversationId string, topK int) []vectorstore.Match {
	log := e.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	if topK <= 0 {
		topK = config.SearchTopK
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	matches, err := e.index.Query(ctx, vector, conversationId, topK)
	if err != nil {
		log.Error("Vector search failed, continuing without document context", "error", err)
		metrics.CountRetrievalFailure()
		return nil
	}

	// Backends differ in similarity semantics, so descending order is
	// validated rather than assumed.
	if !sort.SliceIsSorted(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score }) {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	}

	log.Debug("Search complete", "matches", len(matches))
	return matches
}

// DeleteByDocument removes a document's chunks from the index. Idempotent by
// contract of the underlying index.
func (e *Engine) DeleteByDocument(ctx context.Context, documentId string) error {
	return e.index.DeleteByDocument(ctx, documentId)
}

// CachedAnswer consults the conversation-scoped semantic cache. Failures are
// swallowed like search failures: a cache miss and a cache outage look the
// same to the caller.
func (e *Engine) CachedAnswer(ctx context.Context, conversationId string, vector []float32) (string, bool) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	answer, found, err := e.index.CachedAnswer(ctx, conversationId, vector)
	if err != nil {
		return "", false
	}
	return answer, found
}

func (e *Engine) SaveAnswer(ctx context.Context, conversationId string, id string, vector []float32, answer string) {
	if err := e.index.SaveAnswer(ctx, conversationId, id, vector, answer); err != nil {
		e.logger.Error("Failed to save answer to cache", "error", err)
	}
}
