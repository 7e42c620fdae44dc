package google

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/httppool"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/internal/rag/embedding"
	"github.com/anvikal/ragchat/pkg/logx"
	"google.golang.org/genai"
)

var logger *logx.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingDimension

type client struct {
	genAi *genai.Client
	model string
}

// GetClient returns the process-wide embedding client. Initialization runs
// once; a failed init yields nil and the composition root must treat that as
// fatal rather than limp along without embeddings.
func GetClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logx.New("google_embedding")
		newEmbedder(ctx, modelName, apikey)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func newEmbedder(ctx context.Context, modelName string, apikey string) {
	if apikey == "" {
		logger.Error("GOOGLE_API_KEY is not set, embedding client unavailable")
		return
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, HTTPClient: httppool.Shared()})
	if err != nil {
		logger.Error("Error creating embedding client", "error", err)
		return
	}
	embeddingClient = &client{genAi: c, model: modelName}
	logger.Info("Embedding client created", "model", modelName)
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing embedding client")
	embeddingClient.genAi = nil
	embeddingClient.model = ""
}

// Embed returns the fixed-dimension vector for text. Over-length input is
// truncated to the upstream limit; truncation is silent to the caller but
// counted, since it chiefly hits raw queries and degrades their retrieval.
// Retry is deliberately not done here, the generation client's retry policy
// owns that for the shared quota pool.
func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &chatmodel.EmbeddingError{Err: &chatmodel.EmptyContentError{}}
	}
	text = c.truncate(ctx, text)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), embedConfig())
	if err != nil {
		logger.Error("Embedding call failed", "error", err.Error())
		return nil, &chatmodel.EmbeddingError{Err: err}
	}
	if len(result.Embeddings) == 0 {
		return nil, &chatmodel.EmbeddingError{Err: errNoEmbedding}
	}
	return result.Embeddings[0].Values, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: c.truncate(ctx, t)}},
		})
	}

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_batch", time.Since(start)) }()

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, contents, embedConfig())
	if err != nil {
		logger.Error("Batch embedding call failed", "count", len(texts), "error", err.Error())
		return nil, &chatmodel.EmbeddingError{Err: err}
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

func (c *client) truncate(ctx context.Context, text string) string {
	if len(text) <= config.EmbeddingMaxChars {
		return text
	}
	metrics.CountEmbeddingTruncation()
	logger.Warn("Input truncated for embedding",
		"traceId", ctx.Value(config.TRACE_ID_KEY),
		"original", len(text), "max", config.EmbeddingMaxChars)
	return text[:config.EmbeddingMaxChars]
}

func embedConfig() *genai.EmbedContentConfig {
	return &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"}
}

var errNoEmbedding = errors.New("upstream returned no embedding values")
