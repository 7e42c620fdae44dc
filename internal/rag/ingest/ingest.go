package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/rag/chunker"
	"github.com/anvikal/ragchat/internal/rag/embedding"
	"github.com/anvikal/ragchat/internal/rag/extract"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
	"github.com/anvikal/ragchat/pkg/logx"
	"github.com/google/uuid"
)

// StagedFile is an uploaded file already written to local disk, waiting to
// be ingested.
type StagedFile struct {
	Path         string
	OriginalName string
	MediaType    string
	Size         int64
}

// extractor matches extract.File. Swappable in tests.
type extractor func(path string, mediaType string) ([]extract.Page, error)

// Pipeline turns staged files into persisted chunks and vectors. One
// instance is shared by the synchronous upload handler and the background
// job workers.
type Pipeline struct {
	embedder embedding.Embedder
	index    vectorstore.Index
	docs     chatmodel.DocumentStore
	extract  extractor
	logger   *logx.Logger
}

func New(embedder embedding.Embedder, index vectorstore.Index, docs chatmodel.DocumentStore) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		index:    index,
		docs:     docs,
		extract:  extract.File,
		logger:   logx.New("ingest"),
	}
}

// ProcessBatch ingests files sequentially. One file's failure never aborts
// its siblings; every file gets its own entry in the summary.
func (p *Pipeline) ProcessBatch(ctx context.Context, conversationId string, files []StagedFile) chatmodel.UploadSummary {
	summary := chatmodel.UploadSummary{}
	for _, f := range files {
		result := p.ProcessFile(ctx, conversationId, f)
		if result.Status == chatmodel.FileStatusSuccess {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Files = append(summary.Files, result)
	}
	return summary
}

// ProcessFile runs the full per-file pipeline: validate, extract, chunk,
// embed, persist, upsert, mark processed. The document row stays
// processed=false until the vectors are safely in the index.
func (p *Pipeline) ProcessFile(ctx context.Context, conversationId string, f StagedFile) chatmodel.FileResult {
	p.logger.Debug("Processing file", "name", f.OriginalName, "size", f.Size)

	if err := extract.Validate(f.OriginalName, f.Size, f.MediaType); err != nil {
		return fileError(f.OriginalName, "", err)
	}

	pages, err := p.extract(f.Path, f.MediaType)
	if err != nil {
		p.logger.Error("Extraction failed", "file", f.OriginalName, "error", err)
		return fileError(f.OriginalName, "", errors.New("could not extract text from file"))
	}
	if !hasContent(pages) {
		return fileError(f.OriginalName, "", &chatmodel.EmptyContentError{Filename: f.OriginalName})
	}

	doc := chatmodel.Document{
		Id:             uuid.NewString(),
		Filename:       f.OriginalName,
		OriginalName:   f.OriginalName,
		MediaType:      f.MediaType,
		Size:           f.Size,
		ConversationId: conversationId,
		Processed:      false,
		UploadedAt:     time.Now(),
	}
	if err := p.docs.SaveDocument(ctx, doc); err != nil {
		p.logger.Error("Error saving document row", "error", err)
		return fileError(f.OriginalName, "", errors.New("could not persist document"))
	}

	chunks, err := p.prepareChunks(pages, doc)
	if err != nil {
		return fileError(f.OriginalName, doc.Id, err)
	}
	p.logger.Debug("Prepared chunks", "file", f.OriginalName, "count", len(chunks))

	if err := p.embedAndUpsert(ctx, doc, chunks); err != nil {
		p.logger.Error("Error ingesting chunks", "file", f.OriginalName, "error", err)
		return fileError(f.OriginalName, doc.Id, errors.New("could not index document content"))
	}

	if err := p.docs.MarkProcessed(ctx, doc.Id); err != nil {
		p.logger.Error("Error marking document processed", "id", doc.Id, "error", err)
	}

	return chatmodel.FileResult{
		DocumentId:      doc.Id,
		Filename:        f.OriginalName,
		Status:          chatmodel.FileStatusSuccess,
		ChunksProcessed: len(chunks),
	}
}

// prepareChunks splits every page and assigns each chunk a document-wide
// index so ordering survives any storage backend.
func (p *Pipeline) prepareChunks(pages []extract.Page, doc chatmodel.Document) ([]chatmodel.Chunk, error) {
	meta := chunker.Metadata{
		Filename:    doc.OriginalName,
		MediaType:   doc.MediaType,
		Size:        doc.Size,
		ProcessedAt: time.Now(),
	}

	var chunks []chatmodel.Chunk
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		pieces, err := chunker.Split(page.Content, chunker.DefaultOptions(), meta)
		if err != nil {
			return nil, err
		}
		for _, piece := range pieces {
			chunks = append(chunks, chatmodel.Chunk{
				Id:         uuid.NewString(),
				DocumentId: doc.Id,
				Content:    piece.Content,
				Filename:   doc.OriginalName,
				Page:       page.Number,
				Index:      len(chunks),
			})
		}
	}
	if len(chunks) == 0 {
		return nil, &chatmodel.EmptyContentError{Filename: doc.OriginalName}
	}
	return chunks, nil
}

// embedAndUpsert runs in fixed-size batches so one huge document cannot
// blow an embedding request. Chunk rows are persisted before their vectors
// so a retrieval hit can always be joined back by chunk id.
func (p *Pipeline) embedAndUpsert(ctx context.Context, doc chatmodel.Document, chunks []chatmodel.Chunk) error {
	for i := 0; i < len(chunks); i += config.EmbedBatchSize {
		end := i + config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(batch) {
			return errors.New("embedding batch size mismatch")
		}
		for j := range batch {
			batch[j].Embedding = vectors[j]
		}

		if err := p.docs.SaveChunks(ctx, batch); err != nil {
			return err
		}

		points := make([]vectorstore.Point, len(batch))
		for j, c := range batch {
			points[j] = vectorstore.Point{
				Id:     c.Id,
				Vector: c.Embedding,
				Payload: vectorstore.Payload{
					Content:        c.Content,
					ChunkId:        c.Id,
					DocumentId:     c.DocumentId,
					ConversationId: doc.ConversationId,
					Filename:       c.Filename,
					Page:           c.Page,
					ChunkIndex:     c.Index,
				},
			}
		}
		if err := p.index.Upsert(ctx, points); err != nil {
			return err
		}
	}
	return nil
}

func hasContent(pages []extract.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Content) != "" {
			return true
		}
	}
	return false
}

func fileError(filename string, documentId string, err error) chatmodel.FileResult {
	return chatmodel.FileResult{
		DocumentId: documentId,
		Filename:   filename,
		Status:     chatmodel.FileStatusError,
		Error:      err.Error(),
	}
}
