package chatmodel

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Conversation struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	Id             string    `json:"id"`
	ConversationId string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Document struct {
	Id             string    `json:"id"`
	Filename       string    `json:"filename"`
	OriginalName   string    `json:"original_name"`
	MediaType      string    `json:"media_type"`
	Size           int64     `json:"size"`
	ConversationId string    `json:"conversation_id"`
	Processed      bool      `json:"processed"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Chunk is one bounded slice of a document's extracted text. Rows are
// written in bulk during ingestion and never mutated afterwards.
type Chunk struct {
	Id         string    `json:"id"`
	DocumentId string    `json:"document_id"`
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	Page       int       `json:"page"`
	Index      int       `json:"index"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

type Citation struct {
	Id         string `json:"id"`
	MessageId  string `json:"message_id"`
	DocumentId string `json:"document_id"`
	ChunkId    string `json:"chunk_id"`
	Filename   string `json:"filename"`
	Page       int    `json:"page,omitempty"`
	Snippet    string `json:"snippet"`
}

type FileResult struct {
	DocumentId      string `json:"id,omitempty"`
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	ChunksProcessed int    `json:"chunksProcessed,omitempty"`
}

const (
	FileStatusSuccess = "success"
	FileStatusError   = "error"
)

type UploadSummary struct {
	Files     []FileResult `json:"files"`
	Succeeded int          `json:"successful"`
	Failed    int          `json:"failed"`
}

type ConversationStore interface {
	Create(ctx context.Context, c Conversation) error
	Get(ctx context.Context, id string) (Conversation, bool)
	Delete(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, m Message) error
	RecentMessages(ctx context.Context, conversationId string, n int) ([]Message, error)
}

type DocumentStore interface {
	SaveDocument(ctx context.Context, d Document) error
	GetDocument(ctx context.Context, id string) (Document, bool)
	MarkProcessed(ctx context.Context, id string) error
	DocumentsByConversation(ctx context.Context, conversationId string) ([]Document, error)
	DeleteDocument(ctx context.Context, id string) error

	SaveChunks(ctx context.Context, chunks []Chunk) error
	GetChunk(ctx context.Context, id string) (Chunk, bool)
	FindChunkByContent(ctx context.Context, conversationId string, content string) (Chunk, bool)

	SaveCitations(ctx context.Context, citations []Citation) error
	CitationsByMessage(ctx context.Context, messageId string) ([]Citation, error)
}
