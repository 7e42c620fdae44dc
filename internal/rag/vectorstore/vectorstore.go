package vectorstore

import "context"

// Payload is the metadata stored beside every vector. ChunkId rides along so
// retrieval results can be joined back to persisted chunk rows by id instead
// of by content equality, and ConversationId is the mandatory scope key: no
// query ever runs without it.
type Payload struct {
	Content        string
	ChunkId        string
	DocumentId     string
	ConversationId string
	Filename       string
	Page           int
	ChunkIndex     int
}

type Point struct {
	Id      string
	Vector  []float32
	Payload Payload
}

type Match struct {
	Id      string
	Content string
	Score   float32
	Payload Payload
}

// Index is the access contract for the external nearest-neighbor store.
// Vector dimension is fixed per collection; callers must query with vectors
// of the same dimension they upserted.
type Index interface {
	Upsert(ctx context.Context, points []Point) error
	Query(ctx context.Context, vector []float32, conversationId string, topK int) ([]Match, error)
	// DeleteByDocument removes every point of a document. Idempotent:
	// deleting an absent document is not an error.
	DeleteByDocument(ctx context.Context, documentId string) error

	// Conversation-scoped semantic answer cache.
	CachedAnswer(ctx context.Context, conversationId string, vector []float32) (string, bool, error)
	SaveAnswer(ctx context.Context, conversationId string, id string, vector []float32, answer string) error
}
