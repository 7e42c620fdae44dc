package store

import (
	"context"
	"encoding/json"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/data/redisstore"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/pkg/logx"
)

type RedisDocumentStore struct {
	store  *redisstore.Store
	logger *logx.Logger
}

func GetRedisDocumentStore(ctx context.Context) *RedisDocumentStore {
	s := redisstore.GetRedisStore(ctx, config.RedisDocumentStoreDB)
	if s == nil {
		return nil
	}
	return &RedisDocumentStore{
		store:  s,
		logger: logx.New("document_store"),
	}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, d chatmodel.Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, documentKeyPrefix+d.Id, data, 0); err != nil {
		return err
	}
	return s.store.ListPush(ctx, convDocsKeyPrefix+d.ConversationId, d.Id)
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (chatmodel.Document, bool) {
	var d chatmodel.Document
	val, err := s.store.Get(ctx, documentKeyPrefix+id)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("Error reading document", "id", id, "error", err)
		}
		return d, false
	}
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		s.logger.Error("Corrupt document row", "id", id, "error", err)
		return d, false
	}
	return d, true
}

func (s *RedisDocumentStore) MarkProcessed(ctx context.Context, id string) error {
	d, found := s.GetDocument(ctx, id)
	if !found {
		return &chatmodel.NotFoundError{Kind: "document", Id: id}
	}
	d.Processed = true
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, documentKeyPrefix+id, data, 0)
}

func (s *RedisDocumentStore) DocumentsByConversation(ctx context.Context, conversationId string) ([]chatmodel.Document, error) {
	ids, err := s.store.ListAll(ctx, convDocsKeyPrefix+conversationId)
	if err != nil {
		return nil, err
	}
	docs := make([]chatmodel.Document, 0, len(ids))
	for _, id := range ids {
		if d, found := s.GetDocument(ctx, id); found {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// DeleteDocument cascades: chunk rows, the chunk id list, the conversation
// membership entry, then the document row itself.
func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	d, found := s.GetDocument(ctx, id)
	if !found {
		return nil
	}

	chunkIds, err := s.store.ListAll(ctx, docChunksKeyPrefix+id)
	if err != nil && !s.store.IsNil(err) {
		return err
	}
	for _, chunkId := range chunkIds {
		if err := s.store.Del(ctx, chunkKeyPrefix+chunkId); err != nil {
			s.logger.Error("Error deleting chunk row", "chunk", chunkId, "error", err)
		}
	}
	if err := s.store.Del(ctx, docChunksKeyPrefix+id); err != nil {
		return err
	}
	if err := s.store.ListRemove(ctx, convDocsKeyPrefix+d.ConversationId, id); err != nil {
		s.logger.Error("Error unlinking document from conversation", "id", id, "error", err)
	}
	return s.store.Del(ctx, documentKeyPrefix+id)
}

func (s *RedisDocumentStore) SaveChunks(ctx context.Context, chunks []chatmodel.Chunk) error {
	for _, c := range chunks {
		// vectors live in the index, keep the rows lean
		c.Embedding = nil
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := s.store.Set(ctx, chunkKeyPrefix+c.Id, data, 0); err != nil {
			return err
		}
		if err := s.store.ListPush(ctx, docChunksKeyPrefix+c.DocumentId, c.Id); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisDocumentStore) GetChunk(ctx context.Context, id string) (chatmodel.Chunk, bool) {
	var c chatmodel.Chunk
	val, err := s.store.Get(ctx, chunkKeyPrefix+id)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("Error reading chunk", "id", id, "error", err)
		}
		return c, false
	}
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		return c, false
	}
	return c, true
}

// FindChunkByContent is the fallback join when a retrieval hit arrives
// without a chunk id. Linear over the conversation's chunks, fine at the
// per-conversation document counts this serves.
func (s *RedisDocumentStore) FindChunkByContent(ctx context.Context, conversationId string, content string) (chatmodel.Chunk, bool) {
	docs, err := s.DocumentsByConversation(ctx, conversationId)
	if err != nil {
		return chatmodel.Chunk{}, false
	}
	for _, d := range docs {
		chunkIds, err := s.store.ListAll(ctx, docChunksKeyPrefix+d.Id)
		if err != nil {
			continue
		}
		for _, id := range chunkIds {
			if c, found := s.GetChunk(ctx, id); found && c.Content == content {
				return c, true
			}
		}
	}
	return chatmodel.Chunk{}, false
}

func (s *RedisDocumentStore) SaveCitations(ctx context.Context, citations []chatmodel.Citation) error {
	for _, c := range citations {
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := s.store.ListPush(ctx, citationsKeyPrefix+c.MessageId, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisDocumentStore) CitationsByMessage(ctx context.Context, messageId string) ([]chatmodel.Citation, error) {
	raw, err := s.store.ListAll(ctx, citationsKeyPrefix+messageId)
	if err != nil {
		return nil, err
	}
	citations := make([]chatmodel.Citation, 0, len(raw))
	for _, item := range raw {
		var c chatmodel.Citation
		if err := json.Unmarshal([]byte(item), &c); err != nil {
			s.logger.Error("Corrupt citation row, skipping", "message", messageId, "error", err)
			continue
		}
		citations = append(citations, c)
	}
	return citations, nil
}

func TestDocumentStore(store *redisstore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logx.New("test_document_store"),
	}
}
