package store

import (
	"context"
	"sync"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
)

type InMemoryDocumentStore struct {
	mu        *sync.RWMutex
	documents map[string]chatmodel.Document
	chunks    map[string]chatmodel.Chunk
	docChunks map[string][]string
	convDocs  map[string][]string
	citations map[string][]chatmodel.Citation
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		mu:        new(sync.RWMutex),
		documents: make(map[string]chatmodel.Document),
		chunks:    make(map[string]chatmodel.Chunk),
		docChunks: make(map[string][]string),
		convDocs:  make(map[string][]string),
		citations: make(map[string][]chatmodel.Citation),
	}
}

func (s *InMemoryDocumentStore) SaveDocument(ctx context.Context, d chatmodel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[d.Id] = d
	s.convDocs[d.ConversationId] = append(s.convDocs[d.ConversationId], d.Id)
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(ctx context.Context, id string) (chatmodel.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	return d, ok
}

func (s *InMemoryDocumentStore) MarkProcessed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return &chatmodel.NotFoundError{Kind: "document", Id: id}
	}
	d.Processed = true
	s.documents[id] = d
	return nil
}

func (s *InMemoryDocumentStore) DocumentsByConversation(ctx context.Context, conversationId string) ([]chatmodel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []chatmodel.Document
	for _, id := range s.convDocs[conversationId] {
		if d, ok := s.documents[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (s *InMemoryDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return nil
	}
	for _, chunkId := range s.docChunks[id] {
		delete(s.chunks, chunkId)
	}
	delete(s.docChunks, id)
	delete(s.documents, id)

	ids := s.convDocs[d.ConversationId]
	kept := ids[:0]
	for _, docId := range ids {
		if docId != id {
			kept = append(kept, docId)
		}
	}
	s.convDocs[d.ConversationId] = kept
	return nil
}

func (s *InMemoryDocumentStore) SaveChunks(ctx context.Context, chunks []chatmodel.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		c.Embedding = nil
		s.chunks[c.Id] = c
		s.docChunks[c.DocumentId] = append(s.docChunks[c.DocumentId], c.Id)
	}
	return nil
}

func (s *InMemoryDocumentStore) GetChunk(ctx context.Context, id string) (chatmodel.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[id]
	return c, ok
}

func (s *InMemoryDocumentStore) FindChunkByContent(ctx context.Context, conversationId string, content string) (chatmodel.Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, docId := range s.convDocs[conversationId] {
		for _, chunkId := range s.docChunks[docId] {
			if c, ok := s.chunks[chunkId]; ok && c.Content == content {
				return c, true
			}
		}
	}
	return chatmodel.Chunk{}, false
}

func (s *InMemoryDocumentStore) SaveCitations(ctx context.Context, citations []chatmodel.Citation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range citations {
		s.citations[c.MessageId] = append(s.citations[c.MessageId], c)
	}
	return nil
}

func (s *InMemoryDocumentStore) CitationsByMessage(ctx context.Context, messageId string) ([]chatmodel.Citation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chatmodel.Citation(nil), s.citations[messageId]...), nil
}
