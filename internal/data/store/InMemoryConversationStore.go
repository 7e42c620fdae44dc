package store

import (
	"context"
	"sync"

	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/pkg/logx"
)

var inMemLogger = logx.New("inmem_store")

// InMemoryConversationStore is the fallback when Redis is offline. State is
// lost on restart, which is acceptable for local development.
type InMemoryConversationStore struct {
	mu            *sync.RWMutex
	conversations map[string]chatmodel.Conversation
	messages      map[string][]chatmodel.Message
}

func InitInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		mu:            new(sync.RWMutex),
		conversations: make(map[string]chatmodel.Conversation),
		messages:      make(map[string][]chatmodel.Message),
	}
}

func (s *InMemoryConversationStore) Create(ctx context.Context, c chatmodel.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.Id] = c
	return nil
}

func (s *InMemoryConversationStore) Get(ctx context.Context, id string) (chatmodel.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	return c, ok
}

func (s *InMemoryConversationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (s *InMemoryConversationStore) AppendMessage(ctx context.Context, m chatmodel.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[m.ConversationId] = append(s.messages[m.ConversationId], m)
	return nil
}

func (s *InMemoryConversationStore) RecentMessages(ctx context.Context, conversationId string, n int) ([]chatmodel.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.messages[conversationId]
	if n <= 0 || n >= len(all) {
		return append([]chatmodel.Message(nil), all...), nil
	}
	return append([]chatmodel.Message(nil), all[len(all)-n:]...), nil
}
