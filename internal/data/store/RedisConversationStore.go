package store

import (
	"context"
	"encoding/json"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/data/redisstore"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/pkg/logx"
)

type RedisConversationStore struct {
	store  *redisstore.Store
	logger *logx.Logger
}

func GetRedisConversationStore(ctx context.Context) *RedisConversationStore {
	s := redisstore.GetRedisStore(ctx, config.RedisChatStoreDB)
	if s == nil {
		return nil
	}
	return &RedisConversationStore{
		store:  s,
		logger: logx.New("conversation_store"),
	}
}

func (s *RedisConversationStore) Create(ctx context.Context, c chatmodel.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, conversationKeyPrefix+c.Id, data, config.RedisChatStoreTTL)
}

func (s *RedisConversationStore) Get(ctx context.Context, id string) (chatmodel.Conversation, bool) {
	var c chatmodel.Conversation
	val, err := s.store.Get(ctx, conversationKeyPrefix+id)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("Error reading conversation", "id", id, "error", err)
		}
		return c, false
	}
	if err := json.Unmarshal([]byte(val), &c); err != nil {
		s.logger.Error("Corrupt conversation row", "id", id, "error", err)
		return c, false
	}
	return c, true
}

// Delete removes the conversation row and its message list in one call.
func (s *RedisConversationStore) Delete(ctx context.Context, id string) error {
	return s.store.Del(ctx, conversationKeyPrefix+id, messagesKeyPrefix+id)
}

func (s *RedisConversationStore) AppendMessage(ctx context.Context, m chatmodel.Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.store.ListPush(ctx, messagesKeyPrefix+m.ConversationId, data)
}

// RecentMessages returns up to n newest messages in chronological order.
func (s *RedisConversationStore) RecentMessages(ctx context.Context, conversationId string, n int) ([]chatmodel.Message, error) {
	raw, err := s.store.ListLastN(ctx, messagesKeyPrefix+conversationId, n)
	if err != nil {
		return nil, err
	}
	messages := make([]chatmodel.Message, 0, len(raw))
	for _, item := range raw {
		var m chatmodel.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.logger.Error("Corrupt message row, skipping", "conversation", conversationId, "error", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func TestConversationStore(store *redisstore.Store) *RedisConversationStore {
	return &RedisConversationStore{
		store:  store,
		logger: logx.New("test_conversation_store"),
	}
}
