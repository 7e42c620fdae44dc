package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
	"github.com/anvikal/ragchat/internal/ratelimit"
	"github.com/anvikal/ragchat/pkg/logx"
	"google.golang.org/genai"
)

type mockConversations struct {
	conversations map[string]chatmodel.Conversation
	messages      []chatmodel.Message
}

func newMockConversations(ids ...string) *mockConversations {
	m := &mockConversations{conversations: make(map[string]chatmodel.Conversation)}
	for _, id := range ids {
		m.conversations[id] = chatmodel.Conversation{Id: id}
	}
	return m
}

func (m *mockConversations) Create(ctx context.Context, c chatmodel.Conversation) error {
	m.conversations[c.Id] = c
	return nil
}

func (m *mockConversations) Get(ctx context.Context, id string) (chatmodel.Conversation, bool) {
	c, ok := m.conversations[id]
	return c, ok
}

func (m *mockConversations) Delete(ctx context.Context, id string) error {
	delete(m.conversations, id)
	return nil
}

func (m *mockConversations) AppendMessage(ctx context.Context, msg chatmodel.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockConversations) RecentMessages(ctx context.Context, conversationId string, n int) ([]chatmodel.Message, error) {
	var out []chatmodel.Message
	for _, msg := range m.messages {
		if msg.ConversationId == conversationId {
			out = append(out, msg)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

type mockDocs struct {
	chunks    map[string]chatmodel.Chunk
	byContent map[string]chatmodel.Chunk
	citations []chatmodel.Citation
}

func newMockDocs() *mockDocs {
	return &mockDocs{
		chunks:    make(map[string]chatmodel.Chunk),
		byContent: make(map[string]chatmodel.Chunk),
	}
}

func (m *mockDocs) SaveDocument(ctx context.Context, d chatmodel.Document) error { return nil }
func (m *mockDocs) GetDocument(ctx context.Context, id string) (chatmodel.Document, bool) {
	return chatmodel.Document{}, false
}
func (m *mockDocs) MarkProcessed(ctx context.Context, id string) error { return nil }
func (m *mockDocs) DocumentsByConversation(ctx context.Context, conversationId string) ([]chatmodel.Document, error) {
	return nil, nil
}
func (m *mockDocs) DeleteDocument(ctx context.Context, id string) error { return nil }

func (m *mockDocs) SaveChunks(ctx context.Context, chunks []chatmodel.Chunk) error {
	for _, c := range chunks {
		m.chunks[c.Id] = c
		m.byContent[c.Content] = c
	}
	return nil
}

func (m *mockDocs) GetChunk(ctx context.Context, id string) (chatmodel.Chunk, bool) {
	c, ok := m.chunks[id]
	return c, ok
}

func (m *mockDocs) FindChunkByContent(ctx context.Context, conversationId string, content string) (chatmodel.Chunk, bool) {
	c, ok := m.byContent[content]
	return c, ok
}

func (m *mockDocs) SaveCitations(ctx context.Context, citations []chatmodel.Citation) error {
	m.citations = append(m.citations, citations...)
	return nil
}

func (m *mockDocs) CitationsByMessage(ctx context.Context, messageId string) ([]chatmodel.Citation, error) {
	var out []chatmodel.Citation
	for _, c := range m.citations {
		if c.MessageId == messageId {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFunc != nil {
		return m.embedFunc(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

type mockRetriever struct {
	matches     []vectorstore.Match
	cached      string
	cacheHit    bool
	savedAnswer chan string
}

func (m *mockRetriever) Search(ctx context.Context, v []float32, c string, k int) []vectorstore.Match {
	return m.matches
}

func (m *mockRetriever) CachedAnswer(ctx context.Context, c string, v []float32) (string, bool) {
	return m.cached, m.cacheHit
}

func (m *mockRetriever) SaveAnswer(ctx context.Context, c string, id string, v []float32, answer string) {
	if m.savedAnswer != nil {
		m.savedAnswer <- answer
	}
}

type mockProvider struct {
	chunks      []string
	streamErr   error
	gotPrompt   string
	panicOnCall bool
}

func (m *mockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	return strings.Join(m.chunks, ""), m.streamErr
}

func (m *mockProvider) Stream(ctx context.Context, prompt string, onChunk func(string)) (string, error) {
	m.gotPrompt = prompt
	if m.panicOnCall {
		panic("provider blew up")
	}
	var full strings.Builder
	for _, c := range m.chunks {
		onChunk(c)
		full.WriteString(c)
	}
	return full.String(), m.streamErr
}

func newTestOrchestrator(convs *mockConversations, docs *mockDocs, ret *mockRetriever, prov *mockProvider, emb *mockEmbedder) *Orchestrator {
	return &Orchestrator{
		limiter:       ratelimit.New(100, time.Minute),
		embedder:      emb,
		provider:      prov,
		retriever:     ret,
		conversations: convs,
		docs:          docs,
		logger:        logx.New("chat_test"),
		now:           time.Now,
	}
}

func drain(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream never terminated")
		}
	}
}

func TestStreamTurn_EventSequence(t *testing.T) {
	convs := newMockConversations("conv-1")
	docs := newMockDocs()
	docs.SaveChunks(context.Background(), []chatmodel.Chunk{
		{Id: "c-1", DocumentId: "doc-1", Content: "Paris is the capital of France.", Filename: "facts.txt", Page: 1},
	})
	ret := &mockRetriever{matches: []vectorstore.Match{
		{Id: "c-1", Content: "Paris is the capital of France.", Score: 0.9,
			Payload: vectorstore.Payload{ChunkId: "c-1", Filename: "facts.txt"}},
	}}
	prov := &mockProvider{chunks: []string{"The capital ", "is Paris."}}

	o := newTestOrchestrator(convs, docs, ret, prov, &mockEmbedder{})

	events, err := o.StreamTurn(context.Background(), "conv-1", "What is the capital of France?")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	if len(got) != 3 {
		t.Fatalf("got %d events, want 2 chunks + done: %+v", len(got), got)
	}
	if got[0].Type != EventChunk || got[0].Content != "The capital " {
		t.Errorf("event 0 = %+v, want first chunk", got[0])
	}
	if got[1].Type != EventChunk || got[1].Content != "is Paris." {
		t.Errorf("event 1 = %+v, want second chunk", got[1])
	}
	if got[2].Type != EventDone || got[2].MessageId == "" {
		t.Errorf("terminal = %+v, want done with a message id", got[2])
	}

	if !strings.Contains(prov.gotPrompt, "Paris is the capital of France.") {
		t.Error("prompt must include the retrieved chunk text")
	}
	if !strings.Contains(prov.gotPrompt, "What is the capital of France?") {
		t.Error("prompt must include the question")
	}

	// user message then assistant message
	if len(convs.messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(convs.messages))
	}
	if convs.messages[0].Role != chatmodel.RoleUser || convs.messages[1].Role != chatmodel.RoleAssistant {
		t.Error("messages out of order")
	}
	if convs.messages[1].Content != "The capital is Paris." {
		t.Errorf("assistant content = %q", convs.messages[1].Content)
	}
	if convs.messages[1].Id != got[2].MessageId {
		t.Error("done event must carry the assistant message id")
	}

	if len(docs.citations) != 1 {
		t.Fatalf("saved %d citations, want 1", len(docs.citations))
	}
	if docs.citations[0].ChunkId != "c-1" || docs.citations[0].DocumentId != "doc-1" {
		t.Errorf("citation = %+v, want chunk c-1 of doc-1", docs.citations[0])
	}
}

func TestStreamTurn_RateLimitShortCircuitsBeforePersist(t *testing.T) {
	convs := newMockConversations("conv-1")
	o := newTestOrchestrator(convs, newMockDocs(), &mockRetriever{}, &mockProvider{}, &mockEmbedder{})
	o.limiter = ratelimit.New(1, time.Minute)
	o.limiter.Check(config.ChatRateKey) // exhaust the window

	_, err := o.StreamTurn(context.Background(), "conv-1", "hello")

	var rl *chatmodel.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > 60 {
		t.Errorf("retryAfter = %d, want within the window", rl.RetryAfter)
	}
	if len(convs.messages) != 0 {
		t.Error("a denied turn must not persist the user message")
	}
}

func TestStreamTurn_Validation(t *testing.T) {
	o := newTestOrchestrator(newMockConversations("conv-1"), newMockDocs(), &mockRetriever{}, &mockProvider{}, &mockEmbedder{})

	if _, err := o.StreamTurn(context.Background(), "conv-1", "   "); !chatmodel.IsValidation(err) {
		t.Errorf("blank message: err = %v, want ValidationError", err)
	}
	if _, err := o.StreamTurn(context.Background(), "", "hi"); !chatmodel.IsValidation(err) {
		t.Errorf("blank conversation: err = %v, want ValidationError", err)
	}
	if _, err := o.StreamTurn(context.Background(), "ghost", "hi"); !chatmodel.IsNotFound(err) {
		t.Errorf("unknown conversation: err = %v, want NotFoundError", err)
	}
}

func TestStreamTurn_EmbedFailureDegradesToHistoryOnly(t *testing.T) {
	convs := newMockConversations("conv-1")
	prov := &mockProvider{chunks: []string{"answered from history"}}
	emb := &mockEmbedder{embedFunc: func(ctx context.Context, text string) ([]float32, error) {
		return nil, &chatmodel.EmbeddingError{Err: errors.New("quota")}
	}}

	o := newTestOrchestrator(convs, newMockDocs(), &mockRetriever{}, prov, emb)

	events, err := o.StreamTurn(context.Background(), "conv-1", "hello")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	last := got[len(got)-1]
	if last.Type != EventDone {
		t.Fatalf("terminal = %+v, want done despite embed failure", last)
	}
	if strings.Contains(prov.gotPrompt, "DOCUMENT CONTEXT") {
		t.Error("prompt must not claim document context when embedding failed")
	}
}

func TestStreamTurn_CacheHitSkipsGeneration(t *testing.T) {
	convs := newMockConversations("conv-1")
	prov := &mockProvider{chunks: []string{"should never stream"}}
	ret := &mockRetriever{cached: "cached answer", cacheHit: true}

	o := newTestOrchestrator(convs, newMockDocs(), ret, prov, &mockEmbedder{})

	events, err := o.StreamTurn(context.Background(), "conv-1", "same question again")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	if len(got) != 2 {
		t.Fatalf("got %d events, want cached chunk + done: %+v", len(got), got)
	}
	if got[0].Content != "cached answer" {
		t.Errorf("chunk = %q, want the cached text", got[0].Content)
	}
	if prov.gotPrompt != "" {
		t.Error("generation must not run on a cache hit")
	}
	if len(convs.messages) != 2 || convs.messages[1].Content != "cached answer" {
		t.Error("cached answer must still be persisted as the assistant message")
	}
}

func TestStreamTurn_CredentialFailureIsClassified(t *testing.T) {
	convs := newMockConversations("conv-1")
	prov := &mockProvider{streamErr: genai.APIError{Code: 401, Message: "API key not valid: AIza-secret"}}

	o := newTestOrchestrator(convs, newMockDocs(), &mockRetriever{}, prov, &mockEmbedder{})

	events, err := o.StreamTurn(context.Background(), "conv-1", "hello")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	last := got[len(got)-1]
	if last.Type != EventError {
		t.Fatalf("terminal = %+v, want error", last)
	}
	if strings.Contains(last.Error, "AIza") {
		t.Error("upstream credential detail leaked to the client")
	}
	// only the user message, no assistant message for an empty failed turn
	if len(convs.messages) != 1 {
		t.Errorf("persisted %d messages, want only the user message", len(convs.messages))
	}
}

func TestStreamTurn_PartialOutputIsPersistedOnMidStreamFailure(t *testing.T) {
	convs := newMockConversations("conv-1")
	prov := &mockProvider{chunks: []string{"partial "}, streamErr: genai.APIError{Code: 503}}

	o := newTestOrchestrator(convs, newMockDocs(), &mockRetriever{}, prov, &mockEmbedder{})

	events, err := o.StreamTurn(context.Background(), "conv-1", "hello")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	last := got[len(got)-1]
	if last.Type != EventError {
		t.Fatalf("terminal = %+v, want error after mid-stream death", last)
	}
	if len(convs.messages) != 2 || convs.messages[1].Content != "partial " {
		t.Error("the partial text the user saw must still be persisted")
	}
}

func TestStreamTurn_TerminalEventSurvivesPanic(t *testing.T) {
	convs := newMockConversations("conv-1")
	prov := &mockProvider{panicOnCall: true}

	o := newTestOrchestrator(convs, newMockDocs(), &mockRetriever{}, prov, &mockEmbedder{})

	events, err := o.StreamTurn(context.Background(), "conv-1", "hello")
	if err != nil {
		t.Fatalf("StreamTurn failed: %v", err)
	}
	got := drain(t, events)

	if len(got) == 0 || got[len(got)-1].Type != EventError {
		t.Fatalf("events = %+v, want a terminal error even after a panic", got)
	}
}

func TestCompleteTurn_ReturnsMessageAndCitations(t *testing.T) {
	convs := newMockConversations("conv-1")
	docs := newMockDocs()
	docs.SaveChunks(context.Background(), []chatmodel.Chunk{
		{Id: "c-1", DocumentId: "doc-1", Content: "context text", Filename: "facts.txt"},
	})
	ret := &mockRetriever{matches: []vectorstore.Match{
		{Id: "c-1", Content: "context text", Score: 0.8, Payload: vectorstore.Payload{ChunkId: "c-1"}},
	}}
	prov := &mockProvider{chunks: []string{"full answer"}}

	o := newTestOrchestrator(convs, docs, ret, prov, &mockEmbedder{})

	msg, citations, err := o.CompleteTurn(context.Background(), "conv-1", "question")
	if err != nil {
		t.Fatalf("CompleteTurn failed: %v", err)
	}
	if msg.Content != "full answer" {
		t.Errorf("message content = %q, want the full answer", msg.Content)
	}
	if len(citations) != 1 || citations[0].ChunkId != "c-1" {
		t.Errorf("citations = %+v, want chunk c-1", citations)
	}
}
