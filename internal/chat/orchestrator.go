package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/internal/rag/embedding"
	"github.com/anvikal/ragchat/internal/rag/llm"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
	"github.com/anvikal/ragchat/internal/ratelimit"
	"github.com/anvikal/ragchat/pkg/logx"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Retriever is the slice of the retrieval engine the orchestrator needs.
type Retriever interface {
	Search(ctx context.Context, vector []float32, conversationId string, topK int) []vectorstore.Match
	CachedAnswer(ctx context.Context, conversationId string, vector []float32) (string, bool)
	SaveAnswer(ctx context.Context, conversationId string, id string, vector []float32, answer string)
}

// Orchestrator runs one chat turn end to end: validate, rate-check, embed,
// retrieve, generate, persist, cite. At most one in-flight turn per
// conversation is assumed; the server does not lock per conversation.
type Orchestrator struct {
	limiter       *ratelimit.Limiter
	embedder      embedding.Embedder
	provider      llm.Provider
	retriever     Retriever
	conversations chatmodel.ConversationStore
	docs          chatmodel.DocumentStore
	logger        *logx.Logger
	now           func() time.Time
}

func NewOrchestrator(
	limiter *ratelimit.Limiter,
	embedder embedding.Embedder,
	provider llm.Provider,
	retriever Retriever,
	conversations chatmodel.ConversationStore,
	docs chatmodel.DocumentStore,
) *Orchestrator {
	return &Orchestrator{
		limiter:       limiter,
		embedder:      embedder,
		provider:      provider,
		retriever:     retriever,
		conversations: conversations,
		docs:          docs,
		logger:        logx.New("chat"),
		now:           time.Now,
	}
}

// StreamTurn validates and rate-checks synchronously, then runs the rest of
// the turn in a producer goroutine. Pre-stream failures come back as an
// error with nothing persisted; once a channel is returned, the caller must
// drain it to the end and will see exactly one terminal event.
func (o *Orchestrator) StreamTurn(ctx context.Context, conversationId string, text string) (<-chan Event, error) {
	if err := o.validate(ctx, conversationId, text); err != nil {
		return nil, err
	}

	gate := o.limiter.Check(config.ChatRateKey)
	if !gate.Allowed {
		// denied before anything was persisted, history stays clean
		return nil, &chatmodel.RateLimitError{RetryAfter: gate.RetryAfter}
	}

	userMsg := chatmodel.Message{
		Id:             uuid.NewString(),
		ConversationId: conversationId,
		Role:           chatmodel.RoleUser,
		Content:        text,
		CreatedAt:      o.now(),
	}
	if err := o.conversations.AppendMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	events := make(chan Event, config.BufferLimit)
	// generation finishes server-side even if the client disconnects, so
	// the assistant message still gets persisted
	turnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.TurnTimeout)

	go func() {
		defer cancel()
		o.runTurn(turnCtx, conversationId, text, events)
	}()

	return events, nil
}

// runTurn is the producer side of the event channel. The deferred block is
// the single place terminal events are emitted, so a turn can never end
// without one and never emits two.
func (o *Orchestrator) runTurn(ctx context.Context, conversationId string, question string, events chan<- Event) {
	log := o.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "conversation", conversationId)
	start := o.now()
	metrics.StreamStarted()

	var terminal *Event
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic during chat turn", "panic", r)
			terminal = &Event{Type: EventError, Error: "generation failed"}
		}
		if terminal == nil {
			terminal = &Event{Type: EventError, Error: "generation failed"}
		}
		if terminal.Type == EventError {
			status = "error"
		}
		events <- *terminal
		close(events)
		metrics.StreamFinished()
		metrics.CaptureTurnMetrics(status, time.Since(start))
	}()

	history, err := o.conversations.RecentMessages(ctx, conversationId, config.HistoryWindow)
	if err != nil {
		log.Error("Error loading history, continuing without it", "error", err)
	}

	// query-time embedding failure degrades to a history-only prompt
	vector, err := o.embedder.Embed(ctx, question)
	if err != nil {
		log.Error("Query embedding failed, answering without document context", "error", err)
		vector = nil
	}

	if vector != nil {
		if cached, found := o.retriever.CachedAnswer(ctx, conversationId, vector); found {
			log.Debug("Answer cache hit")
			events <- Event{Type: EventChunk, Content: cached}
			msg, perr := o.persistAssistant(ctx, conversationId, cached, nil)
			if perr != nil {
				log.Error("Error persisting cached answer", "error", perr)
			}
			terminal = &Event{Type: EventDone, MessageId: msg.Id}
			return
		}
	}

	var matches []vectorstore.Match
	if vector != nil {
		matches = o.retriever.Search(ctx, vector, conversationId, config.SearchTopK)
	}

	prompt := BuildPrompt(matches, history, question)

	answer, genErr := o.provider.Stream(ctx, prompt, func(text string) {
		events <- Event{Type: EventChunk, Content: text}
	})

	if genErr != nil && strings.TrimSpace(answer) == "" {
		terminal = errorEvent(classifyGeneration(genErr))
		log.Error("Generation failed", "error", genErr)
		return
	}
	if genErr != nil {
		// partial output already reached the client, persist what it saw
		log.Error("Generation died mid-stream, persisting partial answer", "error", genErr)
	}

	msg, perr := o.persistAssistant(ctx, conversationId, answer, matches)
	if perr != nil {
		// the user already has the text, a storage fault must not eat it
		log.Error("Error persisting assistant message", "error", perr)
	}

	if genErr != nil {
		terminal = errorEvent(classifyGeneration(genErr))
		return
	}

	if vector != nil {
		go o.retriever.SaveAnswer(context.WithoutCancel(ctx), conversationId, uuid.NewString(), vector, answer)
	}

	terminal = &Event{Type: EventDone, MessageId: msg.Id}
}

// CompleteTurn is the non-streaming variant used by POST /chat. Same state
// machine, whole answer in one response.
func (o *Orchestrator) CompleteTurn(ctx context.Context, conversationId string, text string) (chatmodel.Message, []chatmodel.Citation, error) {
	events, err := o.StreamTurn(ctx, conversationId, text)
	if err != nil {
		return chatmodel.Message{}, nil, err
	}

	var messageId string
	for ev := range events {
		switch ev.Type {
		case EventDone:
			messageId = ev.MessageId
		case EventError:
			if ev.RetryAfter > 0 {
				return chatmodel.Message{}, nil, &chatmodel.RateLimitError{RetryAfter: ev.RetryAfter}
			}
			return chatmodel.Message{}, nil, errors.New(ev.Error)
		}
	}

	msg := chatmodel.Message{}
	history, err := o.conversations.RecentMessages(ctx, conversationId, 1)
	if err == nil && len(history) == 1 && history[0].Id == messageId {
		msg = history[0]
	} else {
		msg.Id = messageId
		msg.ConversationId = conversationId
	}
	citations, err := o.docs.CitationsByMessage(ctx, messageId)
	if err != nil {
		o.logger.Error("Error loading citations", "message", messageId, "error", err)
	}
	return msg, citations, nil
}

// RateStatus surfaces the client-facing quota without consuming a slot.
func (o *Orchestrator) RateStatus() ratelimit.Status {
	return o.limiter.Status(config.ChatRateKey)
}

func (o *Orchestrator) validate(ctx context.Context, conversationId string, text string) error {
	if strings.TrimSpace(text) == "" {
		return &chatmodel.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if strings.TrimSpace(conversationId) == "" {
		return &chatmodel.ValidationError{Field: "conversationId", Reason: "must not be empty"}
	}
	if _, found := o.conversations.Get(ctx, conversationId); !found {
		return &chatmodel.NotFoundError{Kind: "conversation", Id: conversationId}
	}
	return nil
}

// persistAssistant writes the assistant message and the citations for the
// top retrieved chunks. Citation resolution prefers the chunk id carried in
// the vector payload and falls back to a conversation-scoped content match;
// unresolvable chunks are skipped, not errors.
func (o *Orchestrator) persistAssistant(ctx context.Context, conversationId string, answer string, matches []vectorstore.Match) (chatmodel.Message, error) {
	msg := chatmodel.Message{
		Id:             uuid.NewString(),
		ConversationId: conversationId,
		Role:           chatmodel.RoleAssistant,
		Content:        answer,
		CreatedAt:      o.now(),
	}
	if err := o.conversations.AppendMessage(ctx, msg); err != nil {
		return msg, err
	}

	citations := o.resolveCitations(ctx, conversationId, msg.Id, matches)
	if len(citations) > 0 {
		if err := o.docs.SaveCitations(ctx, citations); err != nil {
			o.logger.Error("Error saving citations", "message", msg.Id, "error", err)
		}
	}
	return msg, nil
}

func (o *Orchestrator) resolveCitations(ctx context.Context, conversationId string, messageId string, matches []vectorstore.Match) []chatmodel.Citation {
	var citations []chatmodel.Citation
	for i, m := range matches {
		if i >= config.CitationTopN {
			break
		}

		chunk, found := chatmodel.Chunk{}, false
		if m.Payload.ChunkId != "" {
			chunk, found = o.docs.GetChunk(ctx, m.Payload.ChunkId)
		}
		if !found {
			chunk, found = o.docs.FindChunkByContent(ctx, conversationId, m.Content)
		}
		if !found {
			continue
		}

		citations = append(citations, chatmodel.Citation{
			Id:         uuid.NewString(),
			MessageId:  messageId,
			DocumentId: chunk.DocumentId,
			ChunkId:    chunk.Id,
			Filename:   chunk.Filename,
			Page:       chunk.Page,
			Snippet:    snippet(chunk.Content),
		})
	}
	return citations
}

// classifyGeneration maps an upstream failure to the client-facing error
// classes. Only the class leaks out, upstream messages can carry secrets.
func classifyGeneration(err error) *chatmodel.GenerationError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return &chatmodel.GenerationError{Kind: chatmodel.GenRateLimited, RetryAfter: int(config.DefaultRetryAfter.Seconds()), Err: err}
		case 401, 403:
			return &chatmodel.GenerationError{Kind: chatmodel.GenBadCredential, Err: err}
		}
	}
	return &chatmodel.GenerationError{Kind: chatmodel.GenOther, Err: err}
}

func errorEvent(genErr *chatmodel.GenerationError) *Event {
	switch genErr.Kind {
	case chatmodel.GenRateLimited:
		return &Event{Type: EventError, Error: "the model is rate limited, try again shortly", RetryAfter: genErr.RetryAfter}
	case chatmodel.GenBadCredential:
		return &Event{Type: EventError, Error: "generation is misconfigured, contact the operator"}
	default:
		return &Event{Type: EventError, Error: "generation failed"}
	}
}

func snippet(content string) string {
	const max = 200
	if len(content) <= max {
		return content
	}
	return content[:max]
}
