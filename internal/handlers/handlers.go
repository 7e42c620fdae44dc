package handlers

import (
	"net/http"
	"sync"

	"github.com/anvikal/ragchat/internal/chat"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/job"
	"github.com/anvikal/ragchat/internal/rag/ingest"
	"github.com/anvikal/ragchat/internal/rag/retrieval"
	"github.com/anvikal/ragchat/pkg/logx"
)

var (
	handlerInstance *Deps //private singleton
	once            sync.Once
	logger          *logx.Logger
)

// Deps carries everything the HTTP surface needs. Wired once from main.
type Deps struct {
	Orchestrator  *chat.Orchestrator
	Pipeline      *ingest.Pipeline
	Jobs          *job.Service
	Conversations chatmodel.ConversationStore
	Documents     chatmodel.DocumentStore
	Retriever     *retrieval.Engine
}

func InitHandlers(deps Deps) {
	once.Do(func() {
		handlerInstance = &deps
		logger = logx.New("handlers")
		logger.Info("Handlers initialized")
	})
}

// GetHandler is the health probe.
func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
