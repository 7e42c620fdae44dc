// @title           RAG Chat API
// @version         1.0
// @description     Document-grounded chat with background ingestion and cited answers
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/anvikal/ragchat/internal/chat"
	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/data/store"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
	"github.com/anvikal/ragchat/internal/handlers"
	"github.com/anvikal/ragchat/internal/job"
	"github.com/anvikal/ragchat/internal/rag/embedding/google"
	"github.com/anvikal/ragchat/internal/rag/ingest"
	"github.com/anvikal/ragchat/internal/rag/llm"
	"github.com/anvikal/ragchat/internal/rag/llm/gemini"
	"github.com/anvikal/ragchat/internal/rag/retrieval"
	"github.com/anvikal/ragchat/internal/rag/vectorstore/qdrantdb"
	"github.com/anvikal/ragchat/internal/ratelimit"
	"github.com/anvikal/ragchat/internal/server"
	"github.com/anvikal/ragchat/internal/worker"
	"github.com/anvikal/ragchat/pkg/logx"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logx.Init()
	var logger = logx.New("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	if config.GoogleAPIKey == "" {
		logger.Error("GOOGLE_API_KEY is not set. Shutting down.")
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//stores, redis with in-memory fallback
	var jobStore jobmodel.JobStore
	if s := store.GetRedisJobStore(serviceContext); s != nil {
		jobStore = s
	} else {
		logger.Error("Redis job store is offline, falling back to in-memory")
		jobStore = store.InitInMemoryJobStore()
	}
	var conversations chatmodel.ConversationStore
	if s := store.GetRedisConversationStore(serviceContext); s != nil {
		conversations = s
	} else {
		logger.Error("Redis conversation store is offline, falling back to in-memory")
		conversations = store.InitInMemoryConversationStore()
	}
	var documents chatmodel.DocumentStore
	if s := store.GetRedisDocumentStore(serviceContext); s != nil {
		documents = s
	} else {
		logger.Error("Redis document store is offline, falling back to in-memory")
		documents = store.InitInMemoryDocumentStore()
	}

	vectorIndex := qdrantdb.GetClient(serviceContext)
	embedder := google.GetClient(serviceContext, config.GeminiEmbeddingModel, config.GoogleAPIKey)
	provider := gemini.GetClient(serviceContext, config.GoogleAPIKey, config.GeminiModelName)

	if vectorIndex == nil || embedder == nil || provider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorIndex", vectorIndex != nil, "Embedder", embedder != nil, "LLMProvider", provider != nil)
		return
	}

	//one shared window for all generation traffic
	llmLimiter := ratelimit.New(config.LLMWindowMaxRequests, config.LLMWindowLength)
	provider = llm.WithRetry(provider, llmLimiter)

	retriever := retrieval.New(vectorIndex)
	pipeline := ingest.New(embedder, vectorIndex, documents)
	orchestrator := chat.NewOrchestrator(llmLimiter, embedder, provider, retriever, conversations, documents)

	logger.Info("Starting job service")
	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	handlers.InitHandlers(handlers.Deps{
		Orchestrator:  orchestrator,
		Pipeline:      pipeline,
		Jobs:          jobService,
		Conversations: conversations,
		Documents:     documents,
		Retriever:     retriever,
	})

	//init worker pool
	worker.InitServices(jobService, pipeline)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
