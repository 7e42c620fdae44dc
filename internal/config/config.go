package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	//per-IP HTTP throttle, separate from the LLM quota gate below
	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//client-side LLM quota gate (fixed window). The upstream API enforces
	//the real limit; this one only paces us under the free tier.
	LLMWindowMaxRequests = 15
	LLMWindowLength      = 60 * time.Second
	LLMRateKey           = "llm-api"
	ChatRateKey          = "chat-api"

	//chunking
	ChunkSize    = 1000
	ChunkOverlap = 200

	//embeddings
	EmbeddingDimension int32 = 768
	EmbeddingMaxChars        = 8000
	GeminiModelName          = "gemini-2.0-flash"
	GeminiEmbeddingModel     = "text-embedding-004"

	ModelTemperature float32 = 0.7
	SystemPrompt             = "You are a helpful assistant. Use the provided document context to answer accurately and say so when the context does not cover the question."

	//retrieval
	SearchTopK        = 5
	CitationTopN      = 3
	HistoryWindow     = 6
	CacheSimilarityCutoff = 0.97

	//generation retry
	MaxGenerationRetries = 3
	RetryBaseDelay       = 1 * time.Second
	DefaultRetryAfter    = 30 * time.Second

	//upload limits
	MaxUploadBytes     = 10 << 20
	EmbedBatchSize     = 100
	TurnTimeout        = 120 * time.Second
	IngestTimeout      = 10 * time.Minute
	PageExtractTimeout = 10 * time.Second

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 0 //streaming responses must not be cut off
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"
	BufferLimit      = 100

	//shared outbound HTTP pool
	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//vectorDB
	DocumentCollection     = "ragchat-documents"
	AnswerCacheCollection  = "ragchat-answer-cache"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false
	QdrantPoolSize         = 1

	//redis has 16 DB we can use
	RedisJobStoreDB      = 0
	RedisChatStoreDB     = 1
	RedisDocumentStoreDB = 2

	RedisJobStoreTTL  = 24 * time.Hour
	RedisChatStoreTTL = 7 * 24 * time.Hour

	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort
)

var NoAuthBypass = os.Getenv("AUTH_TOKEN") == ""

// AuthToken guards every route when set. Empty token falls back to open
// access for local development.
var AuthToken = os.Getenv("AUTH_TOKEN")

var RedisPassword = os.Getenv("REDIS_PASSWORD")

// GoogleAPIKey is required; main refuses to start without it.
var GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
