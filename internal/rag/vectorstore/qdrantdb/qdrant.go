package qdrantdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/rag/vectorstore"
	"github.com/anvikal/ragchat/pkg/logx"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logx.Logger
var instance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingDimension)

type ClientHolder struct {
	QObj *qdrant.Client
}

// GetClient initializes the process-wide Qdrant client and both collections.
// Returns nil when the index is unreachable; the composition root decides
// whether that is fatal.
func GetClient(ctx context.Context) vectorstore.Index {
	once.Do(func() {
		logger = logx.New("Qdrant")
		res := newClient()
		if res != nil {
			instance = res
			go closeQdrant(ctx, instance)
		}
	})

	if instance == nil {
		return nil
	}
	return &ClientHolder{QObj: instance}
}

func newClient() *qdrant.Client {
	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))
	if host == "" || er != nil {
		host = "127.0.0.1"
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate qdrant client", "error", err)
		return nil
	}

	for _, name := range []string{config.DocumentCollection, config.AnswerCacheCollection} {
		if err = createCollection(context.Background(), client, name); err != nil {
			logger.Error("could not create collection", "collectionName", name, "error", err)
			return nil
		}
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
}

func (db *ClientHolder) Upsert(ctx context.Context, points []vectorstore.Point) error {
	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(p.Id),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":         p.Payload.Content,
				"chunk_id":        p.Payload.ChunkId,
				"document_id":     p.Payload.DocumentId,
				"conversation_id": p.Payload.ConversationId,
				"filename":        p.Payload.Filename,
				"page":            p.Payload.Page,
				"chunk_index":     p.Payload.ChunkIndex,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: config.DocumentCollection,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Query runs a nearest-neighbor search scoped to one conversation. The scope
// filter is not optional: leaving it off would leak chunks across
// conversations.
func (db *ClientHolder) Query(ctx context.Context, vector []float32, conversationId string, topK int) ([]vectorstore.Match, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.DocumentCollection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("conversation_id", conversationId),
			},
		},
	})
	if err != nil {
		loggr.Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(result))
	for _, hit := range result {
		payload := vectorstore.Payload{
			Content:        hit.Payload["content"].GetStringValue(),
			ChunkId:        hit.Payload["chunk_id"].GetStringValue(),
			DocumentId:     hit.Payload["document_id"].GetStringValue(),
			ConversationId: hit.Payload["conversation_id"].GetStringValue(),
			Filename:       hit.Payload["filename"].GetStringValue(),
			Page:           int(hit.Payload["page"].GetIntegerValue()),
			ChunkIndex:     int(hit.Payload["chunk_index"].GetIntegerValue()),
		}
		matches = append(matches, vectorstore.Match{
			Id:      payload.ChunkId,
			Content: payload.Content,
			Score:   hit.Score,
			Payload: payload,
		})
	}
	return matches, nil
}

func (db *ClientHolder) DeleteByDocument(ctx context.Context, documentId string) error {
	_, err := db.QObj.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: config.DocumentCollection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("document_id", documentId),
			},
		}),
		Wait: qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete by document failed: %w", err)
	}
	return nil
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}
