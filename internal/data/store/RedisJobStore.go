package store

import (
	"context"
	"encoding/json"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/data/redisstore"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
	"github.com/anvikal/ragchat/pkg/logx"
)

type RedisJobStore struct {
	store  *redisstore.Store
	logger *logx.Logger
}

func GetRedisJobStore(ctx context.Context) *RedisJobStore {
	s := redisstore.GetRedisStore(ctx, config.RedisJobStoreDB)
	if s == nil {
		return nil
	}
	return &RedisJobStore{
		store:  s,
		logger: logx.New("job_store"),
	}
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobmodel.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, jobKeyPrefix+job.Id, data, config.RedisJobStoreTTL)
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobmodel.Job, bool) {
	var job jobmodel.Job
	val, err := s.store.Get(ctx, jobKeyPrefix+jobId)
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.Error("Error reading job", "id", jobId, "error", err)
		}
		return job, false
	}
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		s.logger.Error("Corrupt job row", "id", jobId, "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKeyPrefix+jobID); err != nil {
		s.logger.Error("Error deleting job", "id", jobID, "error", err)
	}
}

func TestJobStore(store *redisstore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logx.New("test_job_store"),
	}
}
