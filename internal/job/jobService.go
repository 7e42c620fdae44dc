package job

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/pkg/logx"
)

// Service owns the ingestion queue. Handlers enqueue, workers drain, and
// the dispatcher channel tells the pool when load justifies another worker.
type Service struct {
	JobChannel        chan jobmodel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobmodel.JobStore

	logger *logx.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobmodel.Job
	DispatcherChannel chan bool
	JobStore          jobmodel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logx.New("job_service"),
	}
}

// Enqueue persists the job as QUEUED and hands it to the pool. Every
// RequestsPerNewWorkerCount enqueues, the dispatcher gets a growth signal.
func (s *Service) Enqueue(ctx context.Context, j jobmodel.Job) error {
	j.Status = jobmodel.JobStatusQueued
	j.CurrentStep = jobmodel.IngestInit
	j.CreatedTime = time.Now()

	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		return err
	}

	s.JobChannel <- j
	metrics.IncrementJobsInQueue()

	count := atomic.AddInt64(&s.RequestCount, 1)
	if count%config.RequestsPerNewWorkerCount == 0 {
		select {
		case s.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount()
		default:
			// dispatcher is already saturated with signals
		}
	}

	s.logger.Debug("Enqueued ingestion job", "id", j.Id, "file", j.OriginalName)
	return nil
}
