package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/job"
	"github.com/anvikal/ragchat/internal/rag/ingest"
	"github.com/anvikal/ragchat/pkg/logx"
)

// Ingestor is the piece of the ingestion pipeline workers need.
type Ingestor interface {
	ProcessFile(ctx context.Context, conversationId string, f ingest.StagedFile) chatmodel.FileResult
}

var (
	_jobService        *job.Service
	_ingestor          Ingestor
	stopWorkerChannel  chan bool
	workerWaitGroup    *sync.WaitGroup
	dispatcherChannel  chan bool
	currentWorkerCount int64
	logger             *logx.Logger
	minWorkerCount     = config.MinWorkerCount
)

func InitServices(jobService *job.Service, ingestor Ingestor) {
	_jobService = jobService
	_ingestor = ingestor
	dispatcherChannel = jobService.DispatcherChannel
}

func InitWorkerPool(stopWorkerChan chan bool, waitGroup *sync.WaitGroup) {
	stopWorkerChannel = stopWorkerChan
	workerWaitGroup = waitGroup
	logger = logx.New("worker_pool")
	logger.Info("Initializing worker pool")
	go dispatcher()
}

func dispatcher() {
	createWorker()
	logger.Info("Dispatcher started")
	for range dispatcherChannel {
		if atomic.LoadInt64(&currentWorkerCount) < config.MaxWorkerCount {
			logger.Info("Creating new worker", "workerCount", currentWorkerCount)
			createWorker()
		}
	}
}

func worker() {
	for {
		select {
		case currentJob := <-_jobService.JobChannel:
			executeJob(currentJob)

		case <-stopWorkerChannel:
			removeWorker("Stop worker signal received")
			return

		case <-time.After(config.IdleWorkerTimeout):
			// idle too long, shrink back toward the floor
			if atomic.LoadInt64(&minWorkerCount) > 1 {
				removeWorker("Idle worker timeout")
				return
			}
		}
	}
}
