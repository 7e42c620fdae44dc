package worker

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
	"github.com/anvikal/ragchat/internal/metrics"
	"github.com/anvikal/ragchat/internal/rag/ingest"
)

func createWorker() {
	workerWaitGroup.Add(1)
	go worker()
	atomic.AddInt64(&currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	logger.Info("Created new worker")
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func executeJob(j jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("ingest_job", time.Since(start))
		metrics.DecrementJobsInQueue()
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, j.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestTimeout)
	defer cancel()

	logger.Debug("Processing job", "id", j.Id, "traceId", j.TraceId)
	saveJobState(ctx, j, jobmodel.JobStatusRunning)

	result := _ingestor.ProcessFile(ctx, j.ConversationId, ingest.StagedFile{
		Path:         j.FilePath,
		OriginalName: j.OriginalName,
		MediaType:    j.MediaType,
		Size:         j.Size,
	})
	j.Result = result

	if err := os.Remove(j.FilePath); err != nil && !os.IsNotExist(err) {
		logger.Error("Error removing staged file", "path", j.FilePath, "error", err)
	}

	j.EndTime = time.Now()
	if result.Status == chatmodel.FileStatusError {
		j.CurrentStep = jobmodel.Failed
		j.Error = jobmodel.JobError{Code: http.StatusUnprocessableEntity, Message: result.Error}
		saveJobState(ctx, j, jobmodel.JobStatusError)
		return
	}
	j.CurrentStep = jobmodel.Complete
	saveJobState(ctx, j, jobmodel.JobStatusComplete)
}

func saveJobState(ctx context.Context, j jobmodel.Job, status jobmodel.JobStatus) {
	j.Status = status
	if err := _jobService.JobStore.SaveJob(ctx, j); err != nil {
		logger.Error("Failed to save job state", "id", j.Id, "error", err)
	}
}
