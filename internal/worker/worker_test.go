package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anvikal/ragchat/internal/config"
	"github.com/anvikal/ragchat/internal/domain/chatmodel"
	"github.com/anvikal/ragchat/internal/domain/jobmodel"
	"github.com/anvikal/ragchat/internal/job"
	"github.com/anvikal/ragchat/internal/rag/ingest"
	"github.com/anvikal/ragchat/pkg/logx"
)

type MockIngestor struct {
	ProcessedCount int32
	Result         chatmodel.FileResult
}

func (m *MockIngestor) ProcessFile(ctx context.Context, conversationId string, f ingest.StagedFile) chatmodel.FileResult {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.Result.Status == "" {
		return chatmodel.FileResult{Filename: f.OriginalName, Status: chatmodel.FileStatusSuccess}
	}
	return m.Result
}

type MockJobStore struct {
	mu    sync.Mutex
	saved []jobmodel.Job
}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobmodel.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, j)
	return nil
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobmodel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].Id == jobId {
			return m.saved[i], true
		}
	}
	return jobmodel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func TestWorkerPool_Flow(t *testing.T) {
	jobStore := &MockJobStore{}
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobmodel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
	})
	mockIngestor := &MockIngestor{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockIngestor)
	InitWorkerPool(stopChan, wg)

	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true

		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker processes a job", func(t *testing.T) {
		jobSvc.JobChannel <- jobmodel.Job{Id: "test-1", FilePath: "/tmp/does-not-exist", OriginalName: "a.txt"}

		time.Sleep(100 * time.Millisecond)

		processed := atomic.LoadInt32(&mockIngestor.ProcessedCount)
		if processed != 1 {
			t.Errorf("Expected 1 job processed, got %d", processed)
		}

		final, found := jobStore.GetJob(context.Background(), "test-1")
		if !found {
			t.Fatal("job state was never saved")
		}
		if final.Status != jobmodel.JobStatusComplete {
			t.Errorf("final status = %s, want COMPLETE", final.Status)
		}
	})

	t.Run("Failed ingestion marks job as error", func(t *testing.T) {
		mockIngestor.Result = chatmodel.FileResult{
			Filename: "bad.txt", Status: chatmodel.FileStatusError, Error: "no content extracted",
		}
		jobSvc.JobChannel <- jobmodel.Job{Id: "test-2", FilePath: "/tmp/does-not-exist", OriginalName: "bad.txt"}

		time.Sleep(100 * time.Millisecond)

		final, found := jobStore.GetJob(context.Background(), "test-2")
		if !found {
			t.Fatal("job state was never saved")
		}
		if final.Status != jobmodel.JobStatusError {
			t.Errorf("final status = %s, want ERROR", final.Status)
		}
		if final.Error.Message == "" {
			t.Error("job error message should carry the per-file failure")
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 2)
	logger = logx.New("test_worker_pool")
	jobSvc := job.InitJobService(job.ServiceConfig{
		JobChannel: make(chan jobmodel.Job),
		JobStore:   &MockJobStore{},
	})
	InitServices(jobSvc, &MockIngestor{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	createWorker()
	time.Sleep(config.IdleWorkerTimeout)

	time.Sleep(100 * time.Millisecond)
	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Worker should have timed out and retired, but count is %d", count)
	}
}
