package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igsource/pkg/logger"
	"igsource/pkg/nodes"
)

// Job asks for the assets of one content node to be localized
type Job struct {
	Node *nodes.ContentNode
}

// Result is the outcome of a Job. Skipped is set when the pool was
// cancelled before the job started.
type Result struct {
	Job      Job
	File     *nodes.FileNode
	Error    error
	Skipped  bool
	Duration time.Duration
}

// Handler performs a job. It receives the caller's context, not the pool's,
// so cancelling the pool never interrupts a job that already started.
type Handler func(ctx context.Context, node *nodes.ContentNode) (*nodes.FileNode, error)

// WorkerPool runs localization jobs on a fixed number of workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	parent      context.Context
	ctx         context.Context
	cancel      context.CancelFunc
	handler     Handler
	logger      logger.Logger
	stopOnce    sync.Once
}

// NewWorkerPool creates a pool whose jobs run with ctx
func NewWorkerPool(ctx context.Context, numWorkers int, handler Handler, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		parent:      ctx,
		ctx:         poolCtx,
		cancel:      cancel,
		handler:     handler,
		logger:      log,
	}
}

// Start starts all workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the job queue, waits for the workers and closes the result
// channel. Safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
		wp.logger.Debug("Worker pool stopped")
	})
}

// Cancel makes workers skip every job that has not started yet. Jobs
// already running finish normally.
func (wp *WorkerPool) Cancel() {
	wp.cancel()
}

// Submit queues a job
func (wp *WorkerPool) Submit(job Job) error {
	if job.Node == nil {
		return fmt.Errorf("submit: job has no node")
	}
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
	}

	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results returns the result channel. It must be drained until closed.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		if wp.ctx.Err() != nil {
			wp.resultQueue <- Result{Job: job, Skipped: true, Error: wp.ctx.Err()}
			continue
		}
		wp.resultQueue <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()

	wp.logger.DebugWithFields("Worker processing job", map[string]interface{}{
		"worker_id": workerID,
		"node_id":   job.Node.ID,
	})

	file, err := wp.handler(wp.parent, job.Node)
	result := Result{
		Job:      job,
		File:     file,
		Error:    err,
		Duration: time.Since(start),
	}

	if err != nil {
		wp.logger.ErrorWithFields("Worker job failed", map[string]interface{}{
			"worker_id": workerID,
			"node_id":   job.Node.ID,
			"error":     err.Error(),
			"duration":  result.Duration,
		})
	}

	return result
}

// GetActiveWorkers returns the number of workers
func (wp *WorkerPool) GetActiveWorkers() int {
	return wp.numWorkers
}
