package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guiyumin/sharetext/internal/core/ai"
	"github.com/guiyumin/sharetext/internal/core/extractor"
	"github.com/guiyumin/sharetext/internal/core/sharetext"
)

// JobStatus represents the current state of a text job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Job is one asynchronous text extraction
type Job struct {
	ID        string                `json:"id"`
	ShareText string                `json:"text"`
	Status    JobStatus             `json:"status"`
	Stage     string                `json:"stage"`
	Result    *sharetext.TextResult `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
	ErrorKind extractor.Kind        `json:"error_kind,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`

	req    sharetext.TextRequest
	cancel context.CancelFunc
	ctx    context.Context
}

func (j *Job) finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// TextFunc runs one extraction; it is sharetext.Service.ExtractText in production
type TextFunc func(ctx context.Context, req sharetext.TextRequest) (*sharetext.TextResult, error)

// JobQueue runs text jobs on a fixed pool of workers
type JobQueue struct {
	jobs          map[string]*Job
	mu            sync.RWMutex
	queue         chan *Job
	maxConcurrent int
	textFn        TextFunc
	wg            sync.WaitGroup
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopped       bool // guarded by mu; queue is closed once set
}

// ErrQueueStopped is returned by AddJob after Stop
var ErrQueueStopped = errors.New("job queue is stopped")

// NewJobQueue creates a queue with maxConcurrent workers
func NewJobQueue(maxConcurrent int, textFn TextFunc) *JobQueue {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &JobQueue{
		jobs:          make(map[string]*Job),
		queue:         make(chan *Job, 100),
		maxConcurrent: maxConcurrent,
		textFn:        textFn,
		stopCleanup:   make(chan struct{}),
	}
}

// Start begins the worker pool and cleanup routine
func (jq *JobQueue) Start() {
	for i := 0; i < jq.maxConcurrent; i++ {
		jq.wg.Add(1)
		go jq.worker()
	}

	// Every 10 minutes, drop finished jobs older than 1 hour
	jq.cleanupTicker = time.NewTicker(10 * time.Minute)
	go jq.cleanupLoop()
}

// Stop cancels pending work and waits for the workers to exit
func (jq *JobQueue) Stop() {
	jq.mu.Lock()
	if jq.stopped {
		jq.mu.Unlock()
		return
	}
	jq.stopped = true
	for _, job := range jq.jobs {
		if !job.finished() {
			job.cancel()
		}
	}
	close(jq.queue)
	jq.mu.Unlock()

	close(jq.stopCleanup)
	if jq.cleanupTicker != nil {
		jq.cleanupTicker.Stop()
	}
	jq.wg.Wait()
}

func (jq *JobQueue) worker() {
	defer jq.wg.Done()

	for job := range jq.queue {
		jq.processJob(job)
	}
}

func (jq *JobQueue) processJob(job *Job) {
	if job.ctx.Err() != nil {
		return
	}
	jq.update(job.ID, func(j *Job) { j.Status = JobStatusRunning })

	req := job.req
	req.OnStage = func(s ai.Stage) {
		jq.update(job.ID, func(j *Job) { j.Stage = s.String() })
	}

	result, err := jq.textFn(job.ctx, req)
	if err != nil {
		jq.update(job.ID, func(j *Job) {
			if errors.Is(job.ctx.Err(), context.Canceled) {
				j.Status = JobStatusCancelled
				j.Error = "cancelled by user"
				return
			}
			j.Status = JobStatusFailed
			j.Error = err.Error()
			j.ErrorKind = extractor.KindOf(err)
		})
		return
	}

	jq.update(job.ID, func(j *Job) {
		j.Status = JobStatusCompleted
		j.Result = result
	})
}

func (jq *JobQueue) cleanupLoop() {
	for {
		select {
		case <-jq.cleanupTicker.C:
			jq.cleanupOldJobs(time.Now().Add(-1 * time.Hour))
		case <-jq.stopCleanup:
			return
		}
	}
}

func (jq *JobQueue) cleanupOldJobs(cutoff time.Time) int {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	count := 0
	for id, job := range jq.jobs {
		if job.finished() && job.UpdatedAt.Before(cutoff) {
			delete(jq.jobs, id)
			count++
		}
	}
	return count
}

// ClearHistory removes all finished jobs
func (jq *JobQueue) ClearHistory() int {
	return jq.cleanupOldJobs(time.Now().Add(time.Second))
}

// RemoveJob removes a single finished job by ID
func (jq *JobQueue) RemoveJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, ok := jq.jobs[id]
	if !ok || !job.finished() {
		return false
	}
	delete(jq.jobs, id)
	return true
}

// AddJob queues req and returns a snapshot of the new job
func (jq *JobQueue) AddJob(req sharetext.TextRequest) (*Job, error) {
	ctx, cancel := context.WithCancel(context.Background())

	now := time.Now()
	job := &Job{
		ID:        uuid.New().String(),
		ShareText: req.ShareText,
		Status:    JobStatusQueued,
		Stage:     ai.StageIdle.String(),
		CreatedAt: now,
		UpdatedAt: now,
		req:       req,
		ctx:       ctx,
		cancel:    cancel,
	}

	jq.mu.Lock()
	defer jq.mu.Unlock()

	if jq.stopped {
		cancel()
		return nil, ErrQueueStopped
	}

	// non-blocking send under mu; Stop closes the queue under mu
	select {
	case jq.queue <- job:
		jq.jobs[job.ID] = job
		snapshot := *job
		return &snapshot, nil
	default:
		cancel()
		return nil, fmt.Errorf("job queue is full")
	}
}

// GetJob returns a copy of a job by ID
func (jq *JobQueue) GetJob(id string) *Job {
	jq.mu.RLock()
	defer jq.mu.RUnlock()

	if job, ok := jq.jobs[id]; ok {
		jobCopy := *job
		return &jobCopy
	}
	return nil
}

// GetAllJobs returns copies of all jobs, newest first
func (jq *JobQueue) GetAllJobs() []*Job {
	jq.mu.RLock()
	jobs := make([]*Job, 0, len(jq.jobs))
	for _, job := range jq.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	jq.mu.RUnlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	return jobs
}

// CancelJob cancels a queued or running job
func (jq *JobQueue) CancelJob(id string) bool {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	job, ok := jq.jobs[id]
	if !ok || job.finished() {
		return false
	}

	job.cancel()
	job.Status = JobStatusCancelled
	job.Error = "cancelled by user"
	job.UpdatedAt = time.Now()
	return true
}

func (jq *JobQueue) update(id string, fn func(*Job)) {
	jq.mu.Lock()
	defer jq.mu.Unlock()

	if job, ok := jq.jobs[id]; ok {
		if job.Status == JobStatusCancelled {
			return
		}
		fn(job)
		job.UpdatedAt = time.Now()
	}
}
