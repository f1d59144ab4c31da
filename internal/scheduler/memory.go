package scheduler

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-pagelayout/pkg/interfaces"
	"github.com/google/uuid"
)

const defaultMaxAttempts = 3

// NewInMemory creates the in-process scheduler used by the translation worker.
// Job keys are unique: enqueueing an existing key replaces the pending job, so
// rapid layout saves collapse into one pending fan-out per page.
func NewInMemory(opts ...Option) interfaces.Scheduler {
	mem := &memoryScheduler{
		now:         time.Now,
		id:          func() string { return uuid.NewString() },
		jobs:        make(map[string]*interfaces.Job),
		keyIndex:    make(map[string]string),
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(mem)
	}
	return mem
}

// Option customizes the in-memory scheduler.
type Option func(*memoryScheduler)

// WithClock overrides the internal clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *memoryScheduler) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the ID generator used when enqueuing jobs.
func WithIDGenerator(generator func() string) Option {
	return func(s *memoryScheduler) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithDefaultMaxAttempts overrides the retry limit applied when a job spec
// leaves MaxAttempts unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(s *memoryScheduler) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

type memoryScheduler struct {
	mu          sync.Mutex
	now         func() time.Time
	id          func() string
	maxAttempts int
	jobs        map[string]*interfaces.Job
	keyIndex    map[string]string
}

func (s *memoryScheduler) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, errors.New("scheduler: run_at is required")
	}

	job := &interfaces.Job{
		JobSpec: interfaces.JobSpec{
			Key:         spec.Key,
			Type:        spec.Type,
			RunAt:       spec.RunAt,
			Payload:     maps.Clone(spec.Payload),
			MaxAttempts: spec.MaxAttempts,
		},
	}
	if job.MaxAttempts == 0 {
		job.MaxAttempts = s.maxAttempts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Key != "" {
		if previousID, ok := s.keyIndex[job.Key]; ok {
			delete(s.jobs, previousID)
		}
	}

	now := s.now()
	job.ID = s.id()
	job.Status = interfaces.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	s.jobs[job.ID] = job
	if job.Key != "" {
		s.keyIndex[job.Key] = job.ID
	}
	return cloneJob(job), nil
}

func (s *memoryScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(s.jobs[id])
}

func (s *memoryScheduler) CancelByKey(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(s.jobs[s.keyIndex[key]])
}

func (s *memoryScheduler) cancelLocked(job *interfaces.Job) error {
	if job == nil {
		return interfaces.ErrJobNotFound
	}
	job.Status = interfaces.JobStatusCanceled
	job.UpdatedAt = s.now()
	if job.Key != "" {
		delete(s.keyIndex, job.Key)
	}
	return nil
}

func (s *memoryScheduler) Get(_ context.Context, id string) (*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *memoryScheduler) GetByKey(_ context.Context, key string) (*interfaces.Job, error) {
	if key == "" {
		return nil, interfaces.ErrJobNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[s.keyIndex[key]]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *memoryScheduler) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*interfaces.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Status != interfaces.JobStatusPending || job.RunAt.After(until) {
			continue
		}
		due = append(due, cloneJob(job))
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].RunAt.Equal(due[j].RunAt) {
			return due[i].CreatedAt.Before(due[j].CreatedAt)
		}
		return due[i].RunAt.Before(due[j].RunAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *memoryScheduler) MarkDone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Status = interfaces.JobStatusCompleted
	job.UpdatedAt = s.now()
	if job.Key != "" {
		delete(s.keyIndex, job.Key)
	}
	return nil
}

func (s *memoryScheduler) MarkFailed(_ context.Context, id string, failure error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	job.Attempt++
	job.UpdatedAt = s.now()
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		job.Status = interfaces.JobStatusFailed
		if job.Key != "" {
			delete(s.keyIndex, job.Key)
		}
		return nil
	}
	job.Status = interfaces.JobStatusPending
	return nil
}

func cloneJob(job *interfaces.Job) *interfaces.Job {
	if job == nil {
		return nil
	}
	clone := *job
	clone.Payload = maps.Clone(job.Payload)
	return &clone
}
