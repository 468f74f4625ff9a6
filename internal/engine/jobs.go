package engine

import (
	"sync"
	"time"
)

// JobStatus is the overall state of a processing job.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// StageStatus is the state of a single pipeline stage.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// StageSet tracks per-stage progress of a job.
type StageSet struct {
	Download      StageStatus `json:"download"`
	Transcription StageStatus `json:"transcription"`
	Summarization StageStatus `json:"summarization"`
	Vectorization StageStatus `json:"vectorization"`
}

// NewStageSet returns all stages pending.
func NewStageSet() StageSet {
	return StageSet{
		Download:      StagePending,
		Transcription: StagePending,
		Summarization: StagePending,
		Vectorization: StagePending,
	}
}

// ProcessingJob is the full state of one video processing request.
type ProcessingJob struct {
	ID        string    `json:"job_id"`
	URL       string    `json:"url"`
	Status    JobStatus `json:"status"`
	Stages    StageSet  `json:"stages"`
	VideoID   string    `json:"video_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobStore persists processing jobs.
type JobStore interface {
	Put(job *ProcessingJob)
	Get(id string) (*ProcessingJob, bool)
	List() []*ProcessingJob
	Delete(id string)
}

// MemJobStore is an in-memory JobStore. Jobs do not survive restarts;
// a restarted server simply re-processes on demand.
type MemJobStore struct {
	mu   sync.RWMutex
	jobs map[string]ProcessingJob
}

func NewMemJobStore() *MemJobStore {
	return &MemJobStore{jobs: make(map[string]ProcessingJob)}
}

func (s *MemJobStore) Put(job *ProcessingJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.UpdatedAt = time.Now()
	s.jobs[job.ID] = *job
}

// Get returns a copy; callers mutate freely and Put back.
func (s *MemJobStore) Get(id string) (*ProcessingJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	out := job
	return &out, true
}

func (s *MemJobStore) List() []*ProcessingJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ProcessingJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		j := job
		out = append(out, &j)
	}
	return out
}

func (s *MemJobStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
}
