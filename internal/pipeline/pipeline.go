// Package pipeline orchestrates the video QA flow: acquisition,
// transcription, summarization, and vectorization run as one async job
// per video; answering runs synchronously against the built index.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
	"github.com/anatolykoptev/go_vidqa/internal/engine/rag"
	"github.com/anatolykoptev/go_vidqa/internal/engine/summarize"
	"github.com/anatolykoptev/go_vidqa/internal/engine/transcript"
	"github.com/anatolykoptev/go_vidqa/internal/engine/youtube"
)

// Acquirer downloads audio and captions for a video URL.
type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*engine.VideoRecord, error)
}

// TranscriptProducer turns an acquired video into a transcript.
type TranscriptProducer interface {
	Produce(ctx context.Context, record *engine.VideoRecord) (*transcript.Transcript, error)
}

// Summarizer produces the video summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string, style summarize.Style) (string, error)
}

// jobTimeout bounds one background processing run.
const jobTimeout = 30 * time.Minute

// Runner owns the processing pipeline and the QA surface.
type Runner struct {
	jobs       engine.JobStore
	acquirer   Acquirer
	producer   TranscriptProducer
	summarizer Summarizer
	chunker    *rag.Chunker
	index      rag.Index
	sessions   *rag.SessionStore
}

// NewRunner wires a Runner from its parts.
func NewRunner(jobs engine.JobStore, acquirer Acquirer, producer TranscriptProducer, summarizer Summarizer, chunker *rag.Chunker, index rag.Index, sessions *rag.SessionStore) *Runner {
	return &Runner{
		jobs:       jobs,
		acquirer:   acquirer,
		producer:   producer,
		summarizer: summarizer,
		chunker:    chunker,
		index:      index,
		sessions:   sessions,
	}
}

// StartProcessing validates the URL, registers a job, and processes
// the video in the background. A malformed URL fails fast without
// creating a job.
func (r *Runner) StartProcessing(rawURL string, style summarize.Style) (string, error) {
	if _, err := youtube.ExtractVideoID(rawURL); err != nil {
		return "", err
	}

	job := &engine.ProcessingJob{
		ID:        uuid.NewString(),
		URL:       rawURL,
		Status:    engine.JobProcessing,
		Stages:    engine.NewStageSet(),
		CreatedAt: time.Now(),
	}
	r.jobs.Put(job)

	go r.run(job.ID, rawURL, style)
	return job.ID, nil
}

// GetJob returns the current state of a job.
func (r *Runner) GetJob(id string) (*engine.ProcessingJob, bool) {
	return r.jobs.Get(id)
}

// ListJobs returns all known jobs.
func (r *Runner) ListJobs() []*engine.ProcessingJob {
	return r.jobs.List()
}

// run executes the four pipeline stages for one job.
func (r *Runner) run(jobID, rawURL string, style summarize.Style) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	slog.Info("processing started", slog.String("job", jobID), slog.String("url", rawURL))

	// Stage 1: download
	r.setStage(jobID, func(st *engine.StageSet) { st.Download = engine.StageInProgress })
	record, err := r.acquirer.Acquire(ctx, rawURL)
	if err != nil {
		r.fail(jobID, func(st *engine.StageSet) { st.Download = engine.StageFailed }, err)
		return
	}
	r.update(jobID, func(job *engine.ProcessingJob) {
		job.Stages.Download = engine.StageCompleted
		job.VideoID = record.VideoID
		job.Title = record.Title
		job.Duration = record.Duration
	})

	// Stage 2: transcription
	r.setStage(jobID, func(st *engine.StageSet) { st.Transcription = engine.StageInProgress })
	tr, err := r.producer.Produce(ctx, record)
	if err != nil {
		r.fail(jobID, func(st *engine.StageSet) { st.Transcription = engine.StageFailed }, err)
		return
	}
	r.writeTranscriptArtifacts(tr)
	r.setStage(jobID, func(st *engine.StageSet) { st.Transcription = engine.StageCompleted })

	// Stage 3: summarization. A summarizer failure degrades the
	// summary but never fails the job; the transcript is already
	// stored and QA must stay available.
	r.setStage(jobID, func(st *engine.StageSet) { st.Summarization = engine.StageInProgress })
	summary, err := r.summarizer.Summarize(ctx, tr.FullText, style)
	if err != nil {
		slog.Warn("summarization degraded",
			slog.String("job", jobID), slog.Any("err", err))
		summary = "Summary unavailable. " + humanizeError(err)
	}
	r.update(jobID, func(job *engine.ProcessingJob) {
		job.Stages.Summarization = engine.StageCompleted
		job.Summary = summary
	})

	// Stage 4: vectorization
	r.setStage(jobID, func(st *engine.StageSet) { st.Vectorization = engine.StageInProgress })
	chunks := r.chunker.Split(record.VideoID, tr.FullText)
	if err := r.index.Build(ctx, record.VideoID, chunks); err != nil {
		r.fail(jobID, func(st *engine.StageSet) { st.Vectorization = engine.StageFailed }, err)
		return
	}

	r.update(jobID, func(job *engine.ProcessingJob) {
		job.Stages.Vectorization = engine.StageCompleted
		job.Status = engine.JobCompleted
	})
	slog.Info("processing completed",
		slog.String("job", jobID),
		slog.String("video", record.VideoID),
		slog.Int("chunks", len(chunks)))
}

// writeTranscriptArtifacts persists the transcript text and segments.
// Failures here are logged, not fatal; the transcript lives on in the
// index either way.
func (r *Runner) writeTranscriptArtifacts(tr *transcript.Transcript) {
	if err := os.WriteFile(engine.TranscriptPath(tr.VideoID), []byte(tr.FullText), 0o644); err != nil {
		slog.Warn("transcript write failed", slog.String("id", tr.VideoID), slog.Any("err", err))
	}
	data, err := json.Marshal(tr.Segments)
	if err == nil {
		if err := os.WriteFile(engine.SegmentsPath(tr.VideoID), data, 0o644); err != nil {
			slog.Warn("segments write failed", slog.String("id", tr.VideoID), slog.Any("err", err))
		}
	}
}

func (r *Runner) update(jobID string, fn func(*engine.ProcessingJob)) {
	job, ok := r.jobs.Get(jobID)
	if !ok {
		return
	}
	fn(job)
	r.jobs.Put(job)
}

func (r *Runner) setStage(jobID string, fn func(*engine.StageSet)) {
	r.update(jobID, func(job *engine.ProcessingJob) { fn(&job.Stages) })
}

func (r *Runner) fail(jobID string, fn func(*engine.StageSet), err error) {
	slog.Error("processing failed", slog.String("job", jobID), slog.Any("err", err))
	r.update(jobID, func(job *engine.ProcessingJob) {
		fn(&job.Stages)
		job.Status = engine.JobFailed
		job.Error = humanizeError(err)
	})
}

// humanizeError converts pipeline errors into messages fit for the
// tool surface.
func humanizeError(err error) string {
	var acqErr *engine.AcquisitionError
	if errors.As(err, &acqErr) {
		switch acqErr.Cause {
		case engine.CausePrivate:
			return "This video is private and cannot be processed."
		case engine.CauseAgeRestricted:
			return "This video is age-restricted and cannot be processed."
		case engine.CauseUnavailable:
			return "This video is unavailable or has been removed."
		case engine.CauseRateLimited:
			return "The video source is rate-limiting downloads. Try again later."
		case engine.CauseAccessDenied:
			return "Access to this video was denied by the source."
		}
		return "The video could not be downloaded."
	}
	if errors.Is(err, engine.ErrInvalidIdentifier) {
		return "The URL does not contain a valid video id."
	}
	if errors.Is(err, engine.ErrSourceNotFound) {
		return "The downloaded audio is missing; processing cannot continue."
	}
	var genErr *engine.GenerationError
	if errors.As(err, &genErr) {
		return "The language model failed while generating the " + genErr.Op + "."
	}
	return err.Error()
}

// Ask answers a question about a processed video. Returns ErrNotReady
// when the video has no index yet, and rejects sessions bound to a
// different video.
func (r *Runner) Ask(ctx context.Context, videoID, question, sessionID string, threshold *float64, topK int) (*rag.Answer, error) {
	ok, err := r.index.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrNotReady, videoID)
	}

	if sessionID != "" {
		if sess, err := r.sessions.Get(sessionID); err == nil {
			if bound := sess.Metadata["video_id"]; bound != "" && bound != videoID {
				return nil, fmt.Errorf("session %s is bound to video %s, not %s", sessionID, bound, videoID)
			}
		}
	}

	handle, err := r.index.Load(ctx, videoID)
	if err != nil {
		return nil, err
	}

	retriever := rag.NewRetriever(handle, threshold, topK)
	gen := rag.GeneratorFunc(func(ctx context.Context, system, prompt string) (string, error) {
		return engine.CallLLM(ctx, system, prompt)
	})
	chain := rag.NewChain(videoID, retriever, r.sessions, gen, loadTranscript)
	return chain.Ask(ctx, question, sessionID), nil
}

// loadTranscript reads the stored transcript artifact for the
// retrieval fallback.
func loadTranscript(videoID string) (string, bool) {
	data, err := os.ReadFile(engine.TranscriptPath(videoID))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// Sessions exposes the session store for the tool surface.
func (r *Runner) Sessions() *rag.SessionStore {
	return r.sessions
}

// Cleanup removes one video's artifacts and index namespace.
func (r *Runner) Cleanup(ctx context.Context, videoID string) error {
	if err := r.index.Delete(ctx, videoID); err != nil {
		return fmt.Errorf("delete index namespace: %w", err)
	}
	if err := engine.RemoveArtifacts(videoID); err != nil {
		return fmt.Errorf("remove artifacts: %w", err)
	}
	slog.Info("cleaned up video", slog.String("id", videoID))
	return nil
}

// CleanupAll removes artifacts and indexes for every known video.
func (r *Runner) CleanupAll(ctx context.Context) (int, error) {
	ids := engine.AllVideoIDs()
	for _, id := range ids {
		if err := r.Cleanup(ctx, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
