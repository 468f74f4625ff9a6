package engine

import (
	"testing"
	"time"
)

func TestMemJobStorePutGet(t *testing.T) {
	s := NewMemJobStore()
	job := &ProcessingJob{
		ID:        "j1",
		URL:       "https://youtu.be/dQw4w9WgXcQ",
		Status:    JobProcessing,
		Stages:    NewStageSet(),
		CreatedAt: time.Now(),
	}
	s.Put(job)

	got, ok := s.Get("j1")
	if !ok {
		t.Fatal("expected job")
	}
	if got.Status != JobProcessing {
		t.Errorf("status = %q", got.Status)
	}
	if got.Stages.Download != StagePending {
		t.Errorf("download stage = %q", got.Stages.Download)
	}
}

func TestMemJobStoreGetReturnsCopy(t *testing.T) {
	s := NewMemJobStore()
	s.Put(&ProcessingJob{ID: "j1", Status: JobProcessing, Stages: NewStageSet()})

	got, _ := s.Get("j1")
	got.Status = JobFailed
	got.Stages.Download = StageFailed

	again, _ := s.Get("j1")
	if again.Status != JobProcessing {
		t.Error("mutation through returned pointer leaked into store")
	}
	if again.Stages.Download != StagePending {
		t.Error("stage mutation leaked into store")
	}
}

func TestMemJobStoreListAndDelete(t *testing.T) {
	s := NewMemJobStore()
	s.Put(&ProcessingJob{ID: "a"})
	s.Put(&ProcessingJob{ID: "b"})
	if n := len(s.List()); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Error("deleted job still present")
	}
	if n := len(s.List()); n != 1 {
		t.Errorf("len after delete = %d, want 1", n)
	}
}

func TestMemJobStoreGetMissing(t *testing.T) {
	s := NewMemJobStore()
	if _, ok := s.Get("nope"); ok {
		t.Error("expected miss")
	}
}
