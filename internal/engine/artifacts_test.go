package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactLifecycle(t *testing.T) {
	Init(Config{DataDir: t.TempDir()})
	t.Cleanup(func() { Init(Config{}) })

	if err := EnsureDataDirs(); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}

	const id = "dQw4w9WgXcQ"
	if err := os.WriteFile(AudioPath(id), []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(TranscriptPath(id), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := ListArtifacts(id)
	if len(got) != 2 {
		t.Fatalf("ListArtifacts = %v, want 2 entries", got)
	}

	ids := AllVideoIDs()
	if len(ids) != 1 || ids[0] != id {
		t.Errorf("AllVideoIDs = %v", ids)
	}

	if err := RemoveArtifacts(id); err != nil {
		t.Fatalf("RemoveArtifacts: %v", err)
	}
	if got := ListArtifacts(id); len(got) != 0 {
		t.Errorf("artifacts remain after removal: %v", got)
	}
	if err := RemoveArtifacts(id); err != nil {
		t.Errorf("second removal should be a no-op, got %v", err)
	}
}

func TestArtifactPaths(t *testing.T) {
	Init(Config{DataDir: "/data"})
	t.Cleanup(func() { Init(Config{}) })

	if got := AudioPath("abc123def45"); got != filepath.Join("/data", "audio", "abc123def45.m4a") {
		t.Errorf("AudioPath = %q", got)
	}
	if got := SegmentsPath("abc123def45"); got != filepath.Join("/data", "segments", "abc123def45.json") {
		t.Errorf("SegmentsPath = %q", got)
	}
}
