package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// Per-video artifacts live under DataDir:
//
//	<data>/audio/<id>.m4a        extracted audio
//	<data>/captions/<id>.xml     raw caption payload when present
//	<data>/transcripts/<id>.txt  full transcript text
//	<data>/segments/<id>.json    timestamped transcript segments

func AudioPath(videoID string) string {
	return filepath.Join(cfg.DataDir, "audio", videoID+".m4a")
}

func CaptionPath(videoID string) string {
	return filepath.Join(cfg.DataDir, "captions", videoID+".xml")
}

func TranscriptPath(videoID string) string {
	return filepath.Join(cfg.DataDir, "transcripts", videoID+".txt")
}

func SegmentsPath(videoID string) string {
	return filepath.Join(cfg.DataDir, "segments", videoID+".json")
}

// EnsureDataDirs creates the artifact directory tree.
func EnsureDataDirs() error {
	for _, sub := range []string{"audio", "captions", "transcripts", "segments"} {
		if err := os.MkdirAll(filepath.Join(cfg.DataDir, sub), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// ListArtifacts returns existing artifact paths for a video.
func ListArtifacts(videoID string) []string {
	var out []string
	for _, p := range []string{
		AudioPath(videoID),
		CaptionPath(videoID),
		TranscriptPath(videoID),
		SegmentsPath(videoID),
	} {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// RemoveArtifacts deletes all artifacts for a video. Missing files are
// not an error.
func RemoveArtifacts(videoID string) error {
	var first error
	for _, p := range ListArtifacts(videoID) {
		if err := os.Remove(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AllVideoIDs lists every video id that has at least one artifact.
func AllVideoIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, sub := range []string{"audio", "captions", "transcripts", "segments"} {
		entries, err := os.ReadDir(filepath.Join(cfg.DataDir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			if id != "" && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
