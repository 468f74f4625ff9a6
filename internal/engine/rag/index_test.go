package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// bagEmbedder is a deterministic bag-of-words embedder for tests:
// texts sharing words get similar vectors, identical texts identical ones.
type bagEmbedder struct{ dims int }

func (e bagEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			h.Write([]byte(word))
			v[h.Sum32()%uint32(e.dims)]++
		}
		var norm float64
		for _, f := range v {
			norm += float64(f) * float64(f)
		}
		if norm > 0 {
			scale := float32(1 / math.Sqrt(norm))
			for j := range v {
				v[j] *= scale
			}
		}
		out[i] = v
	}
	return out, nil
}

func newTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	x, err := OpenSQLiteIndex(filepath.Join(t.TempDir(), "index.db"), bagEmbedder{dims: 64})
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { x.Close() })
	return x
}

func testChunks(videoID string, texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			Content: text,
			Metadata: ChunkMetadata{
				VideoID:     videoID,
				ChunkIndex:  i,
				TotalChunks: len(texts),
			},
		}
	}
	return chunks
}

func TestIndexBuildAndQuery(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	const id = "dQw4w9WgXcQ"

	err := x.Build(ctx, id, testChunks(id,
		"the speaker introduces goroutines and channels",
		"a section about cooking pasta with tomato sauce",
		"closing remarks and viewer questions about goroutines",
	))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	h, err := x.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := h.Query(ctx, "goroutines and channels", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if !strings.Contains(got[0].Chunk.Content, "goroutines and channels") {
		t.Errorf("top result = %q", got[0].Chunk.Content)
	}
	if got[0].Score < got[1].Score {
		t.Error("results not ordered by score")
	}
	if got[0].Score <= 0 || got[0].Score > 1.0001 {
		t.Errorf("top score = %v, want (0, 1]", got[0].Score)
	}
	if got[0].Chunk.Metadata.VideoID != id {
		t.Errorf("metadata video id = %q", got[0].Chunk.Metadata.VideoID)
	}
}

func TestIndexLoadMissingNamespace(t *testing.T) {
	x := newTestIndex(t)
	_, err := x.Load(context.Background(), "unknownVid1")
	if !errors.Is(err, engine.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestIndexNamespaceIsolation(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()

	if err := x.Build(ctx, "videoAAAAAA", testChunks("videoAAAAAA", "alpha content here")); err != nil {
		t.Fatal(err)
	}
	if err := x.Build(ctx, "videoBBBBBB", testChunks("videoBBBBBB", "beta content there")); err != nil {
		t.Fatal(err)
	}

	h, err := x.Load(ctx, "videoAAAAAA")
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.Query(ctx, "content", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (own namespace only)", len(got))
	}
	if got[0].Chunk.Metadata.VideoID != "videoAAAAAA" {
		t.Errorf("leaked chunk from %q", got[0].Chunk.Metadata.VideoID)
	}
}

func TestIndexRebuildReplaces(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	const id = "dQw4w9WgXcQ"

	if err := x.Build(ctx, id, testChunks(id, "old content one", "old content two")); err != nil {
		t.Fatal(err)
	}
	if err := x.Build(ctx, id, testChunks(id, "new content")); err != nil {
		t.Fatal(err)
	}

	h, err := x.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.Query(ctx, "content", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results after rebuild, want 1", len(got))
	}
	if got[0].Chunk.Content != "new content" {
		t.Errorf("stale chunk survived rebuild: %q", got[0].Chunk.Content)
	}
}

func TestIndexDelete(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	const id = "dQw4w9WgXcQ"

	if err := x.Build(ctx, id, testChunks(id, "some content")); err != nil {
		t.Fatal(err)
	}
	if err := x.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := x.Exists(ctx, id); ok {
		t.Error("namespace exists after delete")
	}
	if _, err := x.Load(ctx, id); !errors.Is(err, engine.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound after delete, got %v", err)
	}
}

func TestIndexBuildEmpty(t *testing.T) {
	x := newTestIndex(t)
	if err := x.Build(context.Background(), "dQw4w9WgXcQ", nil); err == nil {
		t.Error("expected error for empty chunk set")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"dim mismatch", []float32{1}, []float32{1, 2}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.1, -2.5, 3.75, 0}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for misaligned blob")
	}
}
