package rag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// ScoredChunk is a retrieved chunk with its similarity score in [0, 1].
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Handle queries one video's namespace.
type Handle interface {
	Query(ctx context.Context, text string, k int) ([]ScoredChunk, error)
}

// Index stores and retrieves per-video chunk embeddings. Each video
// lives in its own namespace; Build replaces the namespace atomically.
type Index interface {
	Build(ctx context.Context, videoID string, chunks []Chunk) error
	Load(ctx context.Context, videoID string) (Handle, error)
	Exists(ctx context.Context, videoID string) (bool, error)
	Delete(ctx context.Context, videoID string) error
	Close() error
}

// namespace scopes a video's rows in the shared chunk table.
func namespace(videoID string) string {
	return "video_" + videoID
}

// SQLiteIndex keeps embeddings in a local SQLite file. Vectors are
// float32 little-endian BLOBs; similarity is computed in-process,
// which is plenty for per-video scale.
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder
}

// OpenSQLiteIndex opens (or creates) the index database.
func OpenSQLiteIndex(path string, embedder Embedder) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS rag_chunks (
		namespace    TEXT NOT NULL,
		chunk_index  INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		content      TEXT NOT NULL,
		embedding    BLOB NOT NULL,
		PRIMARY KEY (namespace, chunk_index)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &SQLiteIndex{db: db, embedder: embedder}, nil
}

func (x *SQLiteIndex) Close() error { return x.db.Close() }

// Build embeds chunks and replaces the video's namespace in one
// transaction, so a failed rebuild never leaves a half-written index.
func (x *SQLiteIndex) Build(ctx context.Context, videoID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return errors.New("no chunks to index")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	ns := namespace(videoID)
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_chunks WHERE namespace = ?`, ns); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rag_chunks (namespace, chunk_index, total_chunks, content, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, ns, c.Metadata.ChunkIndex, c.Metadata.TotalChunks, c.Content, encodeVector(vectors[i])); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("index built", slog.String("namespace", ns), slog.Int("chunks", len(chunks)))
	return nil
}

func (x *SQLiteIndex) Exists(ctx context.Context, videoID string) (bool, error) {
	var n int
	err := x.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rag_chunks WHERE namespace = ?`, namespace(videoID)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (x *SQLiteIndex) Load(ctx context.Context, videoID string) (Handle, error) {
	ok, err := x.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrIndexNotFound, videoID)
	}
	return &sqliteHandle{index: x, videoID: videoID}, nil
}

func (x *SQLiteIndex) Delete(ctx context.Context, videoID string) error {
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM rag_chunks WHERE namespace = ?`, namespace(videoID))
	return err
}

type sqliteHandle struct {
	index   *SQLiteIndex
	videoID string
}

// Query embeds the question and scores it against every chunk in the
// namespace, returning the top k by cosine similarity.
func (h *sqliteHandle) Query(ctx context.Context, text string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vectors, err := h.index.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := vectors[0]

	rows, err := h.index.db.QueryContext(ctx,
		`SELECT chunk_index, total_chunks, content, embedding FROM rag_chunks WHERE namespace = ?`,
		namespace(h.videoID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []ScoredChunk
	for rows.Next() {
		var (
			idx, total int
			content    string
			blob       []byte
		)
		if err := rows.Scan(&idx, &total, &content, &blob); err != nil {
			return nil, err
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ScoredChunk{
			Chunk: Chunk{
				Content: content,
				Metadata: ChunkMetadata{
					VideoID:     h.videoID,
					ChunkIndex:  idx,
					TotalChunks: total,
				},
			},
			Score: cosineSimilarity(query, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
