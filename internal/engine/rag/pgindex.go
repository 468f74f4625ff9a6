package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// PGIndex stores embeddings in Postgres with the pgvector extension.
// Preferred when DATABASE_URL is set: similarity runs in the database
// and the index survives host changes.
type PGIndex struct {
	pool     *pgxpool.Pool
	embedder Embedder
	dims     int
}

// ConnectPGIndex creates a pgx pool, ensures the pgvector extension and
// schema, and returns the index. dims must match the embedding model.
func ConnectPGIndex(ctx context.Context, databaseURL string, embedder Embedder, dims int) (*PGIndex, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if dims <= 0 {
		dims = 1536
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	x := &PGIndex{pool: pool, embedder: embedder, dims: dims}
	if err := x.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	slog.Info("pgvector index connected", slog.String("addr", config.ConnConfig.Host))
	return x, nil
}

func (x *PGIndex) migrate(ctx context.Context) error {
	if _, err := x.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return err
	}
	_, err := x.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rag_chunks (
		namespace    TEXT NOT NULL,
		chunk_index  INTEGER NOT NULL,
		total_chunks INTEGER NOT NULL,
		content      TEXT NOT NULL,
		embedding    vector(%d) NOT NULL,
		PRIMARY KEY (namespace, chunk_index)
	)`, x.dims))
	return err
}

func (x *PGIndex) Close() error {
	x.pool.Close()
	return nil
}

func (x *PGIndex) Build(ctx context.Context, videoID string, chunks []Chunk) error {
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
	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM rag_chunks WHERE namespace = $1`, ns); err != nil {
		return err
	}
	for i, c := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO rag_chunks (namespace, chunk_index, total_chunks, content, embedding) VALUES ($1, $2, $3, $4, $5)`,
			ns, c.Metadata.ChunkIndex, c.Metadata.TotalChunks, c.Content, pgvector.NewVector(vectors[i])); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	slog.Info("index built", slog.String("namespace", ns), slog.Int("chunks", len(chunks)))
	return nil
}

func (x *PGIndex) Exists(ctx context.Context, videoID string) (bool, error) {
	var n int
	err := x.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM rag_chunks WHERE namespace = $1`, namespace(videoID)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (x *PGIndex) Load(ctx context.Context, videoID string) (Handle, error) {
	ok, err := x.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrIndexNotFound, videoID)
	}
	return &pgHandle{index: x, videoID: videoID}, nil
}

func (x *PGIndex) Delete(ctx context.Context, videoID string) error {
	_, err := x.pool.Exec(ctx,
		`DELETE FROM rag_chunks WHERE namespace = $1`, namespace(videoID))
	return err
}

type pgHandle struct {
	index   *PGIndex
	videoID string
}

// Query runs cosine-distance retrieval in the database. The <=>
// operator returns distance; score is 1 - distance.
func (h *pgHandle) Query(ctx context.Context, text string, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	vectors, err := h.index.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := pgvector.NewVector(vectors[0])

	rows, err := h.index.pool.Query(ctx,
		`SELECT chunk_index, total_chunks, content, 1 - (embedding <=> $1) AS score
		 FROM rag_chunks WHERE namespace = $2
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		query, namespace(h.videoID), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scored []ScoredChunk
	for rows.Next() {
		var (
			idx, total int
			content    string
			score      float64
		)
		if err := rows.Scan(&idx, &total, &content, &score); err != nil {
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
			Score: score,
		})
	}
	return scored, rows.Err()
}
