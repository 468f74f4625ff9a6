// go_vidqa — YouTube video question-answering MCP server.
//
// Pipeline per video: download audio and captions, build the
// transcript (captions first, speech recognition fallback), summarize
// it, and index the chunks for retrieval-augmented QA.
//
// Exposes MCP tools: process_video, video_status, video_summary,
// ask_video, sessions_list, session_clear, session_delete, cleanup.
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
	"github.com/anatolykoptev/go_vidqa/internal/engine/rag"
	"github.com/anatolykoptev/go_vidqa/internal/engine/summarize"
	"github.com/anatolykoptev/go_vidqa/internal/engine/transcript"
	"github.com/anatolykoptev/go_vidqa/internal/engine/youtube"
	"github.com/anatolykoptev/go_vidqa/internal/pipeline"
	"github.com/anatolykoptev/go_vidqa/internal/vidserver"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	runner, err := initEngine()
	if err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_vidqa",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_vidqa",
		Version: version,
	}, nil)

	vidserver.RegisterTools(server, runner)
	slog.Info("tools registered", slog.Int("count", 8))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_vidqa",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() (*pipeline.Runner, error) {
	c := engine.Config{
		DataDir:              env.Str("DATA_DIR", filepath.Join(os.Getenv("HOME"), ".go_vidqa")),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.2),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 16384),
		LLMContextTokens:     env.Int("LLM_CONTEXT_TOKENS", 131072),
		OpenAIAPIKey:         env.Str("OPENAI_API_KEY", ""),
		EmbeddingModel:       env.Str("EMBEDDING_MODEL", "text-embedding-3-small"),
		WhisperModel:         env.Str("WHISPER_MODEL", "whisper-1"),
		YtdlpPath:            env.Str("YTDLP_PATH", "yt-dlp"),
		CaptionLangs:         env.List("CAPTION_LANGS", "en"),
		ChunkSize:            env.Int("CHUNK_SIZE", 800),
		ChunkOverlap:         env.Int("CHUNK_OVERLAP", 100),
		RetrieveK:            env.Int("RETRIEVE_K", 4),
		ScoreThreshold:       env.Float("RAG_SCORE_THRESHOLD", 0.3),
		AnswerTimeout:        env.Duration("ANSWER_TIMEOUT", 60*time.Second),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := engine.NewBrowserClient()
	if err != nil {
		slog.Warn("browser client init failed, watch-page captions disabled", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("browser client initialized")
	}

	engine.Init(c)

	if err := engine.EnsureDataDirs(); err != nil {
		return nil, err
	}
	if err := engine.InitLLM(); err != nil {
		return nil, err
	}
	engine.InitCache(env.Str("REDIS_URL", ""))

	embedder := rag.NewOpenAIEmbedder()
	var index rag.Index
	if c.DatabaseURL != "" {
		index, err = rag.ConnectPGIndex(context.Background(), c.DatabaseURL, embedder, env.Int("EMBEDDING_DIMS", 1536))
		if err != nil {
			return nil, err
		}
		slog.Info("vector index: pgvector")
	} else {
		index, err = rag.OpenSQLiteIndex(filepath.Join(c.DataDir, "index.db"), embedder)
		if err != nil {
			return nil, err
		}
		slog.Info("vector index: sqlite", slog.String("path", filepath.Join(c.DataDir, "index.db")))
	}

	if youtube.ConstrainedEnvironment() {
		slog.Info("constrained environment detected, strict download pacing enabled")
	}

	return pipeline.NewRunner(
		engine.NewMemJobStore(),
		youtube.NewDownloader(),
		transcript.NewProducer(transcript.NewWhisper()),
		summarize.NewSummarizer(),
		rag.NewChunker(),
		index,
		rag.NewSessionStore(),
	), nil
}
