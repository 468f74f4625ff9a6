package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	DataDir string // root directory for per-video artifacts

	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxTokens       int
	LLMContextTokens   int // context budget used by the summarizer

	OpenAIAPIKey   string // embeddings + whisper
	EmbeddingModel string
	WhisperModel   string

	YtdlpPath    string
	CaptionLangs []string

	ChunkSize      int
	ChunkOverlap   int
	RetrieveK      int
	ScoreThreshold float64
	AnswerTimeout  time.Duration

	DatabaseURL string // non-empty = pgvector index backend instead of SQLite

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch-page caption strategy disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (youtube, transcript, rag).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
