package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Whisper transcribes audio through the OpenAI transcription API.
// The client is built lazily; most videos ship captions and never
// touch this path.
type Whisper struct {
	once   sync.Once
	client *openai.Client
	err    error
}

func NewWhisper() *Whisper {
	return &Whisper{}
}

func (w *Whisper) init() {
	if engine.Cfg.OpenAIAPIKey == "" {
		w.err = errors.New("OPENAI_API_KEY not configured, speech recognition unavailable")
		return
	}
	w.client = openai.NewClient(engine.Cfg.OpenAIAPIKey)
}

// Transcribe runs speech recognition over an audio file and returns a
// timestamped transcript.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	w.once.Do(w.init)
	if w.err != nil {
		return nil, w.err
	}
	engine.IncrWhisper()

	model := engine.Cfg.WhisperModel
	if model == "" {
		model = openai.Whisper1
	}

	resp, err := engine.RetryDo(ctx, engine.DefaultRetryConfig, func() (openai.AudioResponse, error) {
		return w.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    model,
			FilePath: audioPath,
			Format:   openai.AudioResponseFormatVerboseJSON,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription: %w", err)
	}

	segs := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		text := engine.CollapseWhitespace(s.Text)
		if text == "" {
			continue
		}
		segs = append(segs, Segment{Text: text, Start: s.Start, End: s.End})
	}

	full := resp.Text
	if full == "" {
		full = joinSegments(segs)
	}
	if full == "" {
		return nil, errors.New("whisper returned empty transcript")
	}

	slog.Info("speech recognition done",
		slog.String("audio", audioPath),
		slog.Int("segments", len(segs)))

	return &Transcript{FullText: full, Segments: segs, Source: SourceSpeech}, nil
}
