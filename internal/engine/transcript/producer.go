package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// STT is the speech recognition backend.
type STT interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

// Producer turns an acquired video into a transcript. Captions win
// when present; speech recognition covers the rest.
type Producer struct {
	stt STT
}

func NewProducer(stt STT) *Producer {
	return &Producer{stt: stt}
}

// Produce builds the transcript for a video record.
func (p *Producer) Produce(ctx context.Context, record *engine.VideoRecord) (*Transcript, error) {
	engine.IncrTranscript()

	if record.SubtitlePath != "" {
		t, err := p.fromCaptions(record)
		if err == nil {
			return t, nil
		}
		slog.Warn("caption parse failed, falling back to speech recognition",
			slog.String("id", record.VideoID), slog.Any("err", err))
	}

	if _, err := os.Stat(record.AudioPath); err != nil {
		return nil, fmt.Errorf("%w: %s", engine.ErrSourceNotFound, record.AudioPath)
	}

	t, err := p.stt.Transcribe(ctx, record.AudioPath)
	if err != nil {
		return nil, err
	}
	t.VideoID = record.VideoID
	return t, nil
}

// fromCaptions parses the stored caption artifact. The downloader
// stores raw timedtext XML, but yt-dlp written subtitle files in SRT
// or VTT form are accepted too.
func (p *Producer) fromCaptions(record *engine.VideoRecord) (*Transcript, error) {
	data, err := os.ReadFile(record.SubtitlePath)
	if err != nil {
		return nil, err
	}

	var segs []Segment
	switch strings.ToLower(filepath.Ext(record.SubtitlePath)) {
	case ".srt":
		segs, err = ParseSRT(data)
	case ".vtt":
		segs, err = ParseVTT(data)
	default:
		segs, err = ParseTimedText(data)
	}
	if err != nil {
		return nil, err
	}

	return &Transcript{
		VideoID:  record.VideoID,
		FullText: joinSegments(segs),
		Segments: segs,
		Source:   SourceCaptions,
	}, nil
}
