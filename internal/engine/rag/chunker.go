package rag

import (
	"strings"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// ChunkMetadata ties a chunk back to its video and position.
type ChunkMetadata struct {
	VideoID     string `json:"video_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// Chunk is one piece of transcript text destined for the vector index.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// separators are tried in order when splitting: paragraph break,
// line break, sentence end, word boundary, and finally hard cut.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunker splits transcript text into overlapping chunks. Splitting is
// deterministic: the same text always yields the same chunks.
type Chunker struct {
	Size    int // max chunk length in chars
	Overlap int // chars shared between neighbors
}

// NewChunker builds a Chunker from engine config with safe defaults.
func NewChunker() *Chunker {
	size := engine.Cfg.ChunkSize
	if size <= 0 {
		size = 800
	}
	overlap := engine.Cfg.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = 100
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split chunks text for one video and stamps each chunk's metadata.
func (c *Chunker) Split(videoID, text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	pieces := c.split(text, separators)
	merged := c.merge(pieces)

	chunks := make([]Chunk, len(merged))
	for i, content := range merged {
		chunks[i] = Chunk{
			Content: content,
			Metadata: ChunkMetadata{
				VideoID:     videoID,
				ChunkIndex:  i,
				TotalChunks: len(merged),
			},
		}
	}
	return chunks
}

// split recursively divides text using the separator hierarchy,
// keeping each piece at or under Size.
func (c *Chunker) split(text string, seps []string) []string {
	if len(text) <= c.Size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	sep := seps[0]
	rest := seps[1:]

	if sep == "" {
		// hard cut
		var out []string
		for start := 0; start < len(text); start += c.Size {
			end := start + c.Size
			if end > len(text) {
				end = len(text)
			}
			out = append(out, text[start:end])
		}
		return out
	}

	parts := strings.SplitAfter(text, sep)
	if len(parts) == 1 {
		return c.split(text, rest)
	}

	var out []string
	for _, part := range parts {
		if len(part) > c.Size {
			out = append(out, c.split(part, rest)...)
		} else if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// merge packs split pieces into chunks of at most Size, carrying up
// to Overlap chars of trailing context into each next chunk. The
// carry shrinks when a near-full-size piece follows, so the Size
// bound always holds.
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(cur.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
	}

	for _, piece := range pieces {
		if cur.Len()+len(piece) > c.Size && cur.Len() > 0 {
			carry := tail(cur.String(), min(c.Overlap, c.Size-len(piece)))
			flush()
			cur.WriteString(carry)
		}
		cur.WriteString(piece)
	}
	flush()
	return chunks
}

// tail returns the last n chars of s, extended left to a word boundary.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	t := s[len(s)-n:]
	if i := strings.IndexByte(t, ' '); i >= 0 && i < len(t)-1 {
		t = t[i+1:]
	}
	return t
}
