package transcript

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Source identifies where transcript text came from.
type Source string

const (
	SourceCaptions Source = "captions"
	SourceSpeech   Source = "speech_recognition"
)

// Segment is one timestamped piece of transcript text.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
}

// Transcript is the full text of a video plus its segments.
type Transcript struct {
	VideoID  string    `json:"video_id"`
	FullText string    `json:"full_text"`
	Segments []Segment `json:"segments"`
	Source   Source    `json:"source"`
}

// joinSegments builds the full text from segment texts.
func joinSegments(segs []Segment) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text != "" {
			parts = append(parts, s.Text)
		}
	}
	return strings.Join(parts, " ")
}

// --- timedtext XML (YouTube caption payload) ---

type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

// ParseTimedText parses a YouTube timedtext XML payload into segments.
// Cue text carries escaped markup (font, bold tags) which is stripped.
func ParseTimedText(data []byte) ([]Segment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}
	segs := make([]Segment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := engine.CollapseWhitespace(stripCueMarkup(line.Text))
		if text == "" {
			continue
		}
		segs = append(segs, Segment{
			Text:  text,
			Start: line.Start,
			End:   line.Start + line.Dur,
		})
	}
	if len(segs) == 0 {
		return nil, errors.New("no cues in timedtext payload")
	}
	return segs, nil
}

// stripCueMarkup removes inline cue tags. The tokenizer handles the
// nested and unclosed tags auto-generated tracks produce, which a
// regex would mangle.
func stripCueMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	tok := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(tok.Text())
		}
	}
}

// --- SRT ---

// ParseSRT parses SubRip subtitle text into segments.
func ParseSRT(data []byte) ([]Segment, error) {
	var segs []Segment
	blocks := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		// first line is the cue index, second the timing
		timing := lines[1]
		if !strings.Contains(timing, "-->") {
			// some files omit indices
			timing = lines[0]
			lines = append([]string{""}, lines...)
		}
		start, end, err := parseTimingLine(timing)
		if err != nil {
			continue
		}
		text := engine.CollapseWhitespace(stripCueMarkup(strings.Join(lines[2:], " ")))
		if text == "" {
			continue
		}
		segs = append(segs, Segment{Text: text, Start: start, End: end})
	}
	if len(segs) == 0 {
		return nil, errors.New("no cues in SRT payload")
	}
	return segs, nil
}

// ParseVTT parses WebVTT subtitle text into segments.
func ParseVTT(data []byte) ([]Segment, error) {
	body := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(strings.TrimSpace(body), "WEBVTT") {
		return nil, errors.New("missing WEBVTT header")
	}
	var segs []Segment
	blocks := strings.Split(body, "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timingIdx := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timingIdx = i
				break
			}
		}
		if timingIdx < 0 || timingIdx == len(lines)-1 {
			continue
		}
		start, end, err := parseTimingLine(lines[timingIdx])
		if err != nil {
			continue
		}
		text := engine.CollapseWhitespace(stripCueMarkup(strings.Join(lines[timingIdx+1:], " ")))
		if text == "" {
			continue
		}
		segs = append(segs, Segment{Text: text, Start: start, End: end})
	}
	if len(segs) == 0 {
		return nil, errors.New("no cues in VTT payload")
	}
	return segs, nil
}

// parseTimingLine parses "HH:MM:SS,mmm --> HH:MM:SS,mmm" (SRT) or
// "[HH:]MM:SS.mmm --> [HH:]MM:SS.mmm" (VTT).
func parseTimingLine(line string) (start, end float64, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("no arrow in timing line %q", line)
	}
	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	// VTT cue settings may follow the end timestamp
	endStr := strings.Fields(strings.TrimSpace(parts[1]))[0]
	end, err = parseTimestamp(endStr)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", ".")
	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("bad timestamp %q", s)
	}
	var total float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("bad timestamp %q: %w", s, err)
		}
		total = total*60 + v
	}
	return total, nil
}
