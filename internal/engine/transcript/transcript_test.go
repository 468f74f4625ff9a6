package transcript

import (
	"math"
	"testing"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">welcome back to the channel</text>
  <text start="2.6" dur="3.0">today we&amp;#39;re talking about &lt;b&gt;goroutines&lt;/b&gt;</text>
  <text start="5.6" dur="1.0">   </text>
  <text start="6.6" dur="2.4">and how they
scale</text>
</transcript>`

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseTimedText(t *testing.T) {
	segs, err := ParseTimedText([]byte(sampleTimedText))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3 (blank cue dropped)", len(segs))
	}
	if segs[0].Text != "welcome back to the channel" {
		t.Errorf("seg 0 text = %q", segs[0].Text)
	}
	if !approx(segs[0].Start, 0.5) || !approx(segs[0].End, 2.6) {
		t.Errorf("seg 0 timing = %v..%v", segs[0].Start, segs[0].End)
	}
	if segs[1].Text != "today we're talking about goroutines" {
		t.Errorf("seg 1 markup not stripped: %q", segs[1].Text)
	}
	if segs[2].Text != "and how they scale" {
		t.Errorf("seg 2 hard wrap not collapsed: %q", segs[2].Text)
	}
}

func TestParseTimedTextEmpty(t *testing.T) {
	if _, err := ParseTimedText([]byte("<transcript></transcript>")); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := ParseTimedText([]byte("not xml")); err == nil {
		t.Error("expected error for garbage payload")
	}
}

const sampleSRT = `1
00:00:01,000 --> 00:00:04,200
Hello there and
welcome.

2
00:00:04,500 --> 00:01:02,750
<i>Second cue.</i>
`

func TestParseSRT(t *testing.T) {
	segs, err := ParseSRT([]byte(sampleSRT))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "Hello there and welcome." {
		t.Errorf("seg 0 text = %q", segs[0].Text)
	}
	if !approx(segs[0].Start, 1.0) || !approx(segs[0].End, 4.2) {
		t.Errorf("seg 0 timing = %v..%v", segs[0].Start, segs[0].End)
	}
	if !approx(segs[1].End, 62.75) {
		t.Errorf("seg 1 end = %v, want 62.75", segs[1].End)
	}
	if segs[1].Text != "Second cue." {
		t.Errorf("seg 1 markup not stripped: %q", segs[1].Text)
	}
}

const sampleVTT = `WEBVTT

00:01.000 --> 00:03.500
First cue.

00:03.500 --> 00:06.000 align:start position:0%
Second cue
continues here.
`

func TestParseVTT(t *testing.T) {
	segs, err := ParseVTT([]byte(sampleVTT))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !approx(segs[0].Start, 1.0) || !approx(segs[0].End, 3.5) {
		t.Errorf("seg 0 timing = %v..%v", segs[0].Start, segs[0].End)
	}
	if segs[1].Text != "Second cue continues here." {
		t.Errorf("seg 1 text = %q", segs[1].Text)
	}
}

func TestParseVTTMissingHeader(t *testing.T) {
	if _, err := ParseVTT([]byte("00:01.000 --> 00:03.500\nno header\n")); err == nil {
		t.Error("expected error for missing WEBVTT header")
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00:01,000", 1.0},
		{"00:01:02,500", 62.5},
		{"01:00:00,000", 3600.0},
		{"02:30.250", 150.25},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.in)
		if err != nil {
			t.Errorf("parseTimestamp(%q): %v", tt.in, err)
			continue
		}
		if !approx(got, tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseTimestamp("abc"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
