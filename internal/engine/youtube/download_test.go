package youtube

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

type fakeRunner struct {
	calls   []string // strategy client per invocation
	outputs []string
	errs    []error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	client := ""
	for i, a := range args {
		if a == "--extractor-args" && i+1 < len(args) {
			client = args[i+1]
		}
	}
	f.calls = append(f.calls, client)
	i := len(f.calls) - 1
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	return []byte(f.outputs[i]), f.errs[i]
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("no network in tests")
}

func newTestDownloader(t *testing.T, runner CommandRunner) *Downloader {
	t.Helper()
	engine.Init(engine.Config{
		DataDir:    t.TempDir(),
		HTTPClient: &http.Client{Transport: failingTransport{}},
	})
	t.Cleanup(func() { engine.Init(engine.Config{}) })
	if err := engine.EnsureDataDirs(); err != nil {
		t.Fatal(err)
	}

	strategies := defaultStrategies()
	for i := range strategies {
		strategies[i].Backoff = 0
	}
	return &Downloader{
		ytdlp:      "yt-dlp",
		runner:     runner,
		limiter:    rate.NewLimiter(rate.Every(time.Millisecond), 1),
		strategies: strategies,
	}
}

func TestAcquireMalformedURLNeverRuns(t *testing.T) {
	runner := &fakeRunner{}
	d := newTestDownloader(t, runner)

	_, err := d.Acquire(context.Background(), "https://example.com/not-a-video")
	if !errors.Is(err, engine.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("downloader ran %d times for malformed URL", len(runner.calls))
	}
}

func TestAcquireStrategyAdvance(t *testing.T) {
	boom := errors.New("exit status 1")
	runner := &fakeRunner{
		outputs: []string{"ERROR: some transient failure", ""},
		errs:    []error{boom, nil},
	}
	d := newTestDownloader(t, runner)

	record, err := d.Acquire(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("video id = %q", record.VideoID)
	}
	want := []string{"youtube:player_client=android", "youtube:player_client=ios"}
	if len(runner.calls) != 2 || runner.calls[0] != want[0] || runner.calls[1] != want[1] {
		t.Errorf("strategy order = %v, want %v", runner.calls, want)
	}
}

func TestAcquireAgeRestrictedClassified(t *testing.T) {
	boom := errors.New("exit status 1")
	out := "ERROR: Sign in to confirm your age. This video may be inappropriate for some users."
	runner := &fakeRunner{
		outputs: []string{out, out, out, out},
		errs:    []error{boom, boom, boom, boom},
	}
	d := newTestDownloader(t, runner)

	_, err := d.Acquire(context.Background(), "dQw4w9WgXcQ")
	var acqErr *engine.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if acqErr.Cause != engine.CauseAgeRestricted {
		t.Errorf("cause = %q, want %q", acqErr.Cause, engine.CauseAgeRestricted)
	}
	if len(runner.calls) != 4 {
		t.Errorf("expected all 4 strategies tried, got %d", len(runner.calls))
	}
}

func TestAcquirePrivateStopsLadder(t *testing.T) {
	boom := errors.New("exit status 1")
	runner := &fakeRunner{
		outputs: []string{"ERROR: Private video. Sign in if you've been granted access"},
		errs:    []error{boom},
	}
	d := newTestDownloader(t, runner)

	_, err := d.Acquire(context.Background(), "dQw4w9WgXcQ")
	var acqErr *engine.AcquisitionError
	if !errors.As(err, &acqErr) {
		t.Fatalf("expected AcquisitionError, got %v", err)
	}
	if acqErr.Cause != engine.CausePrivate {
		t.Errorf("cause = %q, want %q", acqErr.Cause, engine.CausePrivate)
	}
	if len(runner.calls) != 1 {
		t.Errorf("private video should stop after first strategy, ran %d", len(runner.calls))
	}
}

func TestClassifyOutput(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want engine.AcquireCause
	}{
		{"rate limited", "HTTP Error 429: Too Many Requests", engine.CauseRateLimited},
		{"age", "Sign in to confirm your age", engine.CauseAgeRestricted},
		{"private", "ERROR: Private video", engine.CausePrivate},
		{"removed", "This video has been removed by the uploader", engine.CauseUnavailable},
		{"unavailable", "ERROR: Video unavailable", engine.CauseUnavailable},
		{"forbidden", "HTTP Error 403: Forbidden", engine.CauseAccessDenied},
		{"bot check", "Sign in to confirm you're not a bot", engine.CauseAccessDenied},
		{"generic", "something else entirely", engine.CauseUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyOutput(tt.out); got != tt.want {
				t.Errorf("classifyOutput(%q) = %q, want %q", tt.out, got, tt.want)
			}
		})
	}
}
