package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Audio acquisition via yt-dlp with a client impersonation ladder.
// Each strategy maps to an Innertube player client; when one client is
// blocked (bot check, rate limit) the next usually is not. Ordered by
// reliability from datacenter IPs.

// CommandRunner abstracts subprocess execution so the ladder is
// testable without yt-dlp installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Strategy is one rung of the acquisition ladder.
type Strategy struct {
	Name      string
	Client    string // Innertube player client for --extractor-args
	UserAgent string
	ExtraArgs []string
	Backoff   time.Duration // wait before trying the next rung
}

func defaultStrategies() []Strategy {
	return []Strategy{
		{
			Name:      "android",
			Client:    "android",
			UserAgent: ytAndroidUA,
			Backoff:   2 * time.Second,
		},
		{
			Name:      "ios",
			Client:    "ios",
			UserAgent: "com.google.ios.youtube/20.10.4 (iPhone16,2; U; CPU iOS 17_5_1 like Mac OS X)",
			Backoff:   3 * time.Second,
		},
		{
			Name:      "web",
			Client:    "web",
			UserAgent: engine.UserAgentChrome,
			Backoff:   5 * time.Second,
		},
		{
			Name:      "last-resort",
			Client:    "tv_embedded",
			UserAgent: engine.UserAgentChrome,
			ExtraArgs: []string{"--force-ipv4", "--socket-timeout", "30"},
			Backoff:   0,
		},
	}
}

// Downloader acquires audio and captions for a video.
type Downloader struct {
	ytdlp      string
	runner     CommandRunner
	limiter    *rate.Limiter
	strategies []Strategy
}

// NewDownloader builds a Downloader from engine config. Requests are
// paced to one every 10 seconds; YouTube throttles burst traffic from
// single IPs hard.
func NewDownloader() *Downloader {
	ytdlp := engine.Cfg.YtdlpPath
	if ytdlp == "" {
		ytdlp = "yt-dlp"
	}
	return &Downloader{
		ytdlp:      ytdlp,
		runner:     execRunner{},
		limiter:    rate.NewLimiter(rate.Every(10*time.Second), 1),
		strategies: defaultStrategies(),
	}
}

// Acquire downloads the audio track for a video URL, walking the
// strategy ladder until one succeeds. Captions are fetched best-effort
// alongside. Returns AcquisitionError with the most specific cause
// when every rung fails.
func (d *Downloader) Acquire(ctx context.Context, rawURL string) (*engine.VideoRecord, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	engine.IncrDownload()

	record := &engine.VideoRecord{VideoID: videoID, AudioPath: engine.AudioPath(videoID)}
	if meta, err := FetchMetadata(ctx, videoID); err == nil {
		record.Title = meta.Title
		record.Duration = meta.Duration
	} else {
		var acqErr *engine.AcquisitionError
		if errors.As(err, &acqErr) {
			// Upstream already refused at the metadata step; running
			// yt-dlp would fail with the same cause.
			engine.IncrDownloadFailure()
			return nil, err
		}
		slog.Warn("metadata lookup failed", slog.String("id", videoID), slog.Any("err", err))
	}

	if _, err := os.Stat(record.AudioPath); err != nil {
		if err := d.downloadAudio(ctx, videoID, record.AudioPath); err != nil {
			engine.IncrDownloadFailure()
			return nil, err
		}
	} else {
		slog.Debug("audio artifact exists, skipping download", slog.String("id", videoID))
	}

	d.fetchCaptions(ctx, videoID, record)
	return record, nil
}

func (d *Downloader) downloadAudio(ctx context.Context, videoID, audioPath string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	constrained := ConstrainedEnvironment()
	if constrained {
		// Randomized delay in front of the first attempt breaks up the
		// request signature shared-IP platforms produce.
		jitter := time.Duration(2+rand.Intn(4)) * time.Second //nolint:gosec // non-cryptographic use
		slog.Debug("constrained environment, pacing", slog.Duration("delay", jitter))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cause := engine.CauseUnknown
	var lastErr error

	for i, strat := range d.strategies {
		if err := ctx.Err(); err != nil {
			return err
		}

		args := d.buildArgs(videoID, audioPath, strat, constrained)
		slog.Info("download attempt",
			slog.String("id", videoID),
			slog.String("strategy", strat.Name))

		out, err := d.runner.Run(ctx, d.ytdlp, args...)
		if err == nil {
			slog.Info("download succeeded",
				slog.String("id", videoID),
				slog.String("strategy", strat.Name))
			return nil
		}

		stratCause := classifyOutput(string(out))
		if stratCause != engine.CauseUnknown {
			cause = stratCause
		}
		lastErr = fmt.Errorf("%s: %w", strat.Name, err)
		slog.Warn("download strategy failed",
			slog.String("id", videoID),
			slog.String("strategy", strat.Name),
			slog.String("cause", string(stratCause)),
			slog.Any("err", err))

		// Private and removed videos fail identically on every client.
		if stratCause == engine.CausePrivate || stratCause == engine.CauseUnavailable {
			break
		}

		if i < len(d.strategies)-1 && strat.Backoff > 0 {
			wait := strat.Backoff
			if constrained {
				wait *= 2
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return &engine.AcquisitionError{VideoID: videoID, Cause: cause, Last: lastErr}
}

func (d *Downloader) buildArgs(videoID, audioPath string, strat Strategy, constrained bool) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bestaudio[ext=m4a]/bestaudio",
		"-x", "--audio-format", "m4a",
		"-o", audioPath,
		"--extractor-args", "youtube:player_client=" + strat.Client,
		"--user-agent", strat.UserAgent,
	}
	rc := engine.DefaultRetryConfig
	if constrained {
		rc = engine.StrictRetryConfig
		args = append(args, "--sleep-requests", "2")
	}
	args = append(args,
		"--retries", fmt.Sprint(rc.MaxRetries),
		"--retry-sleep", fmt.Sprintf("exp=%d:%d", int(rc.InitialWait.Seconds())+1, int(rc.MaxWait.Seconds())),
	)
	args = append(args, strat.ExtraArgs...)
	args = append(args, "https://www.youtube.com/watch?v="+videoID)
	return args
}

// fetchCaptions pulls the best caption track and stores it next to the
// audio. Failure is never fatal; the transcript stage falls back to
// speech recognition.
func (d *Downloader) fetchCaptions(ctx context.Context, videoID string, record *engine.VideoRecord) {
	data, err := DownloadCaptions(ctx, videoID, engine.Cfg.CaptionLangs)
	if err != nil {
		slog.Warn("caption fetch failed, whisper will cover",
			slog.String("id", videoID), slog.Any("err", err))
		return
	}
	path := engine.CaptionPath(videoID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("caption write failed", slog.String("path", path), slog.Any("err", err))
		return
	}
	record.SubtitlePath = path
}

// classifyOutput maps yt-dlp stderr text to an acquisition cause.
func classifyOutput(out string) engine.AcquireCause {
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate-limit") || strings.Contains(lower, "too many requests"):
		return engine.CauseRateLimited
	case strings.Contains(lower, "sign in to confirm your age") || strings.Contains(lower, "age-restricted") || strings.Contains(lower, "age restricted"):
		return engine.CauseAgeRestricted
	case strings.Contains(lower, "private video"):
		return engine.CausePrivate
	case strings.Contains(lower, "video unavailable") || strings.Contains(lower, "has been removed"):
		return engine.CauseUnavailable
	case strings.Contains(lower, "403") || strings.Contains(lower, "access denied") || strings.Contains(lower, "sign in to confirm"):
		return engine.CauseAccessDenied
	}
	return engine.CauseUnknown
}
