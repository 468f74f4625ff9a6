package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Caption acquisition.
// Primary:  scrape watch page ytInitialPlayerResponse → track list (works from any IP)
// Fallback: ANDROID Innertube /player → captionTracks (works from non-blocked IPs)
// The selected track's timedtext XML is returned raw; parsing lives in
// the transcript package.

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken — those only work in a browser.
func pickBestTrack(tracks []CaptionTrack, langs []string) (CaptionTrack, bool) {
	usable := make([]CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return tracks[0], false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// tracksViaPageScrape fetches the watch page with the browser-profile
// client and pulls the caption track list out of ytInitialPlayerResponse.
func tracksViaPageScrape(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	bc := engine.Cfg.BrowserClient
	if bc == nil {
		return nil, errors.New("browser client not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	watchURL := "https://www.youtube.com/watch?v=" + videoID
	body, status, err := bc.Do(http.MethodGet, watchURL, engine.ChromeHeaders(), nil)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("watch page: HTTP %d", status)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	if playerResp.Captions == nil {
		return nil, errors.New("no captions in ytInitialPlayerResponse")
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks in watch page")
	}
	return tracks, nil
}

// tracksViaPlayer fetches the track list via the ANDROID /player endpoint.
func tracksViaPlayer(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	resp, err := postPlayerANDROID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if resp.Captions == nil {
		reason := ""
		if resp.PlayabilityStatus != nil {
			reason = resp.PlayabilityStatus.Reason
		}
		if reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", reason)
		}
		return nil, errors.New("no captions in player response")
	}
	tracks := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	return tracks, nil
}

// FetchCaptionTracks returns the caption track list, trying the watch
// page scrape before the ANDROID player.
func FetchCaptionTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	if tracks, err := tracksViaPageScrape(ctx, videoID); err == nil {
		return tracks, nil
	} else {
		slog.Debug("captions: page scrape failed, trying player",
			slog.String("id", videoID), slog.Any("err", err))
	}
	return tracksViaPlayer(ctx, videoID)
}

// DownloadCaptions fetches the best caption track and returns the raw
// timedtext XML. Cached for an hour so a re-processed video does not
// refetch.
func DownloadCaptions(ctx context.Context, videoID string, langs []string) ([]byte, error) {
	engine.IncrCaptionFetch()

	key := engine.CacheKey("captions", videoID, strings.Join(langs, ","))
	if data, ok := engine.CacheGetBytes(ctx, key); ok {
		return data, nil
	}

	tracks, err := FetchCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	track, ok := pickBestTrack(tracks, langs)
	if !ok {
		return nil, errors.New("all caption tracks require PoToken")
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty timedtext payload")
	}

	engine.CacheSetBytes(ctx, key, data, time.Hour)
	return data, nil
}
