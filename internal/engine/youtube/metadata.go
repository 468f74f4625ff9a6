package youtube

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go_vidqa/internal/engine"
)

// Metadata is the subset of video details the pipeline cares about.
type Metadata struct {
	VideoID  string  `json:"video_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Duration float64 `json:"duration"` // seconds
}

// FetchMetadata resolves title, author, and duration via the ANDROID
// /player endpoint. Results are cached; metadata never changes for a
// published video.
func FetchMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	key := engine.CacheKey("metadata", videoID)
	if meta, ok := engine.CacheLoadJSON[*Metadata](ctx, key); ok {
		return meta, nil
	}

	resp, err := postPlayerANDROID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if cause, blocked := classifyPlayability(resp); blocked {
		return nil, &engine.AcquisitionError{VideoID: videoID, Cause: cause}
	}
	if resp.VideoDetails == nil {
		return nil, errors.New("player response missing videoDetails")
	}

	dur, _ := strconv.ParseFloat(resp.VideoDetails.LengthSeconds, 64)
	meta := &Metadata{
		VideoID:  videoID,
		Title:    resp.VideoDetails.Title,
		Author:   resp.VideoDetails.Author,
		Duration: dur,
	}
	engine.CacheStoreJSON(ctx, key, meta, 24*time.Hour)
	return meta, nil
}

// classifyPlayability maps a non-OK playabilityStatus to an acquisition
// cause. OK and LIVE_STREAM_OFFLINE pass through.
func classifyPlayability(resp *innertubePlayerResp) (engine.AcquireCause, bool) {
	if resp.PlayabilityStatus == nil || resp.PlayabilityStatus.Status == "OK" {
		return "", false
	}
	status := resp.PlayabilityStatus.Status
	reason := strings.ToLower(resp.PlayabilityStatus.Reason)

	switch status {
	case "LOGIN_REQUIRED":
		if strings.Contains(reason, "age") {
			return engine.CauseAgeRestricted, true
		}
		if strings.Contains(reason, "private") {
			return engine.CausePrivate, true
		}
		return engine.CauseAccessDenied, true
	case "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		return engine.CauseAgeRestricted, true
	case "UNPLAYABLE", "ERROR":
		if strings.Contains(reason, "private") {
			return engine.CausePrivate, true
		}
		return engine.CauseUnavailable, true
	case "LIVE_STREAM_OFFLINE":
		return "", false
	}
	return engine.CauseUnknown, true
}
