package engine

// VideoRecord describes a successfully acquired video: its metadata
// plus the on-disk artifact paths.
type VideoRecord struct {
	VideoID      string  `json:"video_id"`
	Title        string  `json:"title"`
	AudioPath    string  `json:"audio_path"`
	Duration     float64 `json:"duration"` // seconds
	SubtitlePath string  `json:"subtitle_path,omitempty"`
}
