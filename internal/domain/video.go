package domain

type VideoMetadata struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnail"`
}

// WatchURL builds the canonical watch link for a video identifier.
func WatchURL(videoID string) string {
	if videoID == "" {
		return ""
	}
	return "https://youtube.com/watch?v=" + videoID
}
