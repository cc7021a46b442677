package constants

import "time"

var Endpoints = struct {
	ProcessVideo  string
	VideoMetadata string
	AskQuestion   string
	ClearSession  string
}{
	ProcessVideo:  "/api/process-video",
	VideoMetadata: "/api/video-metadata",
	AskQuestion:   "/api/ask-question",
	ClearSession:  "/api/clear-session",
}

var Routes = struct {
	Index string
	Chat  string
}{
	Index: "/",
	Chat:  "/chat",
}

// Messages are the user-facing strings shown by the controllers.
var Messages = struct {
	ProcessFailed     string
	NetworkError      string
	UnknownError      string
	AnswerErrorPrefix string
	ConnectFailed     string
	NoVideoProcessed  string
	Placeholder       string
	ButtonIdle        string
	ButtonBusy        string
	InvalidURL        string
}{
	ProcessFailed:     "Failed to process video",
	NetworkError:      "A network error occurred",
	UnknownError:      "Unknown error",
	AnswerErrorPrefix: "Error: ",
	ConnectFailed:     "Failed to connect to server",
	NoVideoProcessed:  "No video processed",
	Placeholder:       "...",
	ButtonIdle:        "Process Video",
	ButtonBusy:        "Processing...",
	InvalidURL:        "Please enter a valid YouTube URL",
}

var Limits = struct {
	MaxRawIDLength int
	LogQuestionLen int
}{
	MaxRawIDLength: 20,
	LogQuestionLen: 80,
}

var IDPrefixes = struct {
	Placeholder string
	User        string
}{
	Placeholder: "ai-loading-",
	User:        "user-",
}

var DefaultPresets = []string{
	"Summarize this video",
	"What are the key takeaways?",
	"Explain the main concepts discussed",
}

var WebSocketConfig = struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
}{
	WriteWait:      10 * time.Second,
	PongWait:       60 * time.Second,
	PingPeriod:     30 * time.Second,
	MaxMessageSize: 64 << 10,
	SendBuffer:     64,
}

var SessionCookie = struct {
	Name   string
	MaxAge time.Duration
}{
	Name:   "vqa_session",
	MaxAge: 30 * time.Minute, // matches the backend session lifetime
}
