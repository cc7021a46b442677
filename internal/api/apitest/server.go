// Package apitest provides an in-process fake of the video Q&A backend.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/kapu/video-qa-client/internal/videoid"
)

const cookieName = "session"

// Backend mimics the real service: the processed video lives in a cookie
// keyed server-side session, and errors are reported as {"error": ...}.
type Backend struct {
	*httptest.Server

	// Answer builds the reply to a question. It defaults to "answer: <question>".
	Answer func(question string) string
	// Metadata is returned by the metadata endpoint.
	Metadata map[string]string

	mu     sync.Mutex
	videos map[string]string

	Processed atomic.Int32
	Asked     atomic.Int32
	Cleared   atomic.Int32
}

// NewBackend starts a fake backend that is closed when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		Answer: func(question string) string { return "answer: " + question },
		Metadata: map[string]string{
			"title":     "Go Concurrency Patterns",
			"author":    "Gopher",
			"thumbnail": "https://img.example/t.jpg",
		},
		videos: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process-video", b.processVideo)
	mux.HandleFunc("GET /api/video-metadata", b.videoMetadata)
	mux.HandleFunc("POST /api/ask-question", b.askQuestion)
	mux.HandleFunc("DELETE /api/clear-session", b.clearSession)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) processVideo(w http.ResponseWriter, r *http.Request) {
	b.Processed.Add(1)

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No URL provided"})
		return
	}

	id := uuid.New().String()
	b.mu.Lock()
	b.videos[id] = req.URL
	b.mu.Unlock()

	videoID, ok := videoid.Extract(req.URL)
	if !ok {
		videoID = req.URL
	}

	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: id, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"video_id": videoID,
		"metadata": b.Metadata,
	})
}

func (b *Backend) videoMetadata(w http.ResponseWriter, r *http.Request) {
	if !b.hasVideo(r) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No video processed"})
		return
	}
	writeJSON(w, http.StatusOK, b.Metadata)
}

func (b *Backend) askQuestion(w http.ResponseWriter, r *http.Request) {
	b.Asked.Add(1)

	if !b.hasVideo(r) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No video processed"})
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No question provided"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": b.Answer(req.Question)})
}

func (b *Backend) clearSession(w http.ResponseWriter, r *http.Request) {
	b.Cleared.Add(1)

	if c, err := r.Cookie(cookieName); err == nil {
		b.mu.Lock()
		delete(b.videos, c.Value)
		b.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "session cleared"})
}

func (b *Backend) hasVideo(r *http.Request) bool {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.videos[c.Value]
	return ok
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
