package api

import "github.com/kapu/video-qa-client/internal/domain"

const StatusSuccess = "success"

// Envelope holds the fields every endpoint may return. StatusCode is the HTTP
// status of the response the body was decoded from.
type Envelope struct {
	StatusCode int    `json:"-"`
	Error      string `json:"error,omitempty"`
}

func (e Envelope) HasError() bool {
	return e.Error != ""
}

type ProcessVideoRequest struct {
	URL string `json:"url"`
}

type ProcessVideoResponse struct {
	Envelope
	Status   string                `json:"status,omitempty"`
	VideoID  string                `json:"video_id,omitempty"`
	Metadata *domain.VideoMetadata `json:"metadata,omitempty"`
}

func (r *ProcessVideoResponse) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

type VideoMetadataResponse struct {
	Envelope
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail"`
}

func (r *VideoMetadataResponse) Metadata() *domain.VideoMetadata {
	if r == nil {
		return nil
	}
	return &domain.VideoMetadata{
		Title:        r.Title,
		Author:       r.Author,
		ThumbnailURL: r.Thumbnail,
	}
}

type AskQuestionRequest struct {
	Question string `json:"question"`
}

type AskQuestionResponse struct {
	Envelope
	Answer string `json:"answer,omitempty"`
}

type ClearSessionResponse struct {
	Envelope
	Status string `json:"status,omitempty"`
}
