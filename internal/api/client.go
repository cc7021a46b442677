package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/util"
	"github.com/kapu/video-qa-client/pkg/errors"
)

// Client talks to the video Q&A backend. The backend keeps the processed
// video in a cookie session, so each Client owns a cookie jar and a user
// session must reuse the same Client for all of its calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client with its own cookie jar. A zero timeout leaves
// requests unbounded.
func NewClient(baseURL string, timeout time.Duration, transport http.RoundTripper, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: transport,
		},
		logger: util.OrNop(logger),
	}, nil
}

func (c *Client) ProcessVideo(ctx context.Context, url string) (*ProcessVideoResponse, error) {
	var resp ProcessVideoResponse
	status, err := c.doRequest(ctx, http.MethodPost, constants.Endpoints.ProcessVideo, ProcessVideoRequest{URL: url}, &resp)
	resp.StatusCode = status
	if err != nil {
		c.logger.Warn("Process video request failed",
			zap.Error(err),
			zap.String("url", url),
		)
		return nil, err
	}
	return &resp, nil
}

func (c *Client) VideoMetadata(ctx context.Context) (*VideoMetadataResponse, error) {
	var resp VideoMetadataResponse
	status, err := c.doRequest(ctx, http.MethodGet, constants.Endpoints.VideoMetadata, nil, &resp)
	resp.StatusCode = status
	if err != nil {
		c.logger.Debug("Video metadata request failed", zap.Error(err))
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AskQuestion(ctx context.Context, question string) (*AskQuestionResponse, error) {
	var resp AskQuestionResponse
	status, err := c.doRequest(ctx, http.MethodPost, constants.Endpoints.AskQuestion, AskQuestionRequest{Question: question}, &resp)
	resp.StatusCode = status
	if err != nil {
		c.logger.Warn("Ask question request failed",
			zap.Error(err),
			zap.String("question", util.TruncateString(question, constants.Limits.LogQuestionLen)),
		)
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ClearSession(ctx context.Context) (*ClearSessionResponse, error) {
	var resp ClearSessionResponse
	status, err := c.doRequest(ctx, http.MethodDelete, constants.Endpoints.ClearSession, nil, &resp)
	resp.StatusCode = status
	if err != nil {
		c.logger.Warn("Clear session request failed", zap.Error(err))
		return nil, err
	}
	return &resp, nil
}

// doRequest sends one request and decodes the JSON body into respBody whatever
// the HTTP status, since the backend reports failures as {"error": ...} with a
// 4xx/5xx code. A body that is not JSON yields a TransportError; JSON of the
// wrong shape yields a ResponseError.
func (c *Client) doRequest(ctx context.Context, method, path string, reqBody, respBody any) (int, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return 0, errors.NewTransportError("failed to marshal request", path, err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, errors.NewTransportError("failed to create request", path, err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.NewTransportError("request failed", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errors.NewTransportError("failed to read response", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("Backend returned non-success status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.TruncateString(string(raw), 200)),
		)
	}

	if !json.Valid(raw) {
		return resp.StatusCode, errors.NewTransportError("response is not JSON", path, nil)
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return resp.StatusCode, errors.NewResponseError("unexpected response shape", path, resp.StatusCode, err)
	}

	return resp.StatusCode, nil
}
