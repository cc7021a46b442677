package app

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/api"
	"github.com/kapu/video-qa-client/internal/config"
)

// Container holds what every session shares: configuration, the logger and
// one HTTP transport so that connections to the backend are pooled.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	transport *http.Transport
}

// Build validates cfg and prepares the shared transport. Sessions are created
// afterwards with NewSession.
func Build(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	logger.Info("Client container ready",
		zap.String("api_base_url", cfg.API.BaseURL),
		zap.Duration("api_timeout", cfg.API.Timeout),
		zap.String("chat_route", cfg.Chat.Route),
		zap.Int("presets", len(cfg.Chat.Presets)),
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		transport: transport,
	}, nil
}

// NewSession starts an independent user session with its own backend cookie jar.
func (c *Container) NewSession() (*Session, error) {
	if c == nil || c.Config == nil {
		return nil, fmt.Errorf("container not initialized")
	}

	id := uuid.New().String()
	logger := c.Logger.With(zap.String("session", id))

	client, err := api.NewClient(c.Config.API.BaseURL, c.Config.API.Timeout, c.transport, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return newSession(id, c.Config, client, logger), nil
}

// Close releases pooled backend connections.
func (c *Container) Close() {
	if c != nil && c.transport != nil {
		c.transport.CloseIdleConnections()
	}
}
