// Package chat drives the question and answer page for one processed video.
package chat

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/api"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/util"
	"github.com/kapu/video-qa-client/pkg/errors"
)

var ErrEmptyQuestion = stderrors.New("question is empty")

// Asker is the part of the backend API the chat page uses.
type Asker interface {
	AskQuestion(ctx context.Context, question string) (*api.AskQuestionResponse, error)
	VideoMetadata(ctx context.Context) (*api.VideoMetadataResponse, error)
}

type Outcome string

const (
	OutcomeAnswered    Outcome = "answered"
	OutcomeFailed      Outcome = "failed"
	OutcomeUnreachable Outcome = "unreachable"
)

func (o Outcome) String() string {
	return string(o)
}

type Elements struct {
	Messages *dom.MessageList
	Input    *dom.Element
	Title    *dom.Element
	Author   *dom.Element
	Thumb    *dom.Element
}

// BindElements resolves the chat page contract once.
func BindElements(doc *dom.Document) (Elements, error) {
	var els Elements

	messages, err := doc.MessageList(domain.ElementMessages)
	if err != nil {
		return els, err
	}
	els.Messages = messages

	for _, binding := range []struct {
		target **dom.Element
		id     string
	}{
		{&els.Input, domain.ElementQuestionInput},
		{&els.Title, domain.ElementVideoTitle},
		{&els.Author, domain.ElementVideoAuthor},
		{&els.Thumb, domain.ElementVideoThumb},
	} {
		el, err := doc.Element(binding.id)
		if err != nil {
			return els, err
		}
		*binding.target = el
	}

	return els, nil
}

type Dependencies struct {
	API      Asker
	Elements Elements
	Presets  []string
	Logger   *zap.Logger
	// NewID overrides bubble identifier generation in tests.
	NewID func() string
}

// Exchange reports one question and how its placeholder was resolved.
type Exchange struct {
	Question      string
	UserID        string
	PlaceholderID string
	Outcome       Outcome
	Text          string
}

type Controller struct {
	deps Dependencies

	// inputMu makes reading and clearing the input field atomic with
	// appending the exchange's bubbles.
	inputMu sync.Mutex
}

func NewController(deps Dependencies) (*Controller, error) {
	if deps.API == nil {
		return nil, fmt.Errorf("chat: API must not be nil")
	}
	els := deps.Elements
	if els.Messages == nil || els.Input == nil || els.Title == nil || els.Author == nil || els.Thumb == nil {
		return nil, fmt.Errorf("chat: page elements not bound")
	}
	if deps.Presets == nil {
		deps.Presets = constants.DefaultPresets
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.New().String() }
	}
	deps.Logger = util.OrNop(deps.Logger)

	return &Controller{deps: deps}, nil
}

func (c *Controller) Presets() []string {
	out := make([]string, len(c.deps.Presets))
	copy(out, c.deps.Presets)
	return out
}

// LoadMetadata fills the page header. Failures leave the header untouched and
// are not shown to the user.
func (c *Controller) LoadMetadata(ctx context.Context) (*domain.VideoMetadata, bool) {
	resp, err := c.deps.API.VideoMetadata(ctx)
	if err != nil {
		c.deps.Logger.Debug("Video metadata unavailable", zap.Error(err))
		return nil, false
	}
	if resp.HasError() {
		c.deps.Logger.Debug("Video metadata reported error",
			zap.String("error", resp.Error),
			zap.Int("status", resp.StatusCode),
		)
		return nil, false
	}

	meta := resp.Metadata()
	els := c.deps.Elements
	els.Title.SetText(meta.Title)
	els.Author.SetText(meta.Author)
	els.Thumb.SetSrc(meta.ThumbnailURL)

	c.deps.Logger.Debug("Video metadata loaded", zap.String("title", meta.Title))
	return meta, true
}

// AskPreset puts question in the input field and asks it.
func (c *Controller) AskPreset(ctx context.Context, question string) (*Exchange, error) {
	return c.AskQuestion(ctx, question)
}

// AskQuestion is Ask for text that did not come from the input field. Setting
// the field and starting the exchange happen atomically, so callers may run
// several of these concurrently.
func (c *Controller) AskQuestion(ctx context.Context, question string) (*Exchange, error) {
	c.inputMu.Lock()
	c.deps.Elements.Input.SetValue(question)
	exchange, err := c.begin()
	c.inputMu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.complete(ctx, exchange)
}

// Ask sends the input field's question. The user bubble and an assistant
// placeholder are appended before the request; the placeholder is then
// rewritten in place with the answer or an error message.
func (c *Controller) Ask(ctx context.Context) (*Exchange, error) {
	c.inputMu.Lock()
	exchange, err := c.begin()
	c.inputMu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.complete(ctx, exchange)
}

func (c *Controller) begin() (*Exchange, error) {
	els := c.deps.Elements
	question := strings.TrimSpace(els.Input.Value())
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	exchange := &Exchange{
		Question:      question,
		UserID:        constants.IDPrefixes.User + c.deps.NewID(),
		PlaceholderID: constants.IDPrefixes.Placeholder + c.deps.NewID(),
	}

	// both ids are checked up front so a collision leaves the page untouched
	for _, id := range []string{exchange.UserID, exchange.PlaceholderID} {
		if _, _, exists := els.Messages.Message(id); exists {
			return nil, errors.NewDOMError("duplicate message id", id)
		}
	}

	if err := els.Messages.Append(domain.Message{ID: exchange.UserID, Role: domain.RoleUser, Text: question}); err != nil {
		return nil, err
	}
	els.Input.SetValue("")
	if err := els.Messages.Append(domain.Message{
		ID:   exchange.PlaceholderID,
		Role: domain.RoleAssistant,
		Text: constants.Messages.Placeholder,
	}); err != nil {
		return nil, err
	}
	return exchange, nil
}

func (c *Controller) complete(ctx context.Context, exchange *Exchange) (*Exchange, error) {
	logQuestion := util.TruncateString(exchange.Question, constants.Limits.LogQuestionLen)
	c.deps.Logger.Info("Asking question",
		zap.String("question", logQuestion),
		zap.String("placeholder_id", exchange.PlaceholderID),
	)

	resp, err := c.deps.API.AskQuestion(ctx, exchange.Question)
	exchange.Outcome, exchange.Text = resolve(resp, err)

	if !c.deps.Elements.Messages.Update(exchange.PlaceholderID, exchange.Text) {
		return exchange, errors.NewDOMError("placeholder bubble missing", exchange.PlaceholderID)
	}

	switch exchange.Outcome {
	case OutcomeAnswered:
		c.deps.Logger.Info("Question answered",
			zap.String("question", logQuestion),
			zap.Int("answer_len", util.RuneLen(exchange.Text)),
		)
		return exchange, nil
	case OutcomeFailed:
		c.deps.Logger.Warn("Question failed", zap.String("question", logQuestion), zap.Error(err))
		if err == nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			err = errors.NewAPIError(exchange.Text, constants.Endpoints.AskQuestion, status)
		}
		return exchange, err
	default:
		c.deps.Logger.Warn("Question not delivered", zap.String("question", logQuestion), zap.Error(err))
		return exchange, err
	}
}

func resolve(resp *api.AskQuestionResponse, err error) (Outcome, string) {
	if err != nil {
		var transportErr *errors.TransportError
		if stderrors.As(err, &transportErr) {
			return OutcomeUnreachable, constants.Messages.ConnectFailed
		}
		return OutcomeFailed, constants.Messages.AnswerErrorPrefix + constants.Messages.UnknownError
	}
	if resp == nil {
		return OutcomeFailed, constants.Messages.AnswerErrorPrefix + constants.Messages.UnknownError
	}
	if resp.Answer != "" {
		return OutcomeAnswered, resp.Answer
	}
	reason := constants.Messages.UnknownError
	if resp.HasError() {
		reason = resp.Error
	}
	return OutcomeFailed, constants.Messages.AnswerErrorPrefix + reason
}
