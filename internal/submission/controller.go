// Package submission drives the video submission page.
package submission

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/api"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/util"
	"github.com/kapu/video-qa-client/internal/videoid"
	"github.com/kapu/video-qa-client/pkg/errors"
)

// ErrBusy is returned when a submission is already in flight; the trigger is
// disabled in that state, so nothing is sent.
var ErrBusy = stderrors.New("submission already in progress")

type State string

const (
	StateIdle       State = "IDLE"
	StateSubmitting State = "SUBMITTING"
	StateSuccess    State = "SUCCESS"
	StateFailed     State = "FAILED"
)

func (s State) String() string {
	return string(s)
}

type Processor interface {
	ProcessVideo(ctx context.Context, url string) (*api.ProcessVideoResponse, error)
}

// Elements are the submission page nodes the controller writes to.
type Elements struct {
	Input       *dom.Element
	Button      *dom.Element
	ButtonLabel *dom.Element
	Spinner     *dom.Element
	Error       *dom.Element
}

// BindElements resolves the submission page contract once.
func BindElements(doc *dom.Document) (Elements, error) {
	var (
		els Elements
		err error
	)
	bind := func(target **dom.Element, id string) {
		if err != nil {
			return
		}
		*target, err = doc.Element(id)
	}

	bind(&els.Input, domain.ElementURLInput)
	bind(&els.Button, domain.ElementSubmit)
	bind(&els.ButtonLabel, domain.ElementSubmitTxt)
	bind(&els.Spinner, domain.ElementSpinner)
	bind(&els.Error, domain.ElementURLError)

	return els, err
}

type Dependencies struct {
	API       Processor
	Elements  Elements
	ChatRoute string
	Navigate  func(route string) error
	Alert     func(message string)
	Logger    *zap.Logger
}

// Result reports the outcome of one trigger.
type Result struct {
	State     State
	Reference videoid.Reference
	// VideoID and Metadata are what the backend reported for a successful
	// submission. VideoID falls back to the locally resolved identifier.
	VideoID  string
	Metadata *domain.VideoMetadata
	// Message is the text shown to the user, empty on success.
	Message string
}

// WatchURL is the canonical link of the processed video.
func (r *Result) WatchURL() string {
	if r.VideoID != "" {
		return domain.WatchURL(r.VideoID)
	}
	return r.Reference.WatchURL()
}

type Controller struct {
	deps Dependencies

	mu    sync.Mutex
	state State
}

func NewController(deps Dependencies) (*Controller, error) {
	if deps.API == nil {
		return nil, fmt.Errorf("submission: API must not be nil")
	}
	if deps.Navigate == nil || deps.Alert == nil {
		return nil, fmt.Errorf("submission: navigate and alert callbacks are required")
	}
	els := deps.Elements
	if els.Input == nil || els.Button == nil || els.ButtonLabel == nil || els.Spinner == nil || els.Error == nil {
		return nil, fmt.Errorf("submission: page elements not bound")
	}
	if deps.ChatRoute == "" {
		deps.ChatRoute = constants.Routes.Chat
	}
	deps.Logger = util.OrNop(deps.Logger)

	return &Controller{deps: deps, state: StateIdle}, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates the input field and, when it holds a usable reference,
// posts it once to the processing endpoint. Validation failures show the
// inline error and make no request. Every other failure is alerted and the
// error is returned for logging.
func (c *Controller) Submit(ctx context.Context) (*Result, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return &Result{State: StateSubmitting}, ErrBusy
	}

	ref, err := videoid.Resolve(c.deps.Elements.Input.Value())
	if err != nil {
		c.mu.Unlock()
		c.deps.Elements.Error.Show()
		c.deps.Logger.Debug("Rejected submission input", zap.Error(err))
		return &Result{State: StateIdle, Reference: ref, Message: constants.Messages.InvalidURL}, err
	}

	c.state = StateSubmitting
	c.mu.Unlock()

	c.deps.Elements.Error.Hide()
	c.setLoading(true)
	defer c.setLoading(false)

	c.deps.Logger.Info("Submitting video",
		zap.String("input", ref.Raw),
		zap.String("video_id", ref.ID),
		zap.Bool("matched", ref.Matched),
	)

	resp, err := c.deps.API.ProcessVideo(ctx, ref.Raw)
	if err != nil {
		return c.fail(ref, c.failureMessage(err), err)
	}

	if !resp.Succeeded() {
		message := constants.Messages.ProcessFailed
		if resp.HasError() {
			message = resp.Error
		}
		return c.fail(ref, message, errors.NewAPIError(message, constants.Endpoints.ProcessVideo, resp.StatusCode))
	}

	if err := c.deps.Navigate(c.deps.ChatRoute); err != nil {
		return c.fail(ref, constants.Messages.ProcessFailed, err)
	}

	videoID := resp.VideoID
	if videoID == "" {
		videoID = ref.ID
	}

	c.setState(StateSuccess)
	c.deps.Logger.Info("Video processed", zap.String("video_id", videoID), zap.String("route", c.deps.ChatRoute))
	return &Result{State: StateSuccess, Reference: ref, VideoID: videoID, Metadata: resp.Metadata}, nil
}

func (c *Controller) failureMessage(err error) string {
	var transportErr *errors.TransportError
	if stderrors.As(err, &transportErr) {
		return constants.Messages.NetworkError
	}
	return constants.Messages.ProcessFailed
}

func (c *Controller) fail(ref videoid.Reference, message string, err error) (*Result, error) {
	c.deps.Logger.Warn("Video submission failed",
		zap.String("input", ref.Raw),
		zap.String("message", message),
		zap.Error(err),
	)
	c.deps.Alert(message)
	c.setState(StateIdle)
	return &Result{State: StateFailed, Reference: ref, Message: message}, err
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Controller) setLoading(loading bool) {
	els := c.deps.Elements
	els.Button.SetDisabled(loading)
	if loading {
		els.Spinner.Show()
		els.ButtonLabel.SetText(constants.Messages.ButtonBusy)
		return
	}
	els.Spinner.Hide()
	els.ButtonLabel.SetText(constants.Messages.ButtonIdle)
}
