// Package terminal presents a session as a line-oriented REPL.
package terminal

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/app"
	"github.com/kapu/video-qa-client/internal/chat"
	"github.com/kapu/video-qa-client/internal/constants"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/submission"
	"github.com/kapu/video-qa-client/internal/util"
	clienterrors "github.com/kapu/video-qa-client/pkg/errors"
)

const (
	cmdQuit    = ":quit"
	cmdPresets = ":presets"
	cmdPreset  = ":preset"
	cmdReset   = ":reset"
)

// errQuit ends the REPL without error.
var errQuit = stderrors.New("quit")

type REPL struct {
	session *app.Session
	lines   <-chan string
	out     io.Writer
	outMu   sync.Mutex
	logger  *zap.Logger
}

func New(session *app.Session, in io.Reader, out io.Writer, logger *zap.Logger) *REPL {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return &REPL{
		session: session,
		lines:   lines,
		out:     out,
		logger:  util.OrNop(logger),
	}
}

// Run opens the submission page and follows navigations until the input ends,
// :quit is entered or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	route := constants.Routes.Index
	for {
		page, err := r.session.Open(route)
		if stderrors.Is(err, app.ErrNoVideo) {
			r.printf("! %s\n", err)
			route = constants.Routes.Index
			continue
		}
		if err != nil {
			return err
		}

		next, err := r.runPage(ctx, page)
		if stderrors.Is(err, errQuit) || stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		route = next
	}
}

// runPage presents one page and returns the route it navigated to.
func (r *REPL) runPage(ctx context.Context, page *app.Page) (string, error) {
	navigations := make(chan string, 1)
	unsubscribe := page.Doc.OnChange(func(change dom.Change) {
		if change.Op == dom.OpNavigate {
			select {
			case navigations <- change.Value:
			default:
			}
			return
		}
		r.printChange(change)
	})
	defer unsubscribe()

	switch page.Kind {
	case domain.PageIndex:
		return r.runIndex(ctx, page, navigations)
	case domain.PageChat:
		return r.runChat(ctx, page.Chat, navigations)
	default:
		return "", fmt.Errorf("unsupported page %q", page.Kind)
	}
}

func (r *REPL) runIndex(ctx context.Context, page *app.Page, navigations <-chan string) (string, error) {
	input, err := page.Doc.Element(domain.ElementURLInput)
	if err != nil {
		return "", err
	}

	r.printf("Paste a YouTube link (%s to exit).\n", cmdQuit)
	for {
		r.printf("url> ")
		line, err := r.readLine(ctx)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) == cmdQuit {
			return "", errQuit
		}

		input.SetValue(line)
		result, err := page.Submission.Submit(ctx)
		var validationErr *clienterrors.ValidationError
		switch {
		case stderrors.As(err, &validationErr):
			r.printf("! %s\n", constants.Messages.InvalidURL)
		case err != nil:
			r.logger.Debug("Submission did not complete", zap.Error(err))
		case result.State == submission.StateSuccess:
			r.printProcessed(result)
		}

		select {
		case route := <-navigations:
			return route, nil
		default:
		}
	}
}

func (r *REPL) runChat(ctx context.Context, ctrl *chat.Controller, navigations <-chan string) (string, error) {
	var wg conc.WaitGroup
	defer wg.Wait()

	if meta, ok := ctrl.LoadMetadata(ctx); ok {
		r.printf("== %s\n   by %s\n", meta.Title, meta.Author)
	}
	r.printf("Ask a question. Commands: %s, %s N, %s, %s\n", cmdPresets, cmdPreset, cmdReset, cmdQuit)

	ask := func(question string) {
		wg.Go(func() {
			if _, err := ctrl.AskQuestion(ctx, question); err != nil && !stderrors.Is(err, chat.ErrEmptyQuestion) {
				r.logger.Debug("Question did not complete", zap.Error(err))
			}
		})
	}

	for {
		line, err := r.readLine(ctx, navigations)
		if err != nil {
			var nav navigationError
			if stderrors.As(err, &nav) {
				return nav.route, nil
			}
			return "", err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case cmdQuit:
			return "", errQuit
		case cmdPresets:
			for i, preset := range ctrl.Presets() {
				r.printf("  %d. %s\n", i+1, preset)
			}
		case cmdPreset:
			question, err := pickPreset(ctrl.Presets(), fields[1:])
			if err != nil {
				r.printf("! %s\n", err)
				continue
			}
			ask(question)
		case cmdReset:
			// pending answers are printed before the page goes away
			wg.Wait()
			if err := r.session.Reset(ctx); err != nil {
				r.printf("! %s\n", constants.Messages.ConnectFailed)
			}
		default:
			ask(line)
		}
	}
}

type navigationError struct {
	route string
}

func (e navigationError) Error() string {
	return "navigated to " + e.route
}

// readLine waits for the next input line. When a navigation channel is given,
// a navigation wins over waiting input.
func (r *REPL) readLine(ctx context.Context, navigations ...<-chan string) (string, error) {
	var nav <-chan string
	if len(navigations) > 0 {
		nav = navigations[0]
	}

	select {
	case route := <-nav:
		return "", navigationError{route: route}
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case route := <-nav:
		return "", navigationError{route: route}
	case line, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func pickPreset(presets []string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s N", cmdPreset)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(presets) {
		return "", fmt.Errorf("preset must be between 1 and %d", len(presets))
	}
	return presets[n-1], nil
}

func (r *REPL) printChange(change dom.Change) {
	switch change.Op {
	case dom.OpAlert:
		r.printf("! %s\n", change.Value)
	case dom.OpText:
		if change.ElementID == domain.ElementSubmitTxt && change.Value == constants.Messages.ButtonBusy {
			r.printf("%s\n", change.Value)
		}
	case dom.OpAppend, dom.OpUpdate:
		if msg := change.Message; msg != nil {
			r.printf("%s [%d] %s\n", msg.Role.Icon(), change.Index, msg.Text)
		}
	}
}

func (r *REPL) printProcessed(result *submission.Result) {
	if meta := result.Metadata; meta != nil && meta.Title != "" {
		r.printf("Processed %q by %s\n", meta.Title, meta.Author)
	}
	r.printf("Video: %s\n", result.WatchURL())
}

func (r *REPL) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	_, _ = fmt.Fprintf(r.out, format, args...)
}
