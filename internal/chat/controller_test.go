package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/video-qa-client/internal/api"
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/internal/render"
	clienterrors "github.com/kapu/video-qa-client/pkg/errors"
)

type askReply struct {
	resp *api.AskQuestionResponse
	err  error
}

type fakeAsker struct {
	mu        sync.Mutex
	questions []string

	reply   askReply
	pending map[string]chan askReply
	started chan string

	meta    *api.VideoMetadataResponse
	metaErr error
}

func (f *fakeAsker) AskQuestion(_ context.Context, question string) (*api.AskQuestionResponse, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	ch := f.pending[question]
	f.mu.Unlock()

	if ch == nil {
		return f.reply.resp, f.reply.err
	}
	if f.started != nil {
		f.started <- question
	}
	reply := <-ch
	return reply.resp, reply.err
}

func (f *fakeAsker) VideoMetadata(context.Context) (*api.VideoMetadataResponse, error) {
	return f.meta, f.metaErr
}

func newChatPage(t *testing.T) (*dom.Document, Elements) {
	t.Helper()

	html, err := render.ChatPage(render.ChatData{
		Metadata: domain.VideoMetadata{Title: "Loading...", Author: "", ThumbnailURL: ""},
	})
	if err != nil {
		t.Fatalf("render chat: %v", err)
	}
	doc, err := dom.Load(strings.NewReader(html))
	if err != nil {
		t.Fatalf("load chat: %v", err)
	}
	els, err := BindElements(doc)
	if err != nil {
		t.Fatalf("bind elements: %v", err)
	}
	return doc, els
}

func newTestController(t *testing.T, asker Asker) (*Controller, *dom.Document, Elements) {
	t.Helper()

	doc, els := newChatPage(t)
	var (
		mu  sync.Mutex
		seq int
	)
	ctrl, err := NewController(Dependencies{
		API:      asker,
		Elements: els,
		Logger:   zap.NewNop(),
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("id%d", seq)
		},
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl, doc, els
}

func TestAskAppendsBubblesAndRewritesPlaceholder(t *testing.T) {
	asker := &fakeAsker{reply: askReply{resp: &api.AskQuestionResponse{Answer: "world"}}}
	ctrl, doc, els := newTestController(t, asker)

	var ops []dom.Op
	doc.OnChange(func(change dom.Change) {
		if change.ElementID == domain.ElementMessages {
			ops = append(ops, change.Op)
		}
	})

	els.Input.SetValue("  hello ")
	exchange, err := ctrl.Ask(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	messages := els.Messages.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected two bubbles, got %d", len(messages))
	}
	if messages[0].Role != domain.RoleUser || messages[0].Text != "hello" {
		t.Fatalf("unexpected user bubble %+v", messages[0])
	}
	if messages[1].Role != domain.RoleAssistant || messages[1].Text != "world" {
		t.Fatalf("unexpected assistant bubble %+v", messages[1])
	}
	if messages[1].ID != exchange.PlaceholderID || !strings.HasPrefix(exchange.PlaceholderID, "ai-loading-") {
		t.Fatalf("placeholder id not kept: %q vs %q", messages[1].ID, exchange.PlaceholderID)
	}
	if exchange.Outcome != OutcomeAnswered || exchange.Text != "world" {
		t.Fatalf("unexpected exchange %+v", exchange)
	}
	if els.Input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", els.Input.Value())
	}
	if len(asker.questions) != 1 || asker.questions[0] != "hello" {
		t.Fatalf("expected exactly one request for hello, got %v", asker.questions)
	}

	want := []dom.Op{dom.OpAppend, dom.OpScroll, dom.OpAppend, dom.OpScroll, dom.OpUpdate}
	if fmt.Sprint(ops) != fmt.Sprint(want) {
		t.Fatalf("unexpected change order %v", ops)
	}
	if !els.Messages.AtBottom() {
		t.Fatalf("expected message list scrolled to bottom")
	}
}

func TestAskShowsPlaceholderWhileWaiting(t *testing.T) {
	release := make(chan askReply)
	asker := &fakeAsker{
		pending: map[string]chan askReply{"slow": release},
		started: make(chan string, 1),
	}
	ctrl, _, els := newTestController(t, asker)
	els.Input.SetValue("slow")

	done := make(chan *Exchange, 1)
	go func() {
		exchange, _ := ctrl.Ask(context.Background())
		done <- exchange
	}()

	<-asker.started
	messages := els.Messages.Messages()
	if len(messages) != 2 || messages[1].Text != "..." {
		t.Fatalf("expected placeholder while waiting, got %+v", messages)
	}

	release <- askReply{resp: &api.AskQuestionResponse{Answer: "done"}}
	exchange := <-done
	if exchange.Text != "done" {
		t.Fatalf("unexpected answer %q", exchange.Text)
	}
}

func TestConcurrentAsksResolveIndependently(t *testing.T) {
	first := make(chan askReply)
	second := make(chan askReply)
	asker := &fakeAsker{
		pending: map[string]chan askReply{"first": first, "second": second},
		started: make(chan string, 2),
	}
	ctrl, _, els := newTestController(t, asker)

	results := make(chan *Exchange, 2)
	ask := func(question string) {
		exchange, err := ctrl.AskPreset(context.Background(), question)
		if err != nil {
			t.Errorf("ask %s: %v", question, err)
		}
		results <- exchange
	}

	go ask("first")
	<-asker.started
	go ask("second")
	<-asker.started

	messages := els.Messages.Messages()
	if len(messages) != 4 {
		t.Fatalf("expected four bubbles before any answer, got %d", len(messages))
	}
	firstPlaceholder, secondPlaceholder := messages[1].ID, messages[3].ID
	if firstPlaceholder == secondPlaceholder {
		t.Fatalf("expected distinct placeholder ids, got %q twice", firstPlaceholder)
	}

	second <- askReply{resp: &api.AskQuestionResponse{Answer: "answer two"}}
	resolved := <-results
	if resolved.PlaceholderID != secondPlaceholder {
		t.Fatalf("expected the second exchange to resolve first, got %+v", resolved)
	}

	msg, index, ok := els.Messages.Message(secondPlaceholder)
	if !ok || msg.Text != "answer two" || index != 3 {
		t.Fatalf("unexpected second placeholder %+v at %d", msg, index)
	}
	msg, _, ok = els.Messages.Message(firstPlaceholder)
	if !ok || msg.Text != "..." {
		t.Fatalf("first placeholder should still be pending, got %+v", msg)
	}

	first <- askReply{resp: &api.AskQuestionResponse{Answer: "answer one"}}
	<-results
	msg, index, _ = els.Messages.Message(firstPlaceholder)
	if msg.Text != "answer one" || index != 1 {
		t.Fatalf("unexpected first placeholder %+v at %d", msg, index)
	}
}

func TestAskFailureTexts(t *testing.T) {
	cases := []struct {
		name    string
		reply   askReply
		outcome Outcome
		text    string
	}{
		{
			name:    "structured error",
			reply:   askReply{resp: &api.AskQuestionResponse{Envelope: api.Envelope{StatusCode: 500, Error: "model offline"}}},
			outcome: OutcomeFailed,
			text:    "Error: model offline",
		},
		{
			name:    "missing answer",
			reply:   askReply{resp: &api.AskQuestionResponse{}},
			outcome: OutcomeFailed,
			text:    "Error: Unknown error",
		},
		{
			name:    "malformed body",
			reply:   askReply{err: clienterrors.NewResponseError("unexpected response shape", "/api/ask-question", 200, nil)},
			outcome: OutcomeFailed,
			text:    "Error: Unknown error",
		},
		{
			name:    "unreachable",
			reply:   askReply{err: clienterrors.NewTransportError("request failed", "/api/ask-question", errors.New("refused"))},
			outcome: OutcomeUnreachable,
			text:    "Failed to connect to server",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asker := &fakeAsker{reply: tc.reply}
			ctrl, _, els := newTestController(t, asker)
			els.Input.SetValue("why?")

			exchange, err := ctrl.Ask(context.Background())
			if err == nil {
				t.Fatalf("expected an error")
			}
			if exchange.Outcome != tc.outcome || exchange.Text != tc.text {
				t.Fatalf("unexpected exchange %+v", exchange)
			}
			msg, _, ok := els.Messages.Message(exchange.PlaceholderID)
			if !ok || msg.Text != tc.text {
				t.Fatalf("placeholder not rewritten: %+v", msg)
			}
			if els.Messages.Len() != 2 {
				t.Fatalf("expected no extra bubbles, got %d", els.Messages.Len())
			}
		})
	}
}

func TestAskEmptyQuestionHasNoEffect(t *testing.T) {
	asker := &fakeAsker{}
	ctrl, doc, els := newTestController(t, asker)

	changed := false
	doc.OnChange(func(dom.Change) { changed = true })

	els.Input.SetValue("   ")
	changed = false
	if _, err := ctrl.Ask(context.Background()); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if changed || els.Messages.Len() != 0 || len(asker.questions) != 0 {
		t.Fatalf("expected no side effects")
	}
}

func TestLoadMetadataFillsHeader(t *testing.T) {
	asker := &fakeAsker{meta: &api.VideoMetadataResponse{
		Title:     "Go Concurrency",
		Author:    "Gopher",
		Thumbnail: "https://img.example/t.jpg",
	}}
	ctrl, _, els := newTestController(t, asker)

	meta, ok := ctrl.LoadMetadata(context.Background())
	if !ok || meta.Title != "Go Concurrency" {
		t.Fatalf("expected metadata, got %+v %v", meta, ok)
	}
	if els.Title.Text() != "Go Concurrency" || els.Author.Text() != "Gopher" {
		t.Fatalf("header text not set: %q %q", els.Title.Text(), els.Author.Text())
	}
	if els.Thumb.Src() != "https://img.example/t.jpg" {
		t.Fatalf("thumbnail not set: %q", els.Thumb.Src())
	}
}

func TestLoadMetadataFailureIsSilent(t *testing.T) {
	cases := map[string]*fakeAsker{
		"error body": {meta: &api.VideoMetadataResponse{Envelope: api.Envelope{StatusCode: 400, Error: "x"}}},
		"transport":  {metaErr: clienterrors.NewTransportError("request failed", "/api/video-metadata", nil)},
	}

	for name, asker := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl, doc, els := newTestController(t, asker)

			var changes []dom.Change
			doc.OnChange(func(change dom.Change) { changes = append(changes, change) })

			if _, ok := ctrl.LoadMetadata(context.Background()); ok {
				t.Fatalf("expected metadata load to fail")
			}
			if len(changes) != 0 {
				t.Fatalf("expected no page changes or alerts, got %+v", changes)
			}
			if els.Title.Text() != "Loading..." || els.Author.Text() != "" || els.Thumb.Src() != "" {
				t.Fatalf("header should be untouched")
			}
		})
	}
}

func TestPresetsDefaultAndCopy(t *testing.T) {
	ctrl, _, _ := newTestController(t, &fakeAsker{})

	presets := ctrl.Presets()
	if len(presets) != 3 {
		t.Fatalf("expected default presets, got %v", presets)
	}
	presets[0] = "changed"
	if ctrl.Presets()[0] == "changed" {
		t.Fatalf("expected Presets to return a copy")
	}
}

func TestBindElementsReportsMissingList(t *testing.T) {
	doc := dom.New()
	if _, err := BindElements(doc); err == nil {
		t.Fatalf("expected missing message list to fail")
	}
}

func TestAskQuestionConcurrentCallersKeepPairs(t *testing.T) {
	asker := &fakeAsker{reply: askReply{resp: &api.AskQuestionResponse{Answer: "ok"}}}
	ctrl, _, els := newTestController(t, asker)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := ctrl.AskQuestion(context.Background(), fmt.Sprintf("q%d", i)); err != nil {
				t.Errorf("ask q%d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	messages := els.Messages.Messages()
	if len(messages) != 2*n {
		t.Fatalf("expected %d bubbles, got %d", 2*n, len(messages))
	}
	seen := make(map[string]bool)
	for i := 0; i < len(messages); i += 2 {
		if messages[i].Role != domain.RoleUser || messages[i+1].Role != domain.RoleAssistant {
			t.Fatalf("bubbles out of pairing at %d: %+v %+v", i, messages[i], messages[i+1])
		}
		if messages[i+1].Text != "ok" {
			t.Fatalf("placeholder %d not resolved: %q", i+1, messages[i+1].Text)
		}
		seen[messages[i].Text] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct questions, got %d", n, len(seen))
	}
}

func TestAskIDCollisionLeavesPageUntouched(t *testing.T) {
	asker := &fakeAsker{reply: askReply{resp: &api.AskQuestionResponse{Answer: "ok"}}}
	_, els := newChatPage(t)
	ctrl, err := NewController(Dependencies{
		API:      asker,
		Elements: els,
		Logger:   zap.NewNop(),
		NewID:    func() string { return "fixed" },
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if _, err := ctrl.AskQuestion(context.Background(), "first"); err != nil {
		t.Fatalf("first ask: %v", err)
	}

	_, err = ctrl.AskQuestion(context.Background(), "second")
	var domErr *clienterrors.DOMError
	if !errors.As(err, &domErr) || domErr.ElementID != "user-fixed" {
		t.Fatalf("expected duplicate id error for user-fixed, got %v", err)
	}
	if els.Messages.Len() != 2 {
		t.Fatalf("expected no bubble from the rejected ask, got %d", els.Messages.Len())
	}
	if els.Input.Value() != "second" {
		t.Fatalf("expected input to keep the rejected question, got %q", els.Input.Value())
	}
	if len(asker.questions) != 1 {
		t.Fatalf("expected one request, got %v", asker.questions)
	}
}
