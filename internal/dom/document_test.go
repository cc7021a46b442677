package dom

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kapu/video-qa-client/internal/domain"
	clienterrors "github.com/kapu/video-qa-client/pkg/errors"
)

const samplePage = `<!doctype html>
<html><body>
  <input id="ytUrl" type="text" value="  https://youtu.be/dQw4w9WgXcQ ">
  <button id="processBtn"><span id="btnText">Process Video</span></button>
  <div id="loadingSpinner" class="spin hidden"></div>
  <p id="urlError" hidden>Invalid</p>
  <img id="vThumb" src="/static/placeholder.png">
  <textarea id="notes">draft</textarea>
  <div id="chatMessages"></div>
  <span class="no-id">ignored</span>
</body></html>`

func loadSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(strings.NewReader(samplePage))
	require.NoError(t, err)
	return doc
}

func TestLoadSeedsElementState(t *testing.T) {
	doc := loadSample(t)

	require.Equal(t, []string{"btnText", "chatMessages", "loadingSpinner", "notes", "processBtn", "urlError", "vThumb", "ytUrl"}, doc.IDs())

	input, err := doc.Element("ytUrl")
	require.NoError(t, err)
	require.Equal(t, "input", input.Tag())
	require.Equal(t, "  https://youtu.be/dQw4w9WgXcQ ", input.Value())

	spinner, _ := doc.Element("loadingSpinner")
	require.True(t, spinner.Hidden())

	urlError, _ := doc.Element("urlError")
	require.True(t, urlError.Hidden())

	label, _ := doc.Element("btnText")
	require.Equal(t, "Process Video", label.Text())

	thumb, _ := doc.Element("vThumb")
	require.Equal(t, "/static/placeholder.png", thumb.Src())

	notes, _ := doc.Element("notes")
	require.Equal(t, "draft", notes.Value())
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	_, err := Load(strings.NewReader(`<div id="a"></div><div id="a"></div>`))
	var domErr *clienterrors.DOMError
	require.True(t, errors.As(err, &domErr))
	require.Equal(t, "a", domErr.ElementID)
}

func TestMissingElementIsDOMError(t *testing.T) {
	doc := New()
	_, err := doc.Element("nope")
	var domErr *clienterrors.DOMError
	require.True(t, errors.As(err, &domErr))

	_, err = doc.MessageList("nope")
	require.True(t, errors.As(err, &domErr))
}

func TestSettersEmitOnlyOnChange(t *testing.T) {
	doc := loadSample(t)
	var changes []Change
	unsubscribe := doc.OnChange(func(c Change) { changes = append(changes, c) })

	button, _ := doc.Element("processBtn")
	button.SetDisabled(true)
	button.SetDisabled(true)

	spinner, _ := doc.Element("loadingSpinner")
	spinner.Show()

	input, _ := doc.Element("ytUrl")
	input.SetValue("")

	require.Len(t, changes, 3)
	require.Equal(t, Change{Op: OpDisabled, ElementID: "processBtn", Flag: true}, changes[0])
	require.Equal(t, Change{Op: OpHidden, ElementID: "loadingSpinner", Flag: false}, changes[1])
	require.Equal(t, Change{Op: OpValue, ElementID: "ytUrl", Value: ""}, changes[2])

	unsubscribe()
	button.SetDisabled(false)
	require.Len(t, changes, 3)
	require.False(t, button.Disabled())
}

func TestWindowEffects(t *testing.T) {
	doc := New()
	var changes []Change
	doc.OnChange(func(c Change) { changes = append(changes, c) })

	doc.Alert("boom")
	doc.Navigate("/chat")

	require.Equal(t, []Change{{Op: OpAlert, Value: "boom"}, {Op: OpNavigate, Value: "/chat"}}, changes)
}

func TestMessageListAppendAndUpdateInPlace(t *testing.T) {
	doc := loadSample(t)
	list, err := doc.MessageList("chatMessages")
	require.NoError(t, err)

	same, err := doc.MessageList("chatMessages")
	require.NoError(t, err)
	require.Same(t, list, same)

	var changes []Change
	doc.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, list.Append(domain.Message{ID: "u1", Role: domain.RoleUser, Text: "hello"}))
	require.NoError(t, list.Append(domain.Message{ID: "a1", Role: domain.RoleAssistant, Text: "..."}))
	require.True(t, list.AtBottom())
	require.Equal(t, 2, list.ScrollTop())
	require.Equal(t, 2, list.ScrollHeight())

	require.True(t, list.Update("a1", "world"))
	require.False(t, list.Update("missing", "x"))

	msg, position, ok := list.Message("a1")
	require.True(t, ok)
	require.Equal(t, 1, position)
	require.Equal(t, "world", msg.Text)
	require.Equal(t, domain.RoleAssistant, msg.Role)

	ops := make([]Op, 0, len(changes))
	for _, c := range changes {
		ops = append(ops, c.Op)
	}
	require.Equal(t, []Op{OpAppend, OpScroll, OpAppend, OpScroll, OpUpdate}, ops)
	require.Equal(t, 1, changes[4].Index)
	require.Equal(t, "world", changes[4].Message.Text)
}

func TestMessageListRejectsBadMessages(t *testing.T) {
	doc := loadSample(t)
	list, _ := doc.MessageList("chatMessages")

	require.Error(t, list.Append(domain.Message{Role: domain.RoleUser, Text: "no id"}))
	require.Error(t, list.Append(domain.Message{ID: "x", Role: "system", Text: "bad role"}))
	require.NoError(t, list.Append(domain.Message{ID: "x", Role: domain.RoleUser, Text: "ok"}))
	require.Error(t, list.Append(domain.Message{ID: "x", Role: domain.RoleAssistant, Text: "dup"}))
	require.Equal(t, 1, list.Len())
}

func TestMessagesReturnsCopy(t *testing.T) {
	doc := loadSample(t)
	list, _ := doc.MessageList("chatMessages")
	require.NoError(t, list.Append(domain.Message{ID: "x", Role: domain.RoleUser, Text: "ok"}))

	snapshot := list.Messages()
	snapshot[0].Text = "mutated"

	msg, _, _ := list.Message("x")
	require.Equal(t, "ok", msg.Text)
}

func TestConcurrentAppends(t *testing.T) {
	doc := loadSample(t)
	list, _ := doc.MessageList("chatMessages")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = list.Append(domain.Message{ID: strings.Repeat("m", i+1), Role: domain.RoleUser, Text: "hi"})
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, list.Len())
	require.True(t, list.AtBottom())
}
