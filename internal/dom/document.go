// Package dom is an in-memory page model: elements keyed by identifier,
// a message list, and a feed of changes for whatever is presenting the page.
package dom

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/kapu/video-qa-client/internal/util"
	"github.com/kapu/video-qa-client/pkg/errors"
)

type Document struct {
	mu       sync.RWMutex
	elements map[string]*Element
	lists    map[string]*MessageList

	callbacks      []callbackEntry
	nextCallbackID int
	callbacksMu    sync.RWMutex
}

func New() *Document {
	return &Document{
		elements:       make(map[string]*Element),
		lists:          make(map[string]*MessageList),
		callbacks:      make([]callbackEntry, 0),
		nextCallbackID: 1,
	}
}

// Load parses page markup and registers every element that carries an id,
// seeding its state from the markup.
func Load(r io.Reader) (*Document, error) {
	parsed, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	doc := New()
	var loadErr error
	parsed.Find("[id]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id := strings.TrimSpace(sel.AttrOr("id", ""))
		if id == "" {
			return true
		}
		if _, exists := doc.elements[id]; exists {
			loadErr = errors.NewDOMError("duplicate element id", id)
			return false
		}
		doc.elements[id] = elementFromSelection(doc, id, sel)
		return true
	})
	if loadErr != nil {
		return nil, loadErr
	}

	return doc, nil
}

func elementFromSelection(doc *Document, id string, sel *goquery.Selection) *Element {
	tag := goquery.NodeName(sel)
	_, disabled := sel.Attr("disabled")
	_, hiddenAttr := sel.Attr("hidden")

	el := &Element{
		doc:      doc,
		id:       id,
		tag:      tag,
		src:      sel.AttrOr("src", ""),
		disabled: disabled,
		hidden:   hiddenAttr || util.HasClass(sel.AttrOr("class", ""), "hidden"),
	}

	switch tag {
	case "input":
		el.value = sel.AttrOr("value", "")
	case "textarea":
		el.value = sel.Text()
	default:
		el.text = strings.TrimSpace(sel.Text())
	}

	return el
}

func (d *Document) Element(id string) (*Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	el, ok := d.elements[id]
	if !ok {
		return nil, errors.NewDOMError("element not found", id)
	}
	return el, nil
}

// MessageList returns the message list backed by the element with id. The
// same list is returned on every call.
func (d *Document) MessageList(id string) (*MessageList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if list, ok := d.lists[id]; ok {
		return list, nil
	}
	el, ok := d.elements[id]
	if !ok {
		return nil, errors.NewDOMError("element not found", id)
	}

	list := &MessageList{
		doc:   d,
		el:    el,
		index: make(map[string]int),
	}
	d.lists[id] = list
	return list, nil
}

func (d *Document) IDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.elements))
	for id := range d.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
