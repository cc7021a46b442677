package dom

import (
	"github.com/kapu/video-qa-client/internal/domain"
	"github.com/kapu/video-qa-client/pkg/errors"
)

// MessageList is the ordered set of chat bubbles inside a container element.
// Bubbles are never removed; each keeps its identifier and position.
type MessageList struct {
	doc       *Document
	el        *Element
	messages  []domain.Message
	index     map[string]int
	scrollTop int
}

func (l *MessageList) ID() string {
	return l.el.id
}

// Append adds msg at the end and scrolls to the bottom. Identifiers must be
// unique within the list.
func (l *MessageList) Append(msg domain.Message) error {
	if msg.ID == "" {
		return errors.NewDOMError("message id is required", l.el.id)
	}
	if !msg.Role.IsValid() {
		return errors.NewDOMError("unknown message role "+msg.Role.String(), msg.ID)
	}

	l.doc.mu.Lock()
	if _, exists := l.index[msg.ID]; exists {
		l.doc.mu.Unlock()
		return errors.NewDOMError("duplicate message id", msg.ID)
	}
	position := len(l.messages)
	l.messages = append(l.messages, msg)
	l.index[msg.ID] = position
	l.scrollTop = len(l.messages)
	scrollTop := l.scrollTop
	l.doc.mu.Unlock()

	appended := msg
	l.doc.emit(Change{Op: OpAppend, ElementID: l.el.id, Message: &appended, Index: position})
	l.doc.emit(Change{Op: OpScroll, ElementID: l.el.id, Index: scrollTop})
	return nil
}

// Update replaces the text of the bubble with id in place. It reports false
// when no such bubble exists.
func (l *MessageList) Update(id, text string) bool {
	l.doc.mu.Lock()
	position, ok := l.index[id]
	if !ok {
		l.doc.mu.Unlock()
		return false
	}
	l.messages[position].Text = text
	updated := l.messages[position]
	l.doc.mu.Unlock()

	l.doc.emit(Change{Op: OpUpdate, ElementID: l.el.id, Message: &updated, Index: position})
	return true
}

// Message returns the bubble with id and its position.
func (l *MessageList) Message(id string) (domain.Message, int, bool) {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()

	position, ok := l.index[id]
	if !ok {
		return domain.Message{}, -1, false
	}
	return l.messages[position], position, true
}

func (l *MessageList) Messages() []domain.Message {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()

	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *MessageList) Len() int {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()
	return len(l.messages)
}

func (l *MessageList) ScrollTop() int {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()
	return l.scrollTop
}

// ScrollHeight is measured in bubbles.
func (l *MessageList) ScrollHeight() int {
	return l.Len()
}

func (l *MessageList) AtBottom() bool {
	l.doc.mu.RLock()
	defer l.doc.mu.RUnlock()
	return l.scrollTop == len(l.messages)
}
