package dom

import "github.com/kapu/video-qa-client/internal/domain"

type Op string

const (
	OpText     Op = "text"
	OpValue    Op = "value"
	OpSrc      Op = "src"
	OpDisabled Op = "disabled"
	OpHidden   Op = "hidden"
	OpAppend   Op = "append"
	OpUpdate   Op = "update"
	OpScroll   Op = "scroll"
	OpAlert    Op = "alert"
	OpNavigate Op = "navigate"
)

func (o Op) String() string {
	return string(o)
}

// Change describes one mutation of a document or one window-level effect.
// Message and Index are set for message list operations; Index is also the
// scroll position for OpScroll.
type Change struct {
	Op        Op
	ElementID string
	Value     string
	Flag      bool
	Message   *domain.Message
	Index     int
}

type ChangeCallback func(change Change)

type callbackEntry struct {
	id       int
	callback ChangeCallback
}

// OnChange registers callback for every subsequent change and returns a func
// that removes it. Callbacks run on the goroutine that made the change,
// outside the document lock.
func (d *Document) OnChange(callback ChangeCallback) func() {
	d.callbacksMu.Lock()
	id := d.nextCallbackID
	d.nextCallbackID++
	d.callbacks = append(d.callbacks, callbackEntry{
		id:       id,
		callback: callback,
	})
	d.callbacksMu.Unlock()

	return func() {
		d.callbacksMu.Lock()
		defer d.callbacksMu.Unlock()
		for i, entry := range d.callbacks {
			if entry.id == id {
				d.callbacks = append(d.callbacks[:i], d.callbacks[i+1:]...)
				break
			}
		}
	}
}

func (d *Document) emit(change Change) {
	d.callbacksMu.RLock()
	callbacks := make([]callbackEntry, len(d.callbacks))
	copy(callbacks, d.callbacks)
	d.callbacksMu.RUnlock()

	for _, entry := range callbacks {
		entry.callback(change)
	}
}

// Alert reports a blocking user-facing message.
func (d *Document) Alert(message string) {
	d.emit(Change{Op: OpAlert, Value: message})
}

// Navigate requests a full navigation away from this document.
func (d *Document) Navigate(route string) {
	d.emit(Change{Op: OpNavigate, Value: route})
}
