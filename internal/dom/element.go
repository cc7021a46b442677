package dom

// Element is a handle on one identified node. Its state is guarded by the
// owning document.
type Element struct {
	doc      *Document
	id       string
	tag      string
	text     string
	value    string
	src      string
	disabled bool
	hidden   bool
}

func (e *Element) ID() string {
	return e.id
}

func (e *Element) Tag() string {
	return e.tag
}

func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.text
}

func (e *Element) Value() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.value
}

func (e *Element) Src() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.src
}

func (e *Element) Disabled() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.disabled
}

func (e *Element) Hidden() bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.hidden
}

// SetText replaces the element's text content. The value is stored as plain
// text; presenters must escape it.
func (e *Element) SetText(text string) {
	e.setString(&e.text, text, OpText)
}

func (e *Element) SetValue(value string) {
	e.setString(&e.value, value, OpValue)
}

func (e *Element) SetSrc(src string) {
	e.setString(&e.src, src, OpSrc)
}

func (e *Element) SetDisabled(disabled bool) {
	e.setBool(&e.disabled, disabled, OpDisabled)
}

func (e *Element) Show() {
	e.setBool(&e.hidden, false, OpHidden)
}

func (e *Element) Hide() {
	e.setBool(&e.hidden, true, OpHidden)
}

func (e *Element) setString(field *string, value string, op Op) {
	e.doc.mu.Lock()
	if *field == value {
		e.doc.mu.Unlock()
		return
	}
	*field = value
	e.doc.mu.Unlock()

	e.doc.emit(Change{Op: op, ElementID: e.id, Value: value})
}

func (e *Element) setBool(field *bool, value bool, op Op) {
	e.doc.mu.Lock()
	if *field == value {
		e.doc.mu.Unlock()
		return
	}
	*field = value
	e.doc.mu.Unlock()

	e.doc.emit(Change{Op: op, ElementID: e.id, Flag: value})
}
