package web

import (
	"github.com/kapu/video-qa-client/internal/dom"
	"github.com/kapu/video-qa-client/internal/render"
)

// Patch is one server to browser update. Value is always sent so that a
// cleared field arrives as "".
type Patch struct {
	Op        string `json:"op"`
	ID        string `json:"id,omitempty"`
	Value     string `json:"value"`
	Flag      bool   `json:"flag,omitempty"`
	HTML      string `json:"html,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Event is one browser to server action.
type Event struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

const (
	EventSubmit = "submit"
	EventAsk    = "ask"
	EventPreset = "preset"
	EventReset  = "reset"
)

func patchFromChange(change dom.Change) (Patch, error) {
	patch := Patch{
		Op:    change.Op.String(),
		ID:    change.ElementID,
		Value: change.Value,
		Flag:  change.Flag,
	}

	switch change.Op {
	case dom.OpAppend:
		if change.Message != nil {
			html, err := render.Bubble(*change.Message)
			if err != nil {
				return Patch{}, err
			}
			patch.HTML = string(html)
			patch.MessageID = change.Message.ID
		}
	case dom.OpUpdate:
		if change.Message != nil {
			patch.MessageID = change.Message.ID
			patch.Value = change.Message.Text
		}
	}

	return patch, nil
}
