package domain

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Icon is the avatar glyph shown next to a bubble.
func (r Role) Icon() string {
	if r == RoleUser {
		return "👤"
	}
	return "🤖"
}

// Message is the view-model of one chat bubble.
type Message struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}
