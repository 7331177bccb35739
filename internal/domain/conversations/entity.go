package conversations

import "time"

// Turn is one message of a dialogue, vendor-neutral.
type Turn struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Session: the persisted state of one investigation dialogue. LastTurnID
// is the threading anchor; a follow-up must reference it or the session
// has lost coherence.
type Session struct {
	ID         string    `json:"id"`
	Turns      []Turn    `json:"turns"`
	LastTurnID string    `json:"last_turn_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}
