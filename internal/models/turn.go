package models

// PersonaFailure records a persona that did not answer during a turn.
type PersonaFailure struct {
	PersonaID string `json:"persona_id"`
	Role      Role   `json:"role"`
	Error     string `json:"error"`
}

// TurnResult is the outcome of one inbound message.
// Replies keep the routing order regardless of completion timing. An empty
// Replies slice means nobody answered; it is not an error.
type TurnResult struct {
	UserMessage Message          `json:"user_message"`
	Replies     []Message        `json:"replies"`
	Failed      []PersonaFailure `json:"failed,omitempty"`
}
