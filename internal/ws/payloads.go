package ws

// Message is the envelope of every frame. Engine events keep their type
// (session_claimed, ad_bonus_granted, ...) and carry the event payload.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client → server
type ClientMessage struct {
	Type string `json:"type"`
}

// server → client
type ReadyPayload struct {
	UserID int64 `json:"user_id"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
