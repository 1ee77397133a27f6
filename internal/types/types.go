package types

type ClientMessage struct {
	Type string `json:"type"` // "Text" | "Callback"
	Text string `json:"text,omitempty"`
	Data string `json:"data,omitempty"`
}

type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

type ServerMessage struct {
	Type      string     `json:"type"` // "Hello" | "Message" | "Edit" | "Error"
	PlayerID  string     `json:"player_id,omitempty"`
	ChatID    string     `json:"chat_id,omitempty"`
	MessageID int64      `json:"message_id,omitempty"`
	Text      string     `json:"text,omitempty"`
	Keyboard  [][]Button `json:"keyboard,omitempty"` // empty on Edit clears the buttons
	Error     string     `json:"error,omitempty"`
}
