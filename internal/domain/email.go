package domain

// Email is a single mailbox item as seen by the bot.
type Email struct {
	ID      string   `json:"id"`
	Subject string   `json:"subject"`
	From    string   `json:"from"`
	Date    string   `json:"date"`
	Snippet string   `json:"snippet,omitempty"`
	Body    string   `json:"body,omitempty"`
	Labels  []string `json:"labels,omitempty"`
}

// Label is a mailbox label.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // "system" or "user"
}

// SendResult reports the outcome of sending a message.
type SendResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"` // failure description when !OK
}

// UnsubscribeInfo describes how to unsubscribe from a sender's mail.
type UnsubscribeInfo struct {
	Email            Email    `json:"email"`
	UnsubscribeLinks []string `json:"unsubscribeLinks,omitempty"`
	UnsubscribeEmail string   `json:"unsubscribeEmail,omitempty"`
	HasUnsubscribe   bool     `json:"hasUnsubscribe"`
}
