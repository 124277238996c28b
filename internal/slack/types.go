package slack

// Channel is one conversation from conversations.list.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	IsMember   bool   `json:"is_member"`
	NumMembers int    `json:"num_members"`
	Topic      struct {
		Value string `json:"value"`
	} `json:"topic"`
}

// Message is one message from conversations.history.
type Message struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp string `json:"ts"`
	ThreadTS  string `json:"thread_ts,omitempty"`
}

// MessageRef identifies a posted message; the timestamp doubles as the
// message id within its channel.
type MessageRef struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"ts"`
}
