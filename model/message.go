package model

// Attachment is a file attached to a message.
type Attachment struct {
	ID          ID     `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int    `json:"size"`
	URL         string `json:"url"`
	ProxyURL    string `json:"proxy_url"`
	Height      *int   `json:"height,omitempty"`
	Width       *int   `json:"width,omitempty"`
}

// Reaction is an aggregated emoji reaction on a message.
type Reaction struct {
	Count int   `json:"count"`
	Me    bool  `json:"me"`
	Emoji Emoji `json:"emoji"`
}

// Message is a message sent in a channel.
type Message struct {
	ID              ID           `json:"id"`
	ChannelID       ID           `json:"channel_id"`
	GuildID         *ID          `json:"guild_id,omitempty"`
	Author          User         `json:"author"`
	Member          *Member      `json:"member,omitempty"`
	Content         string       `json:"content"`
	Timestamp       Timestamp    `json:"timestamp"`
	EditedTimestamp *Timestamp   `json:"edited_timestamp,omitempty"`
	TTS             bool         `json:"tts"`
	MentionEveryone bool         `json:"mention_everyone"`
	Mentions        []User       `json:"mentions"`
	MentionRoles    []ID         `json:"mention_roles"`
	Attachments     []Attachment `json:"attachments"`
	Reactions       []Reaction   `json:"reactions,omitempty"`
	Pinned          bool         `json:"pinned"`
	WebhookID       *ID          `json:"webhook_id,omitempty"`
	Type            int          `json:"type"`
	Flags           int          `json:"flags,omitempty"`
}
