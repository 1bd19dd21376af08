package model

// Status is a user's online status.
type Status string

const (
	StatusOnline    Status = "online"
	StatusIdle      Status = "idle"
	StatusDND       Status = "dnd"
	StatusInvisible Status = "invisible"
	StatusOffline   Status = "offline"
)

// Activity is something a user is doing.
type Activity struct {
	Name      string `json:"name"`
	Type      int    `json:"type"`
	URL       string `json:"url,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	Details   string `json:"details,omitempty"`
	State     string `json:"state,omitempty"`
}

// ClientStatus is the per-platform status of a user.
type ClientStatus struct {
	Desktop Status `json:"desktop,omitempty"`
	Mobile  Status `json:"mobile,omitempty"`
	Web     Status `json:"web,omitempty"`
}

// Presence is a user's status within a guild. Only User.ID is guaranteed to be set.
type Presence struct {
	User         User         `json:"user"`
	GuildID      ID           `json:"guild_id,omitempty"`
	Status       Status       `json:"status"`
	Activities   []Activity   `json:"activities"`
	ClientStatus ClientStatus `json:"client_status"`
}

// VoiceState is a user's voice connection state. ChannelID is nil when the user left voice.
type VoiceState struct {
	GuildID                 ID         `json:"guild_id,omitempty"`
	ChannelID               *ID        `json:"channel_id"`
	UserID                  ID         `json:"user_id"`
	Member                  *Member    `json:"member,omitempty"`
	SessionID               string     `json:"session_id"`
	Deaf                    bool       `json:"deaf"`
	Mute                    bool       `json:"mute"`
	SelfDeaf                bool       `json:"self_deaf"`
	SelfMute                bool       `json:"self_mute"`
	SelfStream              bool       `json:"self_stream,omitempty"`
	SelfVideo               bool       `json:"self_video"`
	Suppress                bool       `json:"suppress"`
	RequestToSpeakTimestamp *Timestamp `json:"request_to_speak_timestamp,omitempty"`
}
