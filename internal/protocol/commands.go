package protocol

import "github.com/luciancaetano/shardnet/model"

// Command is an outbound gateway payload.
type Command interface {
	OpCode() OpCode
}

// IdentifyProperties describes the connecting client.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// Identify starts a new session.
type Identify struct {
	Token          string             `json:"token"`
	Properties     IdentifyProperties `json:"properties"`
	Compress       bool               `json:"compress,omitempty"`
	LargeThreshold int                `json:"large_threshold,omitempty"`
	Shard          [2]uint32          `json:"shard"`
	Presence       *UpdatePresence    `json:"presence,omitempty"`
	Intents        model.Intents      `json:"intents"`
}

// Resume replays the events missed since Sequence on session SessionID.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  uint64 `json:"seq"`
}

// Heartbeat reports the last sequence received; nil before the first dispatch.
type Heartbeat struct {
	Sequence *uint64
}

// UpdatePresence changes the current user's presence.
type UpdatePresence struct {
	Since      *int64           `json:"since"`
	Activities []model.Activity `json:"activities"`
	Status     model.Status     `json:"status"`
	AFK        bool             `json:"afk"`
}

// UpdateVoiceState joins, moves or leaves a voice channel.
type UpdateVoiceState struct {
	GuildID   model.ID  `json:"guild_id"`
	ChannelID *model.ID `json:"channel_id"`
	SelfMute  bool      `json:"self_mute"`
	SelfDeaf  bool      `json:"self_deaf"`
}

// RequestGuildMembers asks for Guild Members Chunk dispatches.
type RequestGuildMembers struct {
	GuildID   model.ID   `json:"guild_id"`
	Query     *string    `json:"query,omitempty"`
	Limit     int        `json:"limit"`
	Presences bool       `json:"presences,omitempty"`
	UserIDs   []model.ID `json:"user_ids,omitempty"`
	Nonce     string     `json:"nonce,omitempty"`
}

func (Identify) OpCode() OpCode            { return OpIdentify }
func (Resume) OpCode() OpCode              { return OpResume }
func (Heartbeat) OpCode() OpCode           { return OpHeartbeat }
func (UpdatePresence) OpCode() OpCode      { return OpPresenceUpdate }
func (UpdateVoiceState) OpCode() OpCode    { return OpVoiceStateUpdate }
func (RequestGuildMembers) OpCode() OpCode { return OpRequestGuildMembers }
