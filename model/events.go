package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dispatch event names as they appear in the envelope's "t" field.
const (
	EventReady             = "READY"
	EventResumed           = "RESUMED"
	EventGuildCreate       = "GUILD_CREATE"
	EventGuildUpdate       = "GUILD_UPDATE"
	EventGuildDelete       = "GUILD_DELETE"
	EventChannelCreate     = "CHANNEL_CREATE"
	EventChannelUpdate     = "CHANNEL_UPDATE"
	EventChannelDelete     = "CHANNEL_DELETE"
	EventChannelPinsUpdate = "CHANNEL_PINS_UPDATE"
	EventGuildMemberAdd    = "GUILD_MEMBER_ADD"
	EventGuildMemberUpdate = "GUILD_MEMBER_UPDATE"
	EventGuildMemberRemove = "GUILD_MEMBER_REMOVE"
	EventGuildMembersChunk = "GUILD_MEMBERS_CHUNK"
	EventGuildRoleCreate   = "GUILD_ROLE_CREATE"
	EventGuildRoleUpdate   = "GUILD_ROLE_UPDATE"
	EventGuildRoleDelete   = "GUILD_ROLE_DELETE"
	EventGuildEmojisUpdate = "GUILD_EMOJIS_UPDATE"
	EventPresenceUpdate    = "PRESENCE_UPDATE"
	EventVoiceStateUpdate  = "VOICE_STATE_UPDATE"
	EventMessageCreate     = "MESSAGE_CREATE"
	EventMessageUpdate     = "MESSAGE_UPDATE"
	EventMessageDelete     = "MESSAGE_DELETE"
	EventMessageDeleteBulk = "MESSAGE_DELETE_BULK"
	EventUserUpdate        = "USER_UPDATE"
	EventTypingStart       = "TYPING_START"
)

// Event is a decoded dispatch payload.
type Event interface {
	EventName() string
}

// Application is the partial application object sent in Ready.
type Application struct {
	ID    ID  `json:"id"`
	Flags int `json:"flags,omitempty"`
}

type Ready struct {
	Version          int                `json:"v"`
	User             User               `json:"user"`
	Guilds           []UnavailableGuild `json:"guilds"`
	SessionID        string             `json:"session_id"`
	ResumeGatewayURL string             `json:"resume_gateway_url"`
	Shard            *[2]uint32         `json:"shard,omitempty"`
	Application      Application        `json:"application"`
}

type Resumed struct{}

type GuildCreate struct {
	Guild
}

type GuildUpdate struct {
	Guild
}

// GuildDelete with Unavailable set means an outage; otherwise the current user left the guild.
type GuildDelete struct {
	UnavailableGuild
}

type ChannelCreate struct {
	Channel
}

type ChannelUpdate struct {
	Channel
}

type ChannelDelete struct {
	Channel
}

type ChannelPinsUpdate struct {
	GuildID          *ID        `json:"guild_id,omitempty"`
	ChannelID        ID         `json:"channel_id"`
	LastPinTimestamp *Timestamp `json:"last_pin_timestamp,omitempty"`
}

type GuildMemberAdd struct {
	Member
}

type GuildMemberUpdate struct {
	Member
}

type GuildMemberRemove struct {
	GuildID ID   `json:"guild_id"`
	User    User `json:"user"`
}

type GuildMembersChunk struct {
	GuildID    ID         `json:"guild_id"`
	Members    []Member   `json:"members"`
	ChunkIndex int        `json:"chunk_index"`
	ChunkCount int        `json:"chunk_count"`
	NotFound   []ID       `json:"not_found,omitempty"`
	Presences  []Presence `json:"presences,omitempty"`
	Nonce      string     `json:"nonce,omitempty"`
}

type GuildRoleCreate struct {
	GuildID ID   `json:"guild_id"`
	Role    Role `json:"role"`
}

type GuildRoleUpdate struct {
	GuildID ID   `json:"guild_id"`
	Role    Role `json:"role"`
}

type GuildRoleDelete struct {
	GuildID ID `json:"guild_id"`
	RoleID  ID `json:"role_id"`
}

type GuildEmojisUpdate struct {
	GuildID ID      `json:"guild_id"`
	Emojis  []Emoji `json:"emojis"`
}

type PresenceUpdate struct {
	Presence
}

type VoiceStateUpdate struct {
	VoiceState
}

type MessageCreate struct {
	Message
}

// MessageUpdate carries only the fields that changed.
type MessageUpdate struct {
	ID              ID           `json:"id"`
	ChannelID       ID           `json:"channel_id"`
	GuildID         *ID          `json:"guild_id,omitempty"`
	Author          *User        `json:"author,omitempty"`
	Content         *string      `json:"content,omitempty"`
	EditedTimestamp *Timestamp   `json:"edited_timestamp,omitempty"`
	Mentions        []User       `json:"mentions,omitempty"`
	Attachments     []Attachment `json:"attachments,omitempty"`
	Pinned          *bool        `json:"pinned,omitempty"`
}

type MessageDelete struct {
	ID        ID  `json:"id"`
	ChannelID ID  `json:"channel_id"`
	GuildID   *ID `json:"guild_id,omitempty"`
}

type MessageDeleteBulk struct {
	IDs       []ID `json:"ids"`
	ChannelID ID   `json:"channel_id"`
	GuildID   *ID  `json:"guild_id,omitempty"`
}

type UserUpdate struct {
	User
}

type TypingStart struct {
	ChannelID ID      `json:"channel_id"`
	GuildID   *ID     `json:"guild_id,omitempty"`
	UserID    ID      `json:"user_id"`
	Timestamp int64   `json:"timestamp"`
	Member    *Member `json:"member,omitempty"`
}

// UnknownEvent holds a dispatch this package has no type for.
type UnknownEvent struct {
	Name string
	Data jsoniter.RawMessage
}

func (*Ready) EventName() string             { return EventReady }
func (*Resumed) EventName() string           { return EventResumed }
func (*GuildCreate) EventName() string       { return EventGuildCreate }
func (*GuildUpdate) EventName() string       { return EventGuildUpdate }
func (*GuildDelete) EventName() string       { return EventGuildDelete }
func (*ChannelCreate) EventName() string     { return EventChannelCreate }
func (*ChannelUpdate) EventName() string     { return EventChannelUpdate }
func (*ChannelDelete) EventName() string     { return EventChannelDelete }
func (*ChannelPinsUpdate) EventName() string { return EventChannelPinsUpdate }
func (*GuildMemberAdd) EventName() string    { return EventGuildMemberAdd }
func (*GuildMemberUpdate) EventName() string { return EventGuildMemberUpdate }
func (*GuildMemberRemove) EventName() string { return EventGuildMemberRemove }
func (*GuildMembersChunk) EventName() string { return EventGuildMembersChunk }
func (*GuildRoleCreate) EventName() string   { return EventGuildRoleCreate }
func (*GuildRoleUpdate) EventName() string   { return EventGuildRoleUpdate }
func (*GuildRoleDelete) EventName() string   { return EventGuildRoleDelete }
func (*GuildEmojisUpdate) EventName() string { return EventGuildEmojisUpdate }
func (*PresenceUpdate) EventName() string    { return EventPresenceUpdate }
func (*VoiceStateUpdate) EventName() string  { return EventVoiceStateUpdate }
func (*MessageCreate) EventName() string     { return EventMessageCreate }
func (*MessageUpdate) EventName() string     { return EventMessageUpdate }
func (*MessageDelete) EventName() string     { return EventMessageDelete }
func (*MessageDeleteBulk) EventName() string { return EventMessageDeleteBulk }
func (*UserUpdate) EventName() string        { return EventUserUpdate }
func (*TypingStart) EventName() string       { return EventTypingStart }
func (e *UnknownEvent) EventName() string    { return e.Name }

var dispatchTypes = map[string]func() Event{
	EventReady:             func() Event { return new(Ready) },
	EventResumed:           func() Event { return new(Resumed) },
	EventGuildCreate:       func() Event { return new(GuildCreate) },
	EventGuildUpdate:       func() Event { return new(GuildUpdate) },
	EventGuildDelete:       func() Event { return new(GuildDelete) },
	EventChannelCreate:     func() Event { return new(ChannelCreate) },
	EventChannelUpdate:     func() Event { return new(ChannelUpdate) },
	EventChannelDelete:     func() Event { return new(ChannelDelete) },
	EventChannelPinsUpdate: func() Event { return new(ChannelPinsUpdate) },
	EventGuildMemberAdd:    func() Event { return new(GuildMemberAdd) },
	EventGuildMemberUpdate: func() Event { return new(GuildMemberUpdate) },
	EventGuildMemberRemove: func() Event { return new(GuildMemberRemove) },
	EventGuildMembersChunk: func() Event { return new(GuildMembersChunk) },
	EventGuildRoleCreate:   func() Event { return new(GuildRoleCreate) },
	EventGuildRoleUpdate:   func() Event { return new(GuildRoleUpdate) },
	EventGuildRoleDelete:   func() Event { return new(GuildRoleDelete) },
	EventGuildEmojisUpdate: func() Event { return new(GuildEmojisUpdate) },
	EventPresenceUpdate:    func() Event { return new(PresenceUpdate) },
	EventVoiceStateUpdate:  func() Event { return new(VoiceStateUpdate) },
	EventMessageCreate:     func() Event { return new(MessageCreate) },
	EventMessageUpdate:     func() Event { return new(MessageUpdate) },
	EventMessageDelete:     func() Event { return new(MessageDelete) },
	EventMessageDeleteBulk: func() Event { return new(MessageDeleteBulk) },
	EventUserUpdate:        func() Event { return new(UserUpdate) },
	EventTypingStart:       func() Event { return new(TypingStart) },
}

// DecodeDispatch decodes the "d" payload of a dispatch named name. Names without a
// registered type decode to *UnknownEvent holding a copy of data.
func DecodeDispatch(name string, data []byte) (Event, error) {
	factory, ok := dispatchTypes[name]
	if !ok {
		raw := make(jsoniter.RawMessage, len(data))
		copy(raw, data)
		return &UnknownEvent{Name: name, Data: raw}, nil
	}

	event := factory()
	if len(data) == 0 {
		return event, nil
	}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return event, nil
}
