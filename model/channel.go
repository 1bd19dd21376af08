package model

// ChannelType distinguishes guild channels, threads, direct messages and groups.
type ChannelType int

const (
	ChannelTypeGuildText          ChannelType = 0
	ChannelTypeDM                 ChannelType = 1
	ChannelTypeGuildVoice         ChannelType = 2
	ChannelTypeGroupDM            ChannelType = 3
	ChannelTypeGuildCategory      ChannelType = 4
	ChannelTypeGuildAnnouncement  ChannelType = 5
	ChannelTypeAnnouncementThread ChannelType = 10
	ChannelTypePublicThread       ChannelType = 11
	ChannelTypePrivateThread      ChannelType = 12
	ChannelTypeGuildStageVoice    ChannelType = 13
	ChannelTypeGuildDirectory     ChannelType = 14
	ChannelTypeGuildForum         ChannelType = 15
)

// OverwriteType says whether an overwrite targets a role or a member.
type OverwriteType int

const (
	OverwriteTypeRole   OverwriteType = 0
	OverwriteTypeMember OverwriteType = 1
)

// PermissionOverwrite adjusts permissions for one role or member within a channel.
type PermissionOverwrite struct {
	ID    ID            `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow Permissions   `json:"allow"`
	Deny  Permissions   `json:"deny"`
}

// Channel covers guild channels, threads, DMs and group DMs.
type Channel struct {
	ID                   ID                    `json:"id"`
	Type                 ChannelType           `json:"type"`
	GuildID              *ID                   `json:"guild_id,omitempty"`
	Position             int                   `json:"position,omitempty"`
	PermissionOverwrites []PermissionOverwrite `json:"permission_overwrites,omitempty"`
	Name                 string                `json:"name,omitempty"`
	Topic                string                `json:"topic,omitempty"`
	NSFW                 bool                  `json:"nsfw,omitempty"`
	LastMessageID        *ID                   `json:"last_message_id,omitempty"`
	Bitrate              int                   `json:"bitrate,omitempty"`
	UserLimit            int                   `json:"user_limit,omitempty"`
	RateLimitPerUser     int                   `json:"rate_limit_per_user,omitempty"`
	Recipients           []User                `json:"recipients,omitempty"`
	Icon                 string                `json:"icon,omitempty"`
	OwnerID              *ID                   `json:"owner_id,omitempty"`
	ApplicationID        *ID                   `json:"application_id,omitempty"`
	ParentID             *ID                   `json:"parent_id,omitempty"`
	LastPinTimestamp     *Timestamp            `json:"last_pin_timestamp,omitempty"`
	RTCRegion            string                `json:"rtc_region,omitempty"`
}

// IsPrivate reports whether the channel is a DM or a group DM.
func (c *Channel) IsPrivate() bool {
	return c.Type == ChannelTypeDM || c.Type == ChannelTypeGroupDM
}
