package model

// User is an account on the remote service.
type User struct {
	ID            ID     `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator,omitempty"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Banner        string `json:"banner,omitempty"`
	Bot           bool   `json:"bot,omitempty"`
	System        bool   `json:"system,omitempty"`
	MFAEnabled    bool   `json:"mfa_enabled,omitempty"`
	Locale        string `json:"locale,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
	Email         string `json:"email,omitempty"`
	Flags         uint64 `json:"flags,omitempty"`
	PublicFlags   uint64 `json:"public_flags,omitempty"`
	PremiumType   int    `json:"premium_type,omitempty"`
}

// Member is a user's membership of one guild.
type Member struct {
	GuildID                    ID         `json:"guild_id,omitempty"`
	User                       *User      `json:"user,omitempty"`
	Nick                       *string    `json:"nick,omitempty"`
	Avatar                     string     `json:"avatar,omitempty"`
	Roles                      []ID       `json:"roles"`
	JoinedAt                   *Timestamp `json:"joined_at,omitempty"`
	PremiumSince               *Timestamp `json:"premium_since,omitempty"`
	Deaf                       bool       `json:"deaf"`
	Mute                       bool       `json:"mute"`
	Pending                    bool       `json:"pending,omitempty"`
	CommunicationDisabledUntil *Timestamp `json:"communication_disabled_until,omitempty"`
}

// Role is a named permission set within a guild.
type Role struct {
	ID           ID          `json:"id"`
	Name         string      `json:"name"`
	Color        int         `json:"color"`
	Hoist        bool        `json:"hoist"`
	Icon         string      `json:"icon,omitempty"`
	UnicodeEmoji string      `json:"unicode_emoji,omitempty"`
	Position     int         `json:"position"`
	Permissions  Permissions `json:"permissions"`
	Managed      bool        `json:"managed"`
	Mentionable  bool        `json:"mentionable"`
	Flags        int         `json:"flags,omitempty"`
}

// Emoji is a custom guild emoji.
type Emoji struct {
	ID            ID     `json:"id"`
	Name          string `json:"name"`
	Roles         []ID   `json:"roles,omitempty"`
	User          *User  `json:"user,omitempty"`
	RequireColons bool   `json:"require_colons,omitempty"`
	Managed       bool   `json:"managed,omitempty"`
	Animated      bool   `json:"animated,omitempty"`
	Available     bool   `json:"available,omitempty"`
}
