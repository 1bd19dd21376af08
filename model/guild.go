package model

// Guild is the full guild payload delivered by Guild Create. Fields the remote service does
// not document for every account type are optional and default to absent.
type Guild struct {
	ID                          ID           `json:"id"`
	Name                        string       `json:"name"`
	Icon                        string       `json:"icon,omitempty"`
	Splash                      string       `json:"splash,omitempty"`
	DiscoverySplash             string       `json:"discovery_splash,omitempty"`
	OwnerID                     ID           `json:"owner_id"`
	Permissions                 *Permissions `json:"permissions,omitempty"`
	AFKChannelID                *ID          `json:"afk_channel_id,omitempty"`
	AFKTimeout                  int          `json:"afk_timeout"`
	WidgetEnabled               bool         `json:"widget_enabled,omitempty"`
	WidgetChannelID             *ID          `json:"widget_channel_id,omitempty"`
	VerificationLevel           int          `json:"verification_level"`
	DefaultMessageNotifications int          `json:"default_message_notifications"`
	ExplicitContentFilter       int          `json:"explicit_content_filter"`
	Features                    []string     `json:"features"`
	MFALevel                    int          `json:"mfa_level"`
	ApplicationID               *ID          `json:"application_id,omitempty"`
	SystemChannelID             *ID          `json:"system_channel_id,omitempty"`
	SystemChannelFlags          int          `json:"system_channel_flags,omitempty"`
	RulesChannelID              *ID          `json:"rules_channel_id,omitempty"`
	JoinedAt                    *Timestamp   `json:"joined_at,omitempty"`
	Large                       bool         `json:"large,omitempty"`
	Unavailable                 bool         `json:"unavailable,omitempty"`
	Lazy                        *bool        `json:"lazy,omitempty"`
	MemberCount                 *int         `json:"member_count,omitempty"`
	MaxMembers                  *int         `json:"max_members,omitempty"`
	MaxPresences                *int         `json:"max_presences,omitempty"`
	VanityURLCode               string       `json:"vanity_url_code,omitempty"`
	Description                 string       `json:"description,omitempty"`
	Banner                      string       `json:"banner,omitempty"`
	PremiumTier                 int          `json:"premium_tier"`
	PremiumSubscriptionCount    *int         `json:"premium_subscription_count,omitempty"`
	PreferredLocale             string       `json:"preferred_locale,omitempty"`
	PublicUpdatesChannelID      *ID          `json:"public_updates_channel_id,omitempty"`
	NSFWLevel                   int          `json:"nsfw_level,omitempty"`

	Roles       []Role       `json:"roles,omitempty"`
	Emojis      []Emoji      `json:"emojis,omitempty"`
	Channels    []Channel    `json:"channels,omitempty"`
	Threads     []Channel    `json:"threads,omitempty"`
	Members     []Member     `json:"members,omitempty"`
	Presences   []Presence   `json:"presences,omitempty"`
	VoiceStates []VoiceState `json:"voice_states,omitempty"`
}

// UnavailableGuild is a guild the gateway has announced but not yet delivered, or one
// that went offline.
type UnavailableGuild struct {
	ID          ID   `json:"id"`
	Unavailable bool `json:"unavailable,omitempty"`
}
