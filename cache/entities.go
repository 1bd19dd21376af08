package cache

import "github.com/luciancaetano/shardnet/model"

// CachedGuild is a guild without its nested collections, which are cached separately.
type CachedGuild struct {
	ID                          model.ID
	Name                        string
	Icon                        string
	Splash                      string
	DiscoverySplash             string
	OwnerID                     model.ID
	AFKChannelID                *model.ID
	AFKTimeout                  int
	WidgetEnabled               bool
	WidgetChannelID             *model.ID
	VerificationLevel           int
	DefaultMessageNotifications int
	ExplicitContentFilter       int
	Features                    []string
	MFALevel                    int
	ApplicationID               *model.ID
	SystemChannelID             *model.ID
	SystemChannelFlags          int
	RulesChannelID              *model.ID
	JoinedAt                    *model.Timestamp
	Large                       bool
	Unavailable                 bool
	Lazy                        *bool
	MemberCount                 *int
	MaxMembers                  *int
	MaxPresences                *int
	VanityURLCode               string
	Description                 string
	Banner                      string
	PremiumTier                 int
	PremiumSubscriptionCount    *int
	PreferredLocale             string
	PublicUpdatesChannelID      *model.ID
	NSFWLevel                   int
}

func guildFromModel(g *model.Guild) CachedGuild {
	return CachedGuild{
		ID:                          g.ID,
		Name:                        g.Name,
		Icon:                        g.Icon,
		Splash:                      g.Splash,
		DiscoverySplash:             g.DiscoverySplash,
		OwnerID:                     g.OwnerID,
		AFKChannelID:                g.AFKChannelID,
		AFKTimeout:                  g.AFKTimeout,
		WidgetEnabled:               g.WidgetEnabled,
		WidgetChannelID:             g.WidgetChannelID,
		VerificationLevel:           g.VerificationLevel,
		DefaultMessageNotifications: g.DefaultMessageNotifications,
		ExplicitContentFilter:       g.ExplicitContentFilter,
		Features:                    g.Features,
		MFALevel:                    g.MFALevel,
		ApplicationID:               g.ApplicationID,
		SystemChannelID:             g.SystemChannelID,
		SystemChannelFlags:          g.SystemChannelFlags,
		RulesChannelID:              g.RulesChannelID,
		JoinedAt:                    g.JoinedAt,
		Large:                       g.Large,
		Unavailable:                 g.Unavailable,
		Lazy:                        g.Lazy,
		MemberCount:                 g.MemberCount,
		MaxMembers:                  g.MaxMembers,
		MaxPresences:                g.MaxPresences,
		VanityURLCode:               g.VanityURLCode,
		Description:                 g.Description,
		Banner:                      g.Banner,
		PremiumTier:                 g.PremiumTier,
		PremiumSubscriptionCount:    g.PremiumSubscriptionCount,
		PreferredLocale:             g.PreferredLocale,
		PublicUpdatesChannelID:      g.PublicUpdatesChannelID,
		NSFWLevel:                   g.NSFWLevel,
	}
}

// CachedMember is a guild membership. User is the shared handle held by the user store.
type CachedMember struct {
	GuildID                    model.ID
	UserID                     model.ID
	User                       *model.User
	Nick                       *string
	Avatar                     string
	Roles                      []model.ID
	JoinedAt                   *model.Timestamp
	PremiumSince               *model.Timestamp
	Deaf                       bool
	Mute                       bool
	Pending                    bool
	CommunicationDisabledUntil *model.Timestamp
}

// CachedRole is a role with its owning guild.
type CachedRole struct {
	GuildID model.ID
	model.Role
}

// CachedEmoji is a custom emoji with its owning guild. User is the uploader, when known.
type CachedEmoji struct {
	ID            model.ID
	GuildID       model.ID
	Name          string
	Roles         []model.ID
	User          *model.User
	RequireColons bool
	Managed       bool
	Animated      bool
	Available     bool
}

// CachedPresence is a user's status. GuildID is zero for presences outside a guild.
type CachedPresence struct {
	GuildID      model.ID
	UserID       model.ID
	Status       model.Status
	Activities   []model.Activity
	ClientStatus model.ClientStatus
}

// CachedVoiceState is a user's connection to one voice channel.
type CachedVoiceState struct {
	ChannelID               model.ID
	GuildID                 model.ID
	UserID                  model.ID
	SessionID               string
	Deaf                    bool
	Mute                    bool
	SelfDeaf                bool
	SelfMute                bool
	SelfStream              bool
	SelfVideo               bool
	Suppress                bool
	RequestToSpeakTimestamp *model.Timestamp
}

// MemberKey identifies a member.
type MemberKey struct {
	GuildID model.ID
	UserID  model.ID
}

// PresenceKey identifies a presence. GuildID is zero outside a guild.
type PresenceKey struct {
	GuildID model.ID
	UserID  model.ID
}

// VoiceKey identifies a voice state.
type VoiceKey struct {
	ChannelID model.ID
	UserID    model.ID
}

// MessageKey identifies a cached message.
type MessageKey struct {
	ChannelID model.ID
	MessageID model.ID
}

// Stats counts cached entities per kind.
type Stats struct {
	Guilds            int
	UnavailableGuilds int
	Channels          int
	PrivateChannels   int
	Members           int
	Roles             int
	Emojis            int
	Presences         int
	VoiceStates       int
	Users             int
	Messages          int
}
