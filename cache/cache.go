// Package cache keeps an in-memory snapshot of gateway state built from dispatch events.
//
// Each entity kind lives in its own map behind its own lock. Writers replace values only
// when they differ structurally from what is stored, and readers receive shared pointers
// that are never mutated after publication. Guild-owned entities are additionally tracked
// in per-guild index sets so a guild can be removed without scanning every map.
package cache

import (
	"context"
	"sync/atomic"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/model"
)

// InMemoryCache is safe for concurrent use by any number of shards and readers.
type InMemoryCache struct {
	cfg Config

	currentUser atomic.Pointer[model.User]

	guilds          *store[model.ID, CachedGuild]
	unavailable     *store[model.ID, struct{}]
	channels        *store[model.ID, model.Channel]
	privateChannels *store[model.ID, model.Channel]
	members         *store[MemberKey, CachedMember]
	roles           *store[model.ID, CachedRole]
	emojis          *store[model.ID, CachedEmoji]
	presences       *store[PresenceKey, CachedPresence]
	voiceStates     *store[VoiceKey, CachedVoiceState]
	users           *store[model.ID, model.User]
	messages        *messageStore

	guildChannels    *index[model.ID]
	guildEmojis      *index[model.ID]
	guildMembers     *index[model.ID]
	guildPresences   *index[model.ID]
	guildRoles       *index[model.ID]
	guildVoiceStates *index[VoiceKey]
	userGuilds       *index[model.ID]
}

var _ shardnet.Listener = (*InMemoryCache)(nil)

// New creates an empty cache. A nil config uses DefaultConfig.
func New(cfg *Config) *InMemoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = defaultBatchConcurrency
	}
	if !c.ResourceTypes.Has(ResourceMessage) {
		c.MessageCacheSize = 0
	}

	return &InMemoryCache{
		cfg:              c,
		guilds:           newStore[model.ID, CachedGuild](),
		unavailable:      newStore[model.ID, struct{}](),
		channels:         newStore[model.ID, model.Channel](),
		privateChannels:  newStore[model.ID, model.Channel](),
		members:          newStore[MemberKey, CachedMember](),
		roles:            newStore[model.ID, CachedRole](),
		emojis:           newStore[model.ID, CachedEmoji](),
		presences:        newStore[PresenceKey, CachedPresence](),
		voiceStates:      newStore[VoiceKey, CachedVoiceState](),
		users:            newStore[model.ID, model.User](),
		messages:         newMessageStore(c.MessageCacheSize),
		guildChannels:    newIndex[model.ID](),
		guildEmojis:      newIndex[model.ID](),
		guildMembers:     newIndex[model.ID](),
		guildPresences:   newIndex[model.ID](),
		guildRoles:       newIndex[model.ID](),
		guildVoiceStates: newIndex[VoiceKey](),
		userGuilds:       newIndex[model.ID](),
	}
}

// Handle applies event to the cache, so the cache can be registered as a listener.
func (c *InMemoryCache) Handle(_ context.Context, _ shardnet.ShardID, event model.Event) {
	c.Update(event)
}

func (c *InMemoryCache) wants(r ResourceType) bool {
	return c.cfg.ResourceTypes.Has(r)
}

// CurrentUser returns the user the shards are logged in as.
func (c *InMemoryCache) CurrentUser() (*model.User, bool) {
	u := c.currentUser.Load()
	return u, u != nil
}

func (c *InMemoryCache) Guild(id model.ID) (*CachedGuild, bool) {
	return c.guilds.get(id)
}

// Unavailable reports whether the guild was announced or went offline without a payload.
func (c *InMemoryCache) Unavailable(id model.ID) bool {
	_, ok := c.unavailable.get(id)
	return ok
}

// Channel returns a guild channel or thread.
func (c *InMemoryCache) Channel(id model.ID) (*model.Channel, bool) {
	return c.channels.get(id)
}

// PrivateChannel returns a DM or group DM.
func (c *InMemoryCache) PrivateChannel(id model.ID) (*model.Channel, bool) {
	return c.privateChannels.get(id)
}

func (c *InMemoryCache) Member(guildID, userID model.ID) (*CachedMember, bool) {
	return c.members.get(MemberKey{GuildID: guildID, UserID: userID})
}

func (c *InMemoryCache) Role(id model.ID) (*CachedRole, bool) {
	return c.roles.get(id)
}

func (c *InMemoryCache) Emoji(id model.ID) (*CachedEmoji, bool) {
	return c.emojis.get(id)
}

// Presence returns a user's presence. Use a zero guildID for presences outside a guild.
func (c *InMemoryCache) Presence(guildID, userID model.ID) (*CachedPresence, bool) {
	return c.presences.get(PresenceKey{GuildID: guildID, UserID: userID})
}

func (c *InMemoryCache) VoiceState(channelID, userID model.ID) (*CachedVoiceState, bool) {
	return c.voiceStates.get(VoiceKey{ChannelID: channelID, UserID: userID})
}

func (c *InMemoryCache) User(id model.ID) (*model.User, bool) {
	return c.users.get(id)
}

func (c *InMemoryCache) Message(channelID, messageID model.ID) (*model.Message, bool) {
	return c.messages.get(channelID, messageID)
}

// ChannelMessages returns the cached messages of a channel, oldest first.
func (c *InMemoryCache) ChannelMessages(channelID model.ID) []*model.Message {
	return c.messages.channel(channelID)
}

// GuildChannels returns the ids of the guild's cached channels and threads.
func (c *InMemoryCache) GuildChannels(guildID model.ID) []model.ID {
	return c.guildChannels.list(guildID)
}

// GuildMembers returns the user ids of the guild's cached members.
func (c *InMemoryCache) GuildMembers(guildID model.ID) []model.ID {
	return c.guildMembers.list(guildID)
}

func (c *InMemoryCache) GuildRoles(guildID model.ID) []model.ID {
	return c.guildRoles.list(guildID)
}

func (c *InMemoryCache) GuildEmojis(guildID model.ID) []model.ID {
	return c.guildEmojis.list(guildID)
}

// GuildPresences returns the user ids with a cached presence in the guild.
func (c *InMemoryCache) GuildPresences(guildID model.ID) []model.ID {
	return c.guildPresences.list(guildID)
}

func (c *InMemoryCache) GuildVoiceStates(guildID model.ID) []VoiceKey {
	return c.guildVoiceStates.list(guildID)
}

// UserGuilds returns the ids of the cached guilds the user is a member of.
func (c *InMemoryCache) UserGuilds(userID model.ID) []model.ID {
	return c.userGuilds.list(userID)
}

// VoiceChannelStates returns the voice states of everyone connected to a channel.
func (c *InMemoryCache) VoiceChannelStates(channelID model.ID) []*CachedVoiceState {
	return c.voiceStates.filter(func(k VoiceKey, _ *CachedVoiceState) bool {
		return k.ChannelID == channelID
	})
}

func (c *InMemoryCache) Stats() Stats {
	return Stats{
		Guilds:            c.guilds.len(),
		UnavailableGuilds: c.unavailable.len(),
		Channels:          c.channels.len(),
		PrivateChannels:   c.privateChannels.len(),
		Members:           c.members.len(),
		Roles:             c.roles.len(),
		Emojis:            c.emojis.len(),
		Presences:         c.presences.len(),
		VoiceStates:       c.voiceStates.len(),
		Users:             c.users.len(),
		Messages:          c.messages.len(),
	}
}

// Clear empties the cache.
func (c *InMemoryCache) Clear() {
	c.currentUser.Store(nil)
	c.guilds.clear()
	c.unavailable.clear()
	c.channels.clear()
	c.privateChannels.clear()
	c.members.clear()
	c.roles.clear()
	c.emojis.clear()
	c.presences.clear()
	c.voiceStates.clear()
	c.users.clear()
	c.messages.clear()
	c.guildChannels.clear()
	c.guildEmojis.clear()
	c.guildMembers.clear()
	c.guildPresences.clear()
	c.guildRoles.clear()
	c.guildVoiceStates.clear()
	c.userGuilds.clear()
}
