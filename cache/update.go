package cache

import (
	"golang.org/x/sync/errgroup"

	"github.com/luciancaetano/shardnet/model"
)

// Update applies a dispatch event. Events for disabled resource types and events the cache
// has no use for are ignored.
func (c *InMemoryCache) Update(event model.Event) {
	switch e := event.(type) {
	case *model.Ready:
		if c.wants(ResourceUserCurrent) {
			user := e.User
			c.currentUser.Store(&user)
		}
		if c.wants(ResourceGuild) {
			for _, g := range e.Guilds {
				c.unavailable.upsert(g.ID, struct{}{})
			}
		}
	case *model.GuildCreate:
		c.CacheGuild(&e.Guild)
	case *model.GuildUpdate:
		c.updateGuild(&e.Guild)
	case *model.GuildDelete:
		c.DeleteGuild(e.ID, e.Unavailable)
	case *model.ChannelCreate:
		c.CacheChannel(e.Channel)
	case *model.ChannelUpdate:
		c.CacheChannel(e.Channel)
	case *model.ChannelDelete:
		c.DeleteChannel(e.ID)
	case *model.ChannelPinsUpdate:
		pin := func(ch *model.Channel) { ch.LastPinTimestamp = e.LastPinTimestamp }
		if _, ok := c.channels.update(e.ChannelID, pin); !ok {
			c.privateChannels.update(e.ChannelID, pin)
		}
	case *model.GuildMemberAdd:
		c.CacheMember(e.GuildID, e.Member)
	case *model.GuildMemberUpdate:
		c.CacheMember(e.GuildID, e.Member)
	case *model.GuildMemberRemove:
		c.DeleteMember(e.GuildID, e.User.ID)
	case *model.GuildMembersChunk:
		c.cacheMembers(e.GuildID, e.Members)
		c.cachePresences(e.GuildID, e.Presences)
	case *model.GuildRoleCreate:
		c.CacheRole(e.GuildID, e.Role)
	case *model.GuildRoleUpdate:
		c.CacheRole(e.GuildID, e.Role)
	case *model.GuildRoleDelete:
		c.DeleteRole(e.RoleID)
	case *model.GuildEmojisUpdate:
		c.cacheEmojis(e.GuildID, e.Emojis)
	case *model.PresenceUpdate:
		c.CachePresence(e.Presence)
	case *model.VoiceStateUpdate:
		c.CacheVoiceState(e.VoiceState)
	case *model.MessageCreate:
		c.CacheMessage(e.Message)
	case *model.MessageUpdate:
		c.updateMessage(e)
	case *model.MessageDelete:
		c.messages.remove(e.ChannelID, e.ID)
	case *model.MessageDeleteBulk:
		c.messages.remove(e.ChannelID, e.IDs...)
	case *model.UserUpdate:
		if c.wants(ResourceUserCurrent) {
			user := e.User
			c.currentUser.Store(&user)
		}
		c.users.update(e.ID, func(u *model.User) { *u = e.User })
	case *model.TypingStart:
		if e.Member != nil && e.GuildID != nil {
			c.CacheMember(*e.GuildID, *e.Member)
		}
	}
}

// fanOut calls fn for every index in [0, n) on a bounded set of goroutines.
func (c *InMemoryCache) fanOut(n int, fn func(i int)) {
	if n == 0 {
		return
	}
	var g errgroup.Group
	g.SetLimit(c.cfg.BatchConcurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// CacheGuild stores a full guild payload and every collection it carries.
func (c *InMemoryCache) CacheGuild(g *model.Guild) {
	if g.Unavailable {
		if c.wants(ResourceGuild) {
			c.unavailable.upsert(g.ID, struct{}{})
		}
		return
	}
	c.unavailable.remove(g.ID)

	if c.wants(ResourceGuild) {
		c.guilds.upsert(g.ID, guildFromModel(g))
	}

	if c.wants(ResourceChannel) {
		channels := make([]model.Channel, 0, len(g.Channels)+len(g.Threads))
		channels = append(channels, g.Channels...)
		channels = append(channels, g.Threads...)

		ids := make([]model.ID, len(channels))
		c.fanOut(len(channels), func(i int) {
			ids[i] = channels[i].ID
			c.upsertGuildChannel(g.ID, channels[i])
		})
		c.guildChannels.add(g.ID, ids...)
	}

	if c.wants(ResourceRole) {
		ids := make([]model.ID, len(g.Roles))
		c.fanOut(len(g.Roles), func(i int) {
			ids[i] = g.Roles[i].ID
			c.roles.upsert(g.Roles[i].ID, CachedRole{GuildID: g.ID, Role: g.Roles[i]})
		})
		c.guildRoles.add(g.ID, ids...)
	}

	if c.wants(ResourceEmoji) {
		ids := make([]model.ID, len(g.Emojis))
		c.fanOut(len(g.Emojis), func(i int) {
			ids[i] = g.Emojis[i].ID
			c.emojis.upsert(g.Emojis[i].ID, emojiFromModel(g.ID, g.Emojis[i]))
		})
		c.guildEmojis.add(g.ID, ids...)
	}

	c.cacheMembers(g.ID, g.Members)
	c.cachePresences(g.ID, g.Presences)

	if c.wants(ResourceVoiceState) {
		var states []model.VoiceState
		for _, vs := range g.VoiceStates {
			if vs.ChannelID != nil {
				states = append(states, vs)
			}
		}
		keys := make([]VoiceKey, len(states))
		c.fanOut(len(states), func(i int) {
			vs := states[i]
			vs.GuildID = g.ID
			keys[i] = VoiceKey{ChannelID: *vs.ChannelID, UserID: vs.UserID}
			c.voiceStates.upsert(keys[i], voiceStateFromModel(vs))
		})
		c.guildVoiceStates.add(g.ID, keys...)
	}
}

func (c *InMemoryCache) updateGuild(g *model.Guild) {
	if c.wants(ResourceGuild) {
		_, ok := c.guilds.update(g.ID, func(cur *CachedGuild) {
			next := guildFromModel(g)
			// Guild Update omits the fields only Guild Create carries.
			next.JoinedAt = cur.JoinedAt
			next.Large = cur.Large
			next.Lazy = cur.Lazy
			next.MemberCount = cur.MemberCount
			*cur = next
		})
		if !ok {
			c.guilds.upsert(g.ID, guildFromModel(g))
		}
	}
	for _, role := range g.Roles {
		c.CacheRole(g.ID, role)
	}
	if len(g.Emojis) > 0 {
		c.cacheEmojis(g.ID, g.Emojis)
	}
}

// DeleteGuild removes a guild and everything it owns. An unavailable guild is remembered as
// such until it is created again.
func (c *InMemoryCache) DeleteGuild(id model.ID, unavailable bool) {
	if unavailable {
		c.unavailable.upsert(id, struct{}{})
	} else {
		c.unavailable.remove(id)
	}
	c.guilds.remove(id)

	channels := c.guildChannels.take(id)
	c.channels.removeAll(channels)
	for _, ch := range channels {
		c.messages.dropChannel(ch)
	}

	c.roles.removeAll(c.guildRoles.take(id))
	c.emojis.removeAll(c.guildEmojis.take(id))
	c.voiceStates.removeAll(c.guildVoiceStates.take(id))

	presences := c.guildPresences.take(id)
	keys := make([]PresenceKey, len(presences))
	for i, userID := range presences {
		keys[i] = PresenceKey{GuildID: id, UserID: userID}
	}
	c.presences.removeAll(keys)

	members := c.guildMembers.take(id)
	memberKeys := make([]MemberKey, len(members))
	for i, userID := range members {
		memberKeys[i] = MemberKey{GuildID: id, UserID: userID}
	}
	c.members.removeAll(memberKeys)
	for _, userID := range members {
		c.forgetUserGuild(userID, id)
	}
}

// CacheChannel stores a guild channel, thread, DM or group DM.
func (c *InMemoryCache) CacheChannel(ch model.Channel) *model.Channel {
	if !c.wants(ResourceChannel) {
		return nil
	}
	if ch.IsPrivate() {
		handle, _ := c.privateChannels.upsert(ch.ID, ch)
		return handle
	}
	if ch.GuildID == nil {
		handle, _ := c.channels.upsert(ch.ID, ch)
		return handle
	}
	guildID := *ch.GuildID
	handle, changed := c.upsertGuildChannel(guildID, ch)
	if changed {
		c.guildChannels.add(guildID, ch.ID)
	}
	return handle
}

// upsertGuildChannel links the channel to guildID when the payload has no guild id, as in
// the channel list of Guild Create.
func (c *InMemoryCache) upsertGuildChannel(guildID model.ID, ch model.Channel) (*model.Channel, bool) {
	if ch.GuildID == nil {
		id := guildID
		ch.GuildID = &id
	}
	return c.channels.upsert(ch.ID, ch)
}

func (c *InMemoryCache) DeleteChannel(id model.ID) {
	if ch, ok := c.channels.remove(id); ok {
		if ch.GuildID != nil {
			c.guildChannels.remove(*ch.GuildID, id)
		}
	} else {
		c.privateChannels.remove(id)
	}
	c.messages.dropChannel(id)
}

// CacheMember stores a member and the user it refers to. Members without a user are ignored.
func (c *InMemoryCache) CacheMember(guildID model.ID, m model.Member) *CachedMember {
	handle, changed := c.upsertMember(guildID, m)
	if changed {
		c.guildMembers.add(guildID, m.User.ID)
	}
	return handle
}

func (c *InMemoryCache) cacheMembers(guildID model.ID, members []model.Member) {
	if !c.wants(ResourceMember) || len(members) == 0 {
		return
	}
	ids := make([]model.ID, 0, len(members))
	valid := make([]model.Member, 0, len(members))
	for _, m := range members {
		if m.User != nil {
			ids = append(ids, m.User.ID)
			valid = append(valid, m)
		}
	}
	c.fanOut(len(valid), func(i int) {
		c.upsertMember(guildID, valid[i])
	})
	c.guildMembers.add(guildID, ids...)
}

func (c *InMemoryCache) upsertMember(guildID model.ID, m model.Member) (*CachedMember, bool) {
	if !c.wants(ResourceMember) || m.User == nil {
		return nil, false
	}

	var user *model.User
	if c.wants(ResourceUser) {
		user, _ = c.users.upsert(m.User.ID, *m.User)
		c.userGuilds.add(m.User.ID, guildID)
	} else {
		u := *m.User
		user = &u
	}

	return c.members.upsert(MemberKey{GuildID: guildID, UserID: m.User.ID}, CachedMember{
		GuildID:                    guildID,
		UserID:                     m.User.ID,
		User:                       user,
		Nick:                       m.Nick,
		Avatar:                     m.Avatar,
		Roles:                      m.Roles,
		JoinedAt:                   m.JoinedAt,
		PremiumSince:               m.PremiumSince,
		Deaf:                       m.Deaf,
		Mute:                       m.Mute,
		Pending:                    m.Pending,
		CommunicationDisabledUntil: m.CommunicationDisabledUntil,
	})
}

// DeleteMember removes a member. The user is dropped too once no cached guild references it.
func (c *InMemoryCache) DeleteMember(guildID, userID model.ID) {
	c.members.remove(MemberKey{GuildID: guildID, UserID: userID})
	c.guildMembers.remove(guildID, userID)
	c.forgetUserGuild(userID, guildID)
}

func (c *InMemoryCache) forgetUserGuild(userID, guildID model.ID) {
	if !c.userGuilds.has(userID, guildID) {
		return
	}
	if c.userGuilds.remove(userID, guildID) {
		c.users.remove(userID)
	}
}

// CacheRole stores a role owned by guildID.
func (c *InMemoryCache) CacheRole(guildID model.ID, role model.Role) *CachedRole {
	if !c.wants(ResourceRole) {
		return nil
	}
	handle, changed := c.roles.upsert(role.ID, CachedRole{GuildID: guildID, Role: role})
	if changed {
		c.guildRoles.add(guildID, role.ID)
	}
	return handle
}

func (c *InMemoryCache) DeleteRole(id model.ID) {
	if role, ok := c.roles.remove(id); ok {
		c.guildRoles.remove(role.GuildID, id)
	}
}

// cacheEmojis replaces the guild's emoji set.
func (c *InMemoryCache) cacheEmojis(guildID model.ID, emojis []model.Emoji) {
	if !c.wants(ResourceEmoji) {
		return
	}
	keep := make(map[model.ID]struct{}, len(emojis))
	ids := make([]model.ID, len(emojis))
	for i, e := range emojis {
		keep[e.ID] = struct{}{}
		ids[i] = e.ID
	}

	var stale []model.ID
	for _, id := range c.guildEmojis.list(guildID) {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		c.guildEmojis.remove(guildID, id)
	}
	c.emojis.removeAll(stale)

	for _, e := range emojis {
		c.emojis.upsert(e.ID, emojiFromModel(guildID, e))
	}
	c.guildEmojis.add(guildID, ids...)
}

func emojiFromModel(guildID model.ID, e model.Emoji) CachedEmoji {
	return CachedEmoji{
		ID:            e.ID,
		GuildID:       guildID,
		Name:          e.Name,
		Roles:         e.Roles,
		User:          e.User,
		RequireColons: e.RequireColons,
		Managed:       e.Managed,
		Animated:      e.Animated,
		Available:     e.Available,
	}
}

// CachePresence stores a presence. Presences with a guild id are indexed under that guild.
func (c *InMemoryCache) CachePresence(p model.Presence) *CachedPresence {
	if !c.wants(ResourcePresence) {
		return nil
	}
	handle, changed := c.presences.upsert(PresenceKey{GuildID: p.GuildID, UserID: p.User.ID}, presenceFromModel(p))
	if changed && !p.GuildID.IsZero() {
		c.guildPresences.add(p.GuildID, p.User.ID)
	}
	return handle
}

func (c *InMemoryCache) cachePresences(guildID model.ID, presences []model.Presence) {
	if !c.wants(ResourcePresence) || len(presences) == 0 {
		return
	}
	ids := make([]model.ID, len(presences))
	c.fanOut(len(presences), func(i int) {
		p := presences[i]
		p.GuildID = guildID
		ids[i] = p.User.ID
		c.presences.upsert(PresenceKey{GuildID: guildID, UserID: p.User.ID}, presenceFromModel(p))
	})
	c.guildPresences.add(guildID, ids...)
}

func presenceFromModel(p model.Presence) CachedPresence {
	return CachedPresence{
		GuildID:      p.GuildID,
		UserID:       p.User.ID,
		Status:       p.Status,
		Activities:   p.Activities,
		ClientStatus: p.ClientStatus,
	}
}

// CacheVoiceState records a voice connection. A state without a channel id means the user
// left voice: their existing state in the guild is found by user id and removed, and if
// there is none the call does nothing.
func (c *InMemoryCache) CacheVoiceState(vs model.VoiceState) *CachedVoiceState {
	if !c.wants(ResourceVoiceState) {
		return nil
	}
	if vs.Member != nil && !vs.GuildID.IsZero() {
		c.CacheMember(vs.GuildID, *vs.Member)
	}

	removed := c.voiceStates.removeFunc(func(k VoiceKey, v *CachedVoiceState) bool {
		if k.UserID != vs.UserID || v.GuildID != vs.GuildID {
			return false
		}
		return vs.ChannelID == nil || k.ChannelID != *vs.ChannelID
	})
	for _, k := range removed {
		c.guildVoiceStates.remove(vs.GuildID, k)
	}
	if vs.ChannelID == nil {
		return nil
	}

	key := VoiceKey{ChannelID: *vs.ChannelID, UserID: vs.UserID}
	handle, changed := c.voiceStates.upsert(key, voiceStateFromModel(vs))
	if changed && !vs.GuildID.IsZero() {
		c.guildVoiceStates.add(vs.GuildID, key)
	}
	return handle
}

func voiceStateFromModel(vs model.VoiceState) CachedVoiceState {
	return CachedVoiceState{
		ChannelID:               *vs.ChannelID,
		GuildID:                 vs.GuildID,
		UserID:                  vs.UserID,
		SessionID:               vs.SessionID,
		Deaf:                    vs.Deaf,
		Mute:                    vs.Mute,
		SelfDeaf:                vs.SelfDeaf,
		SelfMute:                vs.SelfMute,
		SelfStream:              vs.SelfStream,
		SelfVideo:               vs.SelfVideo,
		Suppress:                vs.Suppress,
		RequestToSpeakTimestamp: vs.RequestToSpeakTimestamp,
	}
}

// CacheMessage stores a message in its channel's bounded history. The author's guild member,
// when the payload carries one, is cached as well.
func (c *InMemoryCache) CacheMessage(m model.Message) *model.Message {
	if m.Member != nil && m.GuildID != nil {
		member := *m.Member
		if member.User == nil {
			author := m.Author
			member.User = &author
		}
		c.CacheMember(*m.GuildID, member)
	}
	handle, _ := c.messages.upsert(m)
	return handle
}

func (c *InMemoryCache) updateMessage(e *model.MessageUpdate) {
	c.messages.update(e.ChannelID, e.ID, func(m *model.Message) {
		if e.Author != nil {
			m.Author = *e.Author
		}
		if e.Content != nil {
			m.Content = *e.Content
		}
		if e.EditedTimestamp != nil {
			m.EditedTimestamp = e.EditedTimestamp
		}
		if e.Mentions != nil {
			m.Mentions = e.Mentions
		}
		if e.Attachments != nil {
			m.Attachments = e.Attachments
		}
		if e.Pinned != nil {
			m.Pinned = *e.Pinned
		}
	})
}
