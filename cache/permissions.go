package cache

import (
	"errors"

	"github.com/luciancaetano/shardnet/model"
)

var (
	ErrGuildNotFound   = errors.New("guild not cached")
	ErrMemberNotFound  = errors.New("member not cached")
	ErrChannelNotFound = errors.New("channel not cached")
	ErrNotGuildChannel = errors.New("channel does not belong to a guild")
)

// PermissionCalculator computes permission bitmasks from cached guilds, roles, members and
// channel overwrites.
type PermissionCalculator struct {
	cache *InMemoryCache
}

// Permissions returns a calculator reading from c.
func (c *InMemoryCache) Permissions() PermissionCalculator {
	return PermissionCalculator{cache: c}
}

// Root returns the member's guild-level permissions.
func (p PermissionCalculator) Root(guildID, userID model.ID) (model.Permissions, error) {
	guild, ok := p.cache.Guild(guildID)
	if !ok {
		return 0, ErrGuildNotFound
	}
	if guild.OwnerID == userID {
		return model.PermissionAll, nil
	}
	member, ok := p.cache.Member(guildID, userID)
	if !ok {
		return 0, ErrMemberNotFound
	}
	return p.root(guildID, member), nil
}

func (p PermissionCalculator) root(guildID model.ID, member *CachedMember) model.Permissions {
	var perms model.Permissions
	// The @everyone role shares the guild's id.
	if everyone, ok := p.cache.Role(guildID); ok {
		perms = everyone.Permissions
	}
	for _, id := range member.Roles {
		if role, ok := p.cache.Role(id); ok {
			perms |= role.Permissions
		}
	}
	if perms.Contains(model.PermissionAdministrator) {
		return model.PermissionAll
	}
	return perms
}

// InChannel returns the member's permissions in a guild channel. Threads use the overwrites
// of their parent channel.
func (p PermissionCalculator) InChannel(channelID, userID model.ID) (model.Permissions, error) {
	channel, ok := p.cache.Channel(channelID)
	if !ok {
		return 0, ErrChannelNotFound
	}
	if channel.GuildID == nil {
		return 0, ErrNotGuildChannel
	}
	guildID := *channel.GuildID

	guild, ok := p.cache.Guild(guildID)
	if !ok {
		return 0, ErrGuildNotFound
	}
	if guild.OwnerID == userID {
		return model.PermissionAll, nil
	}
	member, ok := p.cache.Member(guildID, userID)
	if !ok {
		return 0, ErrMemberNotFound
	}

	perms := p.root(guildID, member)
	if perms == model.PermissionAll {
		return perms, nil
	}

	overwrites := channel.PermissionOverwrites
	if isThread(channel.Type) && channel.ParentID != nil {
		parent, ok := p.cache.Channel(*channel.ParentID)
		if !ok {
			return 0, ErrChannelNotFound
		}
		overwrites = parent.PermissionOverwrites
	}

	return applyOverwrites(perms, guildID, member, overwrites), nil
}

// applyOverwrites applies @everyone, then role, then member overwrites.
func applyOverwrites(perms model.Permissions, guildID model.ID, member *CachedMember, overwrites []model.PermissionOverwrite) model.Permissions {
	hasRole := make(map[model.ID]struct{}, len(member.Roles))
	for _, id := range member.Roles {
		hasRole[id] = struct{}{}
	}

	var roleAllow, roleDeny model.Permissions
	var memberOverwrite *model.PermissionOverwrite
	for i := range overwrites {
		ow := &overwrites[i]
		switch {
		case ow.Type == model.OverwriteTypeRole && ow.ID == guildID:
			perms &^= ow.Deny
			perms |= ow.Allow
		case ow.Type == model.OverwriteTypeRole:
			if _, ok := hasRole[ow.ID]; ok {
				roleAllow |= ow.Allow
				roleDeny |= ow.Deny
			}
		case ow.Type == model.OverwriteTypeMember && ow.ID == member.UserID:
			memberOverwrite = ow
		}
	}

	perms &^= roleDeny
	perms |= roleAllow
	if memberOverwrite != nil {
		perms &^= memberOverwrite.Deny
		perms |= memberOverwrite.Allow
	}

	// Without view access no other channel permission applies.
	if !perms.Contains(model.PermissionViewChannel) {
		return 0
	}
	return perms
}

func isThread(t model.ChannelType) bool {
	return t == model.ChannelTypeAnnouncementThread ||
		t == model.ChannelTypePublicThread ||
		t == model.ChannelTypePrivateThread
}
