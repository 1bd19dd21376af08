package cache

import "github.com/luciancaetano/shardnet"

// ResourceType selects which entity kinds the cache stores.
type ResourceType uint16

const (
	ResourceChannel ResourceType = 1 << iota
	ResourceEmoji
	ResourceGuild
	ResourceMember
	ResourceMessage
	ResourcePresence
	ResourceRole
	ResourceUser
	ResourceUserCurrent
	ResourceVoiceState

	// ResourceAll enables every entity kind.
	ResourceAll = ResourceChannel | ResourceEmoji | ResourceGuild | ResourceMember |
		ResourceMessage | ResourcePresence | ResourceRole | ResourceUser |
		ResourceUserCurrent | ResourceVoiceState
)

// Has reports whether every bit of other is set in r.
func (r ResourceType) Has(other ResourceType) bool {
	return r&other == other
}

// Config controls what the cache keeps.
type Config struct {
	// ResourceTypes is the set of entity kinds to store. Events for other kinds are ignored.
	ResourceTypes ResourceType

	// MessageCacheSize bounds the number of messages kept per channel. Zero disables
	// message caching regardless of ResourceTypes.
	MessageCacheSize int

	// BatchConcurrency caps the number of goroutines used when caching the collections of a
	// Guild Create or a Guild Members Chunk.
	BatchConcurrency int
}

// DefaultConfig caches every entity kind and keeps 100 messages per channel.
func DefaultConfig() *Config {
	return &Config{
		ResourceTypes:    ResourceAll,
		MessageCacheSize: shardnet.DefaultMessageCacheSize,
		BatchConcurrency: defaultBatchConcurrency,
	}
}

const defaultBatchConcurrency = 8
