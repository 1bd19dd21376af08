package shardnet

// Gateway endpoint defaults.
const (
	DefaultGatewayURL = "wss://gateway.discord.gg"

	// DefaultLargeThreshold is the member count above which a guild is sent without its
	// offline members.
	DefaultLargeThreshold = 50

	// DefaultMessageCacheSize is how many messages are kept per channel.
	DefaultMessageCacheSize = 100
)

// Standard error messages
const (
	// Connection errors
	ErrConnectionClosed   = "shard connection is closed"
	ErrFatallyClosed      = "shard was closed with a fatal close code"
	ErrReconnectExhausted = "maximum reconnect attempts reached"
	ErrReconnectFailed    = "failed to connect to gateway"
	ErrReadFailed         = "failed to read from gateway"
	ErrSendFailed         = "failed to send to gateway"

	// Protocol errors
	ErrFailedToEncode   = "failed to encode command"
	ErrFailedToDecode   = "failed to decode gateway payload"
	ErrDecompress       = "failed to decompress gateway payload"
	ErrInvalidHello     = "invalid hello payload"
	ErrProcessingFailed = "failed to process gateway payload"
)
