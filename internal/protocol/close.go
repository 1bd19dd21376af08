package protocol

// CloseCode is a gateway close code.
type CloseCode uint16

const (
	CloseNormal               CloseCode = 1000
	CloseGoingAway            CloseCode = 1001
	CloseUnknownError         CloseCode = 4000
	CloseUnknownOpcode        CloseCode = 4001
	CloseDecodeError          CloseCode = 4002
	CloseNotAuthenticated     CloseCode = 4003
	CloseAuthenticationFailed CloseCode = 4004
	CloseAlreadyAuthenticated CloseCode = 4005
	CloseInvalidSequence      CloseCode = 4007
	CloseRateLimited          CloseCode = 4008
	CloseSessionTimedOut      CloseCode = 4009
	CloseInvalidShard         CloseCode = 4010
	CloseShardingRequired     CloseCode = 4011
	CloseInvalidAPIVersion    CloseCode = 4012
	CloseInvalidIntents       CloseCode = 4013
	CloseDisallowedIntents    CloseCode = 4014
)

// Fatal reports whether reconnecting cannot succeed without changing the configuration.
func (c CloseCode) Fatal() bool {
	switch c {
	case CloseAuthenticationFailed, CloseInvalidShard, CloseShardingRequired,
		CloseInvalidAPIVersion, CloseInvalidIntents, CloseDisallowedIntents:
		return true
	}
	return false
}

// InvalidatesSession reports whether the session can no longer be resumed.
func (c CloseCode) InvalidatesSession() bool {
	return c == CloseInvalidSequence || c == CloseSessionTimedOut
}

// CloseFrame is the code and reason of a websocket close.
type CloseFrame struct {
	Code   CloseCode
	Reason string
}

// Resumable reports whether a session closed with this frame may be resumed. The gateway
// invalidates the session on a normal or going-away close.
func (f CloseFrame) Resumable() bool {
	return f.Code != CloseNormal && f.Code != CloseGoingAway
}

// GatewayClose reports that the connection was closed, with the frame when one was received.
type GatewayClose struct {
	Frame *CloseFrame
}
