package protocol

import "strconv"

// OpCode identifies the kind of a gateway payload.
type OpCode uint8

const (
	OpDispatch            OpCode = 0
	OpHeartbeat           OpCode = 1
	OpIdentify            OpCode = 2
	OpPresenceUpdate      OpCode = 3
	OpVoiceStateUpdate    OpCode = 4
	OpResume              OpCode = 6
	OpReconnect           OpCode = 7
	OpRequestGuildMembers OpCode = 8
	OpInvalidSession      OpCode = 9
	OpHello               OpCode = 10
	OpHeartbeatAck        OpCode = 11
)

var opNames = map[OpCode]string{
	OpDispatch:            "dispatch",
	OpHeartbeat:           "heartbeat",
	OpIdentify:            "identify",
	OpPresenceUpdate:      "presence_update",
	OpVoiceStateUpdate:    "voice_state_update",
	OpResume:              "resume",
	OpReconnect:           "reconnect",
	OpRequestGuildMembers: "request_guild_members",
	OpInvalidSession:      "invalid_session",
	OpHello:               "hello",
	OpHeartbeatAck:        "heartbeat_ack",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "opcode(" + strconv.Itoa(int(op)) + ")"
}
