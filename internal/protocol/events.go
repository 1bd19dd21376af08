package protocol

import "github.com/luciancaetano/shardnet/model"

// GatewayEvent is an inbound gateway payload (a control opcode or a dispatch) or the
// close of the connection.
type GatewayEvent interface {
	gatewayEvent()
}

// Hello is the first payload of every connection.
type Hello struct {
	HeartbeatInterval uint64 `json:"heartbeat_interval"`
}

// HeartbeatRequest asks the client to heartbeat immediately.
type HeartbeatRequest struct {
	Sequence *uint64
}

// HeartbeatAck acknowledges the last heartbeat.
type HeartbeatAck struct{}

// InvalidateSession tells the client its session is gone; Resumable says whether a
// resume may still be attempted.
type InvalidateSession struct {
	Resumable bool
}

// Reconnect asks the client to reconnect and resume.
type Reconnect struct{}

// Dispatch carries a state change.
type Dispatch struct {
	Sequence uint64
	Event    model.Event
}

func (Hello) OpCode() OpCode             { return OpHello }
func (HeartbeatRequest) OpCode() OpCode  { return OpHeartbeat }
func (HeartbeatAck) OpCode() OpCode      { return OpHeartbeatAck }
func (InvalidateSession) OpCode() OpCode { return OpInvalidSession }
func (Reconnect) OpCode() OpCode         { return OpReconnect }
func (Dispatch) OpCode() OpCode          { return OpDispatch }

func (Hello) gatewayEvent()             {}
func (HeartbeatRequest) gatewayEvent()  {}
func (HeartbeatAck) gatewayEvent()      {}
func (InvalidateSession) gatewayEvent() {}
func (Reconnect) gatewayEvent()         {}
func (Dispatch) gatewayEvent()          {}
func (GatewayClose) gatewayEvent()      {}

// Name returns the dispatch event name.
func (d Dispatch) Name() string {
	if d.Event == nil {
		return ""
	}
	return d.Event.EventName()
}
