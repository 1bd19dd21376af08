package protocol

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/luciancaetano/shardnet/model"
)

// maxCommandSize is the largest payload the gateway accepts from a client.
const maxCommandSize = 4096

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type outbound struct {
	Op OpCode `json:"op"`
	D  any    `json:"d"`
}

// envelope is the inbound shape. Field order matches what the gateway sends.
type envelope struct {
	T  *string `json:"t"`
	S  *uint64 `json:"s"`
	Op OpCode  `json:"op"`
	D  any     `json:"d"`
}

// Encode serialises cmd into the {"op","d"} payload sent to the gateway.
func Encode(cmd Command) ([]byte, error) {
	var d any = cmd
	if hb, ok := cmd.(Heartbeat); ok {
		d = hb.Sequence
	}
	out, err := json.Marshal(outbound{Op: cmd.OpCode(), D: d})
	if err != nil {
		return nil, err
	}
	if len(out) > maxCommandSize {
		return nil, fmt.Errorf("payload size %d exceeds maximum %d bytes", len(out), maxCommandSize)
	}
	return out, nil
}

// Decode fully decodes an inbound payload, keyed on its scanned opcode.
func Decode(data []byte) (GatewayEvent, error) {
	env, err := ScanEnvelope(data)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope(&env)
}

// DecodeEnvelope decodes the payload of an already scanned envelope. Control opcodes are
// built from scanned primitives; only Hello and dispatches reach the JSON decoder.
func DecodeEnvelope(env *Envelope) (GatewayEvent, error) {
	data, err := env.Data()
	if err != nil {
		return nil, err
	}

	switch env.Op {
	case OpHeartbeat:
		if env.HasSequence {
			seq := env.Sequence
			return HeartbeatRequest{Sequence: &seq}, nil
		}
		return HeartbeatRequest{}, nil
	case OpHeartbeatAck:
		return HeartbeatAck{}, nil
	case OpReconnect:
		return Reconnect{}, nil
	case OpInvalidSession:
		return InvalidateSession{Resumable: string(data) == "true"}, nil
	case OpHello:
		var hello Hello
		if err := json.Unmarshal(data, &hello); err != nil {
			return nil, fmt.Errorf("decode hello: %w", err)
		}
		return hello, nil
	case OpDispatch:
		if !env.HasEventType() {
			return nil, errors.New("dispatch without event type")
		}
		event, err := model.DecodeDispatch(env.EventType(), data)
		if err != nil {
			return nil, err
		}
		return Dispatch{Sequence: env.Sequence, Event: event}, nil
	default:
		return nil, fmt.Errorf("unexpected inbound opcode %s", env.Op)
	}
}

// Marshal serialises an inbound event in the gateway's own key order. It is the inverse of
// Decode and is used to build fixtures.
func Marshal(event GatewayEvent) ([]byte, error) {
	var env envelope
	switch ev := event.(type) {
	case Hello:
		env.Op = ev.OpCode()
		env.D = ev
	case HeartbeatRequest:
		env.Op = ev.OpCode()
		env.S = ev.Sequence
	case HeartbeatAck:
		env.Op = ev.OpCode()
	case Reconnect:
		env.Op = ev.OpCode()
	case InvalidateSession:
		env.Op = ev.OpCode()
		env.D = ev.Resumable
	case Dispatch:
		env.Op = ev.OpCode()
		name := ev.Name()
		seq := ev.Sequence
		env.T = &name
		env.S = &seq
		env.D = ev.Event
		if unknown, ok := ev.Event.(*model.UnknownEvent); ok {
			env.D = unknown.Data
		}
	default:
		return nil, fmt.Errorf("cannot marshal %T", event)
	}
	return json.Marshal(env)
}
