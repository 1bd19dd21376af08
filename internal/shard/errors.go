package shard

import (
	"errors"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/internal/protocol"
)

// ReceiveErrorKind classifies a ReceiveMessageError.
type ReceiveErrorKind int

const (
	// ReceiveCompression means a message could not be decompressed. The shard has
	// already disconnected to reset the stream.
	ReceiveCompression ReceiveErrorKind = iota
	// ReceiveDeserializing means a payload could not be parsed. The shard keeps going.
	ReceiveDeserializing
	// ReceiveFatallyClosed means the shard was closed with a fatal close code.
	ReceiveFatallyClosed
	// ReceiveIO means reading from the connection failed.
	ReceiveIO
	// ReceiveProcess means handling a payload required a write that failed.
	ReceiveProcess
	// ReceiveReconnect means establishing a new connection failed.
	ReceiveReconnect
)

func (k ReceiveErrorKind) message() string {
	switch k {
	case ReceiveCompression:
		return shardnet.ErrDecompress
	case ReceiveDeserializing:
		return shardnet.ErrFailedToDecode
	case ReceiveFatallyClosed:
		return shardnet.ErrFatallyClosed
	case ReceiveIO:
		return shardnet.ErrReadFailed
	case ReceiveProcess:
		return shardnet.ErrProcessingFailed
	case ReceiveReconnect:
		return shardnet.ErrReconnectFailed
	}
	return "unknown receive error"
}

// ErrReconnectExhausted is wrapped by the error returned once the reconnect attempts are
// used up.
var ErrReconnectExhausted = errors.New(shardnet.ErrReconnectExhausted)

// ReceiveMessageError is returned by NextMessage and NextEvent.
type ReceiveMessageError struct {
	Kind  ReceiveErrorKind
	Close *protocol.CloseFrame // set for ReceiveFatallyClosed
	Err   error
}

func (e *ReceiveMessageError) Error() string {
	if e.Err == nil {
		return e.Kind.message()
	}
	return e.Kind.message() + ": " + e.Err.Error()
}

func (e *ReceiveMessageError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the shard can no longer make progress.
func (e *ReceiveMessageError) Fatal() bool {
	return e.Kind == ReceiveFatallyClosed || errors.Is(e.Err, ErrReconnectExhausted)
}

// SendErrorKind classifies a SendError.
type SendErrorKind int

const (
	// SendSerializing means the command could not be encoded.
	SendSerializing SendErrorKind = iota
	// SendSending means the payload could not be written.
	SendSending
)

// SendError is returned when a command or payload cannot be sent.
type SendError struct {
	Kind SendErrorKind
	Err  error
}

func (e *SendError) Error() string {
	msg := shardnet.ErrSendFailed
	if e.Kind == SendSerializing {
		msg = shardnet.ErrFailedToEncode
	}
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err ends the shard.
func IsFatal(err error) bool {
	var recvErr *ReceiveMessageError
	return errors.As(err, &recvErr) && recvErr.Fatal()
}
