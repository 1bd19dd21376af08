package shard

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luciancaetano/shardnet/internal/protocol"
)

func TestReceiveMessageErrorFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{
			name:  "fatally closed",
			err:   &ReceiveMessageError{Kind: ReceiveFatallyClosed, Close: &protocol.CloseFrame{Code: protocol.CloseAuthenticationFailed}},
			fatal: true,
		},
		{
			name:  "reconnect exhausted",
			err:   &ReceiveMessageError{Kind: ReceiveReconnect, Err: ErrReconnectExhausted},
			fatal: true,
		},
		{
			name:  "reconnect failed",
			err:   &ReceiveMessageError{Kind: ReceiveReconnect, Err: errors.New("dial tcp: refused")},
			fatal: false,
		},
		{
			name:  "deserializing",
			err:   &ReceiveMessageError{Kind: ReceiveDeserializing, Err: protocol.ErrMissingOpcode},
			fatal: false,
		},
		{
			name:  "wrapped fatal",
			err:   fmt.Errorf("shard 3: %w", &ReceiveMessageError{Kind: ReceiveFatallyClosed}),
			fatal: true,
		},
		{
			name:  "unrelated",
			err:   errors.New("boom"),
			fatal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := &ReceiveMessageError{Kind: ReceiveDeserializing, Err: protocol.ErrMissingOpcode}
	assert.Contains(t, err.Error(), "failed to decode gateway payload")
	assert.ErrorIs(t, err, protocol.ErrMissingOpcode)

	sendErr := &SendError{Kind: SendSerializing, Err: errors.New("too large")}
	assert.Equal(t, "failed to encode command: too large", sendErr.Error())
}
