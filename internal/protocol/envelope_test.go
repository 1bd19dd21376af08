package protocol

import (
	"errors"
	"testing"
)

// TestScanEnvelope tests the fast-path envelope scanner
func TestScanEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantOp      OpCode
		wantSeq     uint64
		wantHasSeq  bool
		wantType    string
		wantHasType bool
		wantData    string
		wantErr     error
	}{
		{
			name:        "dispatch",
			input:       `{"t":"MESSAGE_CREATE","s":12,"op":0,"d":{"id":"1"}}`,
			wantOp:      OpDispatch,
			wantSeq:     12,
			wantHasSeq:  true,
			wantType:    "MESSAGE_CREATE",
			wantHasType: true,
			wantData:    `{"id":"1"}`,
		},
		{
			name:     "hello with nulls",
			input:    `{"t":null,"s":null,"op":10,"d":{"heartbeat_interval":41250}}`,
			wantOp:   OpHello,
			wantData: `{"heartbeat_interval":41250}`,
		},
		{
			name:       "whitespace between tokens",
			input:      "{ \"t\" : null ,\n \"s\" : 4 , \"op\" : 11 , \"d\" : null }",
			wantOp:     OpHeartbeatAck,
			wantSeq:    4,
			wantHasSeq: true,
			wantData:   "null",
		},
		{
			name:        "nested t does not confuse the scanner",
			input:       `{"t":"GUILD_ROLE_UPDATE","s":2,"op":0,"d":{"role":{"name":"a \"t\"role","t":"NOPE"},"guild_id":"1"}}`,
			wantOp:      OpDispatch,
			wantSeq:     2,
			wantHasSeq:  true,
			wantType:    "GUILD_ROLE_UPDATE",
			wantHasType: true,
			wantData:    `{"role":{"name":"a \"t\"role","t":"NOPE"},"guild_id":"1"}`,
		},
		{
			name:        "reordered keys fall back to a full walk",
			input:       `{"d":{"t":"INNER","s":99,"op":5},"op":0,"s":3,"t":"READY"}`,
			wantOp:      OpDispatch,
			wantSeq:     3,
			wantHasSeq:  true,
			wantType:    "READY",
			wantHasType: true,
			wantData:    `{"t":"INNER","s":99,"op":5}`,
		},
		{
			name:    "missing opcode",
			input:   `{"t":null,"s":null,"d":{"op":1}}`,
			wantErr: ErrMissingOpcode,
		},
		{
			name:    "not an object",
			input:   `[1,2]`,
			wantErr: ErrMalformedEnvelope,
		},
		{
			name:    "truncated",
			input:   `{"t":"READY","s":1,"op":`,
			wantErr: ErrMalformedEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := ScanEnvelope([]byte(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ScanEnvelope() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanEnvelope() unexpected error = %v", err)
			}

			if env.Op != tt.wantOp {
				t.Errorf("Op = %v, want %v", env.Op, tt.wantOp)
			}
			if env.HasSequence != tt.wantHasSeq || env.Sequence != tt.wantSeq {
				t.Errorf("Sequence = (%d, %v), want (%d, %v)", env.Sequence, env.HasSequence, tt.wantSeq, tt.wantHasSeq)
			}
			if env.HasEventType() != tt.wantHasType || env.EventType() != tt.wantType {
				t.Errorf("EventType = (%q, %v), want (%q, %v)", env.EventType(), env.HasEventType(), tt.wantType, tt.wantHasType)
			}

			data, err := env.Data()
			if err != nil {
				t.Fatalf("Data() error = %v", err)
			}
			if string(data) != tt.wantData {
				t.Errorf("Data() = %s, want %s", data, tt.wantData)
			}
		})
	}
}

// TestScanEnvelopeBorrowsEventType tests that the event type is not copied
func TestScanEnvelopeBorrowsEventType(t *testing.T) {
	t.Parallel()

	input := []byte(`{"t":"READY","s":1,"op":0,"d":{}}`)
	env, err := ScanEnvelope(input)
	if err != nil {
		t.Fatalf("ScanEnvelope() error = %v", err)
	}

	borrowed := env.EventTypeBytes()
	if &borrowed[0] != &input[6] {
		t.Error("EventTypeBytes() does not reference the input buffer")
	}

	owned := env.EventType()
	input[6] = 'X'
	if owned != "READY" {
		t.Errorf("EventType() = %q changed with the buffer", owned)
	}
}

func BenchmarkScanEnvelope(b *testing.B) {
	input := []byte(`{"t":"PRESENCE_UPDATE","s":1024,"op":0,"d":{"user":{"id":"1"},"status":"online","activities":[],"client_status":{"desktop":"online"},"guild_id":"2"}}`)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ScanEnvelope(input); err != nil {
			b.Fatal(err)
		}
	}
}
