package protocol

import (
	"reflect"
	"strings"
	"testing"

	"github.com/luciancaetano/shardnet/model"
)

// TestEncode tests the Encode function with various commands
func TestEncode(t *testing.T) {
	t.Parallel()

	seq := uint64(42)
	tests := []struct {
		name      string
		command   Command
		want      string
		wantError bool
	}{
		{
			name:    "heartbeat with sequence",
			command: Heartbeat{Sequence: &seq},
			want:    `{"op":1,"d":42}`,
		},
		{
			name:    "heartbeat before first dispatch",
			command: Heartbeat{},
			want:    `{"op":1,"d":null}`,
		},
		{
			name:    "resume",
			command: Resume{Token: "tkn", SessionID: "abc", Sequence: 7},
			want:    `{"op":6,"d":{"token":"tkn","session_id":"abc","seq":7}}`,
		},
		{
			name:    "leave voice",
			command: UpdateVoiceState{GuildID: 1},
			want:    `{"op":4,"d":{"guild_id":"1","channel_id":null,"self_mute":false,"self_deaf":false}}`,
		},
		{
			name: "payload exceeds max size",
			command: RequestGuildMembers{
				GuildID: 1,
				Nonce:   strings.Repeat("x", maxCommandSize),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Encode(tt.command)

			if (err != nil) != tt.wantError {
				t.Errorf("Encode() error = %v, wantError %v", err, tt.wantError)
				return
			}

			if tt.wantError {
				return
			}

			if string(result) != tt.want {
				t.Errorf("Encode() = %s, want %s", result, tt.want)
			}
		})
	}
}

// TestEncodeIdentify checks the shard pair and intents are on the wire
func TestEncodeIdentify(t *testing.T) {
	t.Parallel()

	out, err := Encode(Identify{
		Token:      "tkn",
		Properties: IdentifyProperties{OS: "linux", Browser: "shardnet", Device: "shardnet"},
		Shard:      [2]uint32{1, 4},
		Intents:    model.IntentGuilds | model.IntentGuildMessages,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	for _, fragment := range []string{`"op":2`, `"shard":[1,4]`, `"intents":513`, `"token":"tkn"`} {
		if !strings.Contains(string(out), fragment) {
			t.Errorf("Encode() = %s, missing %s", out, fragment)
		}
	}
}

// TestRoundTrip tests that Marshal then Decode yields the original event for every inbound opcode
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	seq := uint64(3)
	tests := []struct {
		name  string
		event GatewayEvent
	}{
		{name: "hello", event: Hello{HeartbeatInterval: 41250}},
		{name: "heartbeat request", event: HeartbeatRequest{Sequence: &seq}},
		{name: "heartbeat request without sequence", event: HeartbeatRequest{}},
		{name: "heartbeat ack", event: HeartbeatAck{}},
		{name: "invalidate session resumable", event: InvalidateSession{Resumable: true}},
		{name: "invalidate session", event: InvalidateSession{Resumable: false}},
		{name: "reconnect", event: Reconnect{}},
		{
			name: "dispatch",
			event: Dispatch{
				Sequence: 2,
				Event:    &model.GuildRoleDelete{GuildID: 1, RoleID: 2},
			},
		},
		{
			name: "unknown dispatch",
			event: Dispatch{
				Sequence: 9,
				Event:    &model.UnknownEvent{Name: "SOMETHING_NEW", Data: []byte(`{"a":1}`)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := Marshal(tt.event)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%s) error = %v", data, err)
			}

			if !reflect.DeepEqual(got, tt.event) {
				t.Errorf("Decode(Marshal()) = %#v, want %#v", got, tt.event)
			}
		})
	}
}

// TestDecodeLiteralPayloads tests decoding payloads exactly as the gateway sends them
func TestDecodeLiteralPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    GatewayEvent
		wantErr bool
	}{
		{
			name:  "hello",
			input: `{"t":null,"s":null,"op":10,"d":{"heartbeat_interval":41250,"_trace":["gateway-prd"]}}`,
			want:  Hello{HeartbeatInterval: 41250},
		},
		{
			name:  "heartbeat ack",
			input: `{"t":null,"s":null,"op":11,"d":null}`,
			want:  HeartbeatAck{},
		},
		{
			name:  "invalid session",
			input: `{"t":null,"s":null,"op":9,"d":false}`,
			want:  InvalidateSession{Resumable: false},
		},
		{
			name:  "reconnect",
			input: `{"t":null,"s":null,"op":7,"d":null}`,
			want:  Reconnect{},
		},
		{
			name:    "dispatch without event type",
			input:   `{"t":null,"s":1,"op":0,"d":{}}`,
			wantErr: true,
		},
		{
			name:    "client-only opcode",
			input:   `{"t":null,"s":null,"op":2,"d":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decode() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

// TestConnectURL tests connection URL construction
func TestConnectURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		version  int
		compress bool
		want     string
	}{
		{
			name:     "compressed",
			base:     "wss://gateway.discord.gg",
			version:  6,
			compress: true,
			want:     "wss://gateway.discord.gg/?v=6&encoding=json&compress=zlib-stream",
		},
		{
			name:    "trailing slash uncompressed",
			base:    "wss://gateway.discord.gg/",
			version: 10,
			want:    "wss://gateway.discord.gg/?v=10&encoding=json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ConnectURL(tt.base, tt.version, EncodingJSON, tt.compress)
			if got != tt.want {
				t.Errorf("ConnectURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestOpCodeString tests opcode names used in log output
func TestOpCodeString(t *testing.T) {
	t.Parallel()

	if got := OpHello.String(); got != "hello" {
		t.Errorf("OpHello.String() = %q", got)
	}
	if got := OpCode(42).String(); got != "opcode(42)" {
		t.Errorf("OpCode(42).String() = %q", got)
	}
}
