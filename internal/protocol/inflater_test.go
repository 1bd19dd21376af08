package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// compressStream compresses each message as one sync-flushed segment of a single zlib stream,
// the way the gateway frames zlib-stream connections.
func compressStream(t *testing.T, messages ...string) [][]byte {
	t.Helper()

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	frames := make([][]byte, 0, len(messages))
	for _, msg := range messages {
		if _, err := w.Write([]byte(msg)); err != nil {
			t.Fatalf("compress: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		frame := make([]byte, buf.Len())
		copy(frame, buf.Bytes())
		frames = append(frames, frame)
		buf.Reset()
	}
	return frames
}

// TestInflaterStream tests that consecutive messages share one compression context
func TestInflaterStream(t *testing.T) {
	t.Parallel()

	messages := []string{
		`{"t":null,"s":null,"op":10,"d":{"heartbeat_interval":41250}}`,
		`{"t":"READY","s":1,"op":0,"d":{"session_id":"abc"}}`,
		`{"t":"READY","s":1,"op":0,"d":{"session_id":"abc"}}`,
		strings.Repeat(`{"t":"GUILD_CREATE","s":2,"op":0,"d":{"name":"guild"}}`, 2000),
	}
	frames := compressStream(t, messages...)

	z := NewInflater()
	for i, frame := range frames {
		z.Clear()
		z.Extend(frame)

		got, err := z.Message()
		if err != nil {
			t.Fatalf("message %d: Message() error = %v", i, err)
		}
		if string(got) != messages[i] {
			t.Errorf("message %d: got %d bytes, want %d bytes", i, len(got), len(messages[i]))
		}
	}

	if z.Ratio() <= 1 {
		t.Errorf("Ratio() = %f, want > 1 for repetitive input", z.Ratio())
	}
}

// TestInflaterFragments tests that a message split across frames is only returned once complete
func TestInflaterFragments(t *testing.T) {
	t.Parallel()

	msg := `{"t":"MESSAGE_CREATE","s":5,"op":0,"d":{"content":"hello"}}`
	frame := compressStream(t, msg)[0]
	mid := len(frame) / 2

	z := NewInflater()
	z.Extend(frame[:mid])
	got, err := z.Message()
	if err != nil || got != nil {
		t.Fatalf("Message() after partial frame = (%q, %v), want (nil, nil)", got, err)
	}

	z.Extend(frame[mid:])
	got, err = z.Message()
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	if string(got) != msg {
		t.Errorf("Message() = %q, want %q", got, msg)
	}
}

// TestInflaterReset tests that a new connection's stream decodes after Reset
func TestInflaterReset(t *testing.T) {
	t.Parallel()

	first := compressStream(t, `{"op":11}`, `{"op":11}`)
	second := compressStream(t, `{"op":10}`)

	z := NewInflater()
	z.Extend(first[0])
	if _, err := z.Message(); err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	z.Reset()
	z.Extend(second[0])
	got, err := z.Message()
	if err != nil {
		t.Fatalf("Message() after Reset error = %v", err)
	}
	if string(got) != `{"op":10}` {
		t.Errorf("Message() = %q", got)
	}
}

// TestInflaterCorrupt tests that malformed input is reported as a DecompressError
func TestInflaterCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "bad header", input: []byte{0x01, 0x02, 0x00, 0x00, 0xff, 0xff}},
		{name: "bad block", input: []byte{0x78, 0x9c, 0xff, 0xff, 0xff, 0x00, 0x00, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			z := NewInflater()
			z.Extend(tt.input)
			_, err := z.Message()

			var decompressErr *DecompressError
			if !errors.As(err, &decompressErr) {
				t.Fatalf("Message() error = %v, want *DecompressError", err)
			}
		})
	}
}
