package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingOpcode is returned when the top-level object has no "op" key.
	ErrMissingOpcode = errors.New("envelope has no opcode")
	// ErrMalformedEnvelope is returned when the input is not a JSON object the scanner can walk.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Envelope is the result of scanning the top-level "t", "s" and "op" fields of a gateway
// payload without decoding it. It borrows from the scanned buffer, which must not be
// modified while the Envelope is in use.
//
// The gateway always orders the keys "t", "s", "op", "d". The scanner walks only the
// top level of the object, so nested keys that happen to be named "t" or "s" never match,
// and it stops at "d" once "op" is known so the (large) payload is not walked. If "d"
// arrives before "op" the payload is skipped and scanning continues, which keeps a
// reordered envelope correct at the cost of one extra pass.
type Envelope struct {
	Op          OpCode
	Sequence    uint64
	HasSequence bool

	raw       []byte
	eventType []byte
	dataStart int
}

// EventTypeBytes returns the dispatch event name as a slice of the scanned buffer, or nil.
func (e *Envelope) EventTypeBytes() []byte {
	return e.eventType
}

// EventType returns an owned copy of the dispatch event name, or "".
func (e *Envelope) EventType() string {
	return string(e.eventType)
}

// HasEventType reports whether "t" was present and not null.
func (e *Envelope) HasEventType() bool {
	return e.eventType != nil
}

// Data returns the raw "d" value, or nil when absent.
func (e *Envelope) Data() ([]byte, error) {
	if e.dataStart < 0 {
		return nil, nil
	}
	end, err := skipValue(e.raw, e.dataStart)
	if err != nil {
		return nil, err
	}
	return e.raw[e.dataStart:end], nil
}

// ScanEnvelope extracts the opcode, sequence and event type of a gateway payload.
func ScanEnvelope(data []byte) (Envelope, error) {
	env := Envelope{raw: data, dataStart: -1}
	haveOp := false

	i := skipSpace(data, 0)
	if i >= len(data) || data[i] != '{' {
		return env, ErrMalformedEnvelope
	}
	i++

	for {
		i = skipSpace(data, i)
		if i >= len(data) {
			return env, ErrMalformedEnvelope
		}
		switch data[i] {
		case '}':
			if !haveOp {
				return env, ErrMissingOpcode
			}
			return env, nil
		case ',':
			i++
			continue
		case '"':
		default:
			return env, fmt.Errorf("%w: unexpected %q at %d", ErrMalformedEnvelope, data[i], i)
		}

		keyEnd, err := skipString(data, i)
		if err != nil {
			return env, err
		}
		key := data[i+1 : keyEnd-1]

		i = skipSpace(data, keyEnd)
		if i >= len(data) || data[i] != ':' {
			return env, ErrMalformedEnvelope
		}
		i = skipSpace(data, i+1)

		switch {
		case len(key) == 2 && key[0] == 'o' && key[1] == 'p':
			v, next, err := scanUint(data, i)
			if err != nil {
				return env, err
			}
			if v > 255 {
				return env, fmt.Errorf("%w: opcode %d out of range", ErrMalformedEnvelope, v)
			}
			env.Op = OpCode(v)
			haveOp = true
			i = next
		case len(key) == 1 && key[0] == 's':
			if isNull(data, i) {
				i += 4
				continue
			}
			v, next, err := scanUint(data, i)
			if err != nil {
				return env, err
			}
			env.Sequence = v
			env.HasSequence = true
			i = next
		case len(key) == 1 && key[0] == 't':
			if isNull(data, i) {
				i += 4
				continue
			}
			if i >= len(data) || data[i] != '"' {
				return env, fmt.Errorf("%w: event type is not a string", ErrMalformedEnvelope)
			}
			end, err := skipString(data, i)
			if err != nil {
				return env, err
			}
			env.eventType = data[i+1 : end-1]
			i = end
		case len(key) == 1 && key[0] == 'd':
			env.dataStart = i
			if haveOp {
				return env, nil
			}
			next, err := skipValue(data, i)
			if err != nil {
				return env, err
			}
			i = next
		default:
			next, err := skipValue(data, i)
			if err != nil {
				return env, err
			}
			i = next
		}
	}
}

func skipSpace(data []byte, i int) int {
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

func isNull(data []byte, i int) bool {
	return i+4 <= len(data) && data[i] == 'n' && data[i+1] == 'u' && data[i+2] == 'l' && data[i+3] == 'l'
}

// skipString returns the index just past the closing quote of the string starting at i.
func skipString(data []byte, i int) (int, error) {
	for j := i + 1; j < len(data); j++ {
		switch data[j] {
		case '\\':
			j++
		case '"':
			return j + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: unterminated string", ErrMalformedEnvelope)
}

func scanUint(data []byte, i int) (uint64, int, error) {
	start := i
	var v uint64
	for i < len(data) && data[i] >= '0' && data[i] <= '9' {
		d := uint64(data[i] - '0')
		if v > (1<<64-1-d)/10 {
			return 0, 0, fmt.Errorf("%w: integer overflow", ErrMalformedEnvelope)
		}
		v = v*10 + d
		i++
	}
	if i == start {
		return 0, 0, fmt.Errorf("%w: expected unsigned integer at %d", ErrMalformedEnvelope, start)
	}
	return v, i, nil
}

// skipValue returns the index just past the JSON value starting at i.
func skipValue(data []byte, i int) (int, error) {
	if i >= len(data) {
		return 0, ErrMalformedEnvelope
	}
	switch data[i] {
	case '"':
		return skipString(data, i)
	case '{', '[':
		depth := 0
		for j := i; j < len(data); j++ {
			switch data[j] {
			case '"':
				end, err := skipString(data, j)
				if err != nil {
					return 0, err
				}
				j = end - 1
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return j + 1, nil
				}
			}
		}
		return 0, fmt.Errorf("%w: unterminated container", ErrMalformedEnvelope)
	default:
		j := i
		for j < len(data) {
			switch data[j] {
			case ',', '}', ']', ' ', '\t', '\n', '\r':
				return j, nil
			}
			j++
		}
		return j, nil
	}
}
