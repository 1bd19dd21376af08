package model

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a snowflake identifier. The gateway encodes snowflakes as JSON strings; numbers and
// null are accepted on decode.
type ID uint64

// ParseID parses the decimal representation of a snowflake.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", s, err)
	}
	return ID(v), nil
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id == 0
}

func (id ID) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 22)
	buf = append(buf, '"')
	buf = strconv.AppendUint(buf, uint64(id), 10)
	buf = append(buf, '"')
	return buf, nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*id = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %q: %w", data, err)
	}
	*id = ID(v)
	return nil
}
