package protocol

import (
	"strconv"
	"strings"
)

// APIVersion is the gateway version spoken by this package.
const APIVersion = 10

// Encoding is the payload encoding negotiated in the connection URL.
type Encoding string

const EncodingJSON Encoding = "json"

// ConnectURL appends the version, encoding and compression query to a gateway base URL.
func ConnectURL(base string, version int, encoding Encoding, compress bool) string {
	var b strings.Builder
	b.Grow(len(base) + 48)
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/?v=")
	b.WriteString(strconv.Itoa(version))
	b.WriteString("&encoding=")
	b.WriteString(string(encoding))
	if compress {
		b.WriteString("&compress=zlib-stream")
	}
	return b.String()
}
