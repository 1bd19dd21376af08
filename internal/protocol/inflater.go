package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	// windowSize is the deflate sliding window carried between messages.
	windowSize = 32 << 10
	// initialBufferSize fits the majority of dispatches without growing.
	initialBufferSize = 32 << 10
)

// zlibSuffix is the Z_SYNC_FLUSH marker that ends every message of a zlib-stream.
var zlibSuffix = []byte{0x00, 0x00, 0xff, 0xff}

// DecompressError is returned when the compressed stream is corrupt. The stream cannot be
// recovered; the connection has to be re-established.
type DecompressError struct {
	Err error
}

func (e *DecompressError) Error() string {
	return "decompressing message: " + e.Err.Error()
}

func (e *DecompressError) Unwrap() error {
	return e.Err
}

// Inflater decompresses a zlib-stream that spans the whole lifetime of one connection.
//
// Every message ends with a sync flush, which leaves the deflate stream on a block
// boundary. The only state that survives between messages is the sliding window, so each
// message is inflated by a reader primed with the previous 32KiB of output.
type Inflater struct {
	compressed []byte
	buffer     []byte
	window     []byte
	headerRead bool

	src    bytes.Reader
	reader io.ReadCloser

	processed uint64
	produced  uint64
}

// NewInflater returns an Inflater for a fresh connection.
func NewInflater() *Inflater {
	return &Inflater{
		buffer: make([]byte, 0, initialBufferSize),
		window: make([]byte, 0, windowSize),
	}
}

// Extend appends a received frame to the pending compressed input.
func (z *Inflater) Extend(frame []byte) {
	z.compressed = append(z.compressed, frame...)
}

// Message returns the decompressed message once the pending input ends with the flush
// marker, or nil while more frames are expected. The returned slice is reused by the
// next call.
func (z *Inflater) Message() ([]byte, error) {
	if !bytes.HasSuffix(z.compressed, zlibSuffix) {
		return nil, nil
	}

	input := z.compressed
	if !z.headerRead {
		if err := checkZlibHeader(input); err != nil {
			return nil, &DecompressError{Err: err}
		}
		input = input[2:]
		z.headerRead = true
	}

	z.src.Reset(input)
	if z.reader == nil {
		z.reader = flate.NewReaderDict(&z.src, z.window)
	} else if err := z.reader.(flate.Resetter).Reset(&z.src, z.window); err != nil {
		return nil, &DecompressError{Err: err}
	}

	z.buffer = z.buffer[:0]
	for {
		if len(z.buffer) == cap(z.buffer) {
			z.buffer = append(z.buffer, 0)[:len(z.buffer)]
		}
		n, err := z.reader.Read(z.buffer[len(z.buffer):cap(z.buffer)])
		z.buffer = z.buffer[:len(z.buffer)+n]
		if err == nil {
			continue
		}
		// The stream never terminates, so running out of input after the flush
		// marker is the normal end of a message.
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			break
		}
		return nil, &DecompressError{Err: err}
	}
	if z.src.Len() != 0 {
		return nil, &DecompressError{Err: fmt.Errorf("%d trailing bytes after flush", z.src.Len())}
	}

	z.processed += uint64(len(z.compressed))
	z.produced += uint64(len(z.buffer))
	z.compressed = z.compressed[:0]
	z.slideWindow(z.buffer)

	return z.buffer, nil
}

// Clear drops the last decompressed message. Pending compressed input is kept.
func (z *Inflater) Clear() {
	z.buffer = z.buffer[:0]
	if cap(z.buffer) > 4*initialBufferSize {
		z.buffer = make([]byte, 0, initialBufferSize)
	}
}

// Reset reinitialises the decompressor. A compression stream is never valid across
// connections, so this must be called on every reconnect.
func (z *Inflater) Reset() {
	z.compressed = z.compressed[:0]
	z.buffer = z.buffer[:0]
	z.window = z.window[:0]
	z.headerRead = false
	z.processed = 0
	z.produced = 0
}

// Ratio returns produced/processed bytes since the last Reset.
func (z *Inflater) Ratio() float64 {
	if z.processed == 0 {
		return 0
	}
	return float64(z.produced) / float64(z.processed)
}

func (z *Inflater) slideWindow(out []byte) {
	if len(out) >= windowSize {
		z.window = append(z.window[:0], out[len(out)-windowSize:]...)
		return
	}
	if overflow := len(z.window) + len(out) - windowSize; overflow > 0 {
		n := copy(z.window, z.window[overflow:])
		z.window = z.window[:n]
	}
	z.window = append(z.window, out...)
}

func checkZlibHeader(input []byte) error {
	if len(input) < 2 {
		return errors.New("zlib header truncated")
	}
	cmf, flg := input[0], input[1]
	if cmf&0x0f != 8 {
		return fmt.Errorf("unsupported zlib compression method %d", cmf&0x0f)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return errors.New("invalid zlib header checksum")
	}
	if flg&0x20 != 0 {
		return errors.New("zlib preset dictionary not supported")
	}
	return nil
}
