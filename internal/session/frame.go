// ABOUTME: Length-prefixed framing for client connections.
// ABOUTME: Each frame is a 4-byte big-endian length followed by the payload.

package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize bounds a single client frame.
const DefaultMaxFrameSize = 8 << 20

const frameHeaderSize = 4

// ErrFrameTooLarge indicates a frame header announcing more than the limit.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// ReadFrame reads one frame from r. A clean EOF before the header is returned
// as io.EOF; a truncated frame as io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if uint64(size) > uint64(maxSize) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

// WriteFrame writes data as one frame with a single Write call.
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, frameHeaderSize+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[frameHeaderSize:], data)

	_, err := w.Write(buf)
	return err
}
