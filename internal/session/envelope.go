// ABOUTME: Envelope pairs a session handle with an opaque payload on the packet queues.
// ABOUTME: Encoded as CBOR so main logic can route payloads by session.

package session

import (
	"errors"
	"fmt"

	"github.com/2389/synapse-gateway/internal/codec"
)

// ErrEmptyHandle indicates an envelope without a session handle.
var ErrEmptyHandle = errors.New("envelope has no session handle")

// Envelope is what travels through the packet queues in both directions.
type Envelope struct {
	Handle string `cbor:"1,keyasint"`
	Data   []byte `cbor:"2,keyasint"`
}

// EncodeEnvelope serializes e.
func EncodeEnvelope(e Envelope) ([]byte, error) {
	if e.Handle == "" {
		return nil, ErrEmptyHandle
	}
	data, err := codec.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses a payload produced by EncodeEnvelope.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	var e Envelope
	if err := codec.Unmarshal(payload, &e); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if e.Handle == "" {
		return Envelope{}, ErrEmptyHandle
	}
	return e, nil
}
