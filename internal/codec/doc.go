// Package codec encodes the envelopes that pair a session handle with its
// payload as they cross the gateway queues.
//
// CBOR is used with Core Deterministic Encoding (RFC 8949 §4.2). The payload
// itself is carried as an opaque byte string.
package codec
