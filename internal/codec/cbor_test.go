// ABOUTME: Tests for the CBOR codec.
// ABOUTME: Deterministic output and rejection of malformed input.

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Handle string `cbor:"h"`
	Data   []byte `cbor:"d"`
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := Marshal(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	b, err := Marshal(map[string]int{"a": 1, "b": 2})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestUnmarshal_Struct(t *testing.T) {
	data, err := Marshal(sample{Handle: "h1", Data: []byte{0x01, 0x02}})
	require.NoError(t, err)

	var got sample
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, "h1", got.Handle)
	assert.Equal(t, []byte{0x01, 0x02}, got.Data)
}

func TestUnmarshal_Garbage(t *testing.T) {
	var got sample
	assert.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &got))
}
