package domain

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordHexRoundTrip(t *testing.T) {
	original := WordFromUint64(0xdeadbeef)

	parsed, err := WordFromHex(original.Hex())
	require.NoError(t, err)
	assert.True(t, original.Equal(parsed))
}

func TestWordFromHexRejectsGarbage(t *testing.T) {
	_, err := WordFromHex("0xzz")
	assert.Error(t, err)

	_, err = WordFromHex("")
	assert.Error(t, err)
}

func TestWordIsZero(t *testing.T) {
	assert.True(t, Word{}.IsZero())
	assert.False(t, WordFromUint64(1).IsZero())
}

func TestWordBytes32(t *testing.T) {
	w := WordFromUint64(0x0102)
	b := w.Bytes32()

	assert.Equal(t, byte(0x01), b[30])
	assert.Equal(t, byte(0x02), b[31])
	for i := 0; i < 30; i++ {
		assert.Equal(t, byte(0), b[i])
	}
}

func TestWordAddWraps(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	max.Sub(max, big.NewInt(1))

	w := WordFromBig(max)
	assert.True(t, w.Add(1).IsZero(), "2^256-1 + 1 must wrap to zero")

	assert.True(t, WordFromUint64(41).Add(1).Equal(WordFromUint64(42)))
}

func TestWordHex32Padded(t *testing.T) {
	w := WordFromUint64(1)
	assert.Len(t, w.Hex32(), 2+64)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000001", w.Hex32())
}

func TestWordJSONRoundTrip(t *testing.T) {
	original := WordFromUint64(123456789)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Word
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, original.Equal(decoded))
}

func TestWordJSONAcceptsNumbers(t *testing.T) {
	var w Word
	require.NoError(t, json.Unmarshal([]byte("42"), &w))
	assert.True(t, w.Equal(WordFromUint64(42)))
}

func TestWordJSONLargeValue(t *testing.T) {
	// A value far beyond float64 precision must survive the round trip.
	big256, err := WordFromHex("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	data, err := json.Marshal(big256)
	require.NoError(t, err)

	var decoded Word
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, big256.Equal(decoded))
}
