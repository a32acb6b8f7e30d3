package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// maxWord is 2^256, the modulus for Word arithmetic.
var maxWord = new(big.Int).Lsh(big.NewInt(1), 256)

// Word is an unsigned 256-bit value as produced by the oracle contract, used
// for both request ids and random words. The zero Word is the contract's
// "not yet fulfilled" sentinel and is never a valid random value.
//
// Words encode to JSON as 0x-prefixed hexadecimal strings so that values
// above 2^53 survive round-trips through JavaScript clients.
type Word struct {
	n big.Int
}

// WordFromBig creates a Word from a big integer. Negative values and values
// of 256 bits or more are reduced modulo 2^256.
func WordFromBig(v *big.Int) Word {
	var w Word
	w.n.Mod(v, maxWord)
	return w
}

// WordFromUint64 creates a Word from a uint64.
func WordFromUint64(v uint64) Word {
	var w Word
	w.n.SetUint64(v)
	return w
}

// WordFromBytes interprets b as a big-endian unsigned integer.
func WordFromBytes(b []byte) Word {
	var w Word
	w.n.SetBytes(b)
	w.n.Mod(&w.n, maxWord)
	return w
}

// WordFromHex parses a hexadecimal string, with or without a 0x prefix.
func WordFromHex(s string) (Word, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if trimmed == "" {
		return Word{}, fmt.Errorf("empty hex word")
	}
	var w Word
	if _, ok := w.n.SetString(trimmed, 16); !ok {
		return Word{}, fmt.Errorf("invalid hex word: %q", s)
	}
	if w.n.Sign() < 0 || w.n.BitLen() > 256 {
		return Word{}, fmt.Errorf("hex word out of range: %q", s)
	}
	return w, nil
}

// Big returns a copy of the word as a big integer.
func (w Word) Big() *big.Int {
	return new(big.Int).Set(&w.n)
}

// IsZero reports whether the word is the oracle sentinel.
func (w Word) IsZero() bool {
	return w.n.Sign() == 0
}

// Equal reports whether two words hold the same value.
func (w Word) Equal(other Word) bool {
	return w.n.Cmp(&other.n) == 0
}

// Bytes32 returns the big-endian 32-byte representation, left-padded with
// zeros. This is the seed format consumed by the shuffle and the prover.
func (w Word) Bytes32() [32]byte {
	var out [32]byte
	w.n.FillBytes(out[:])
	return out
}

// Add returns w + delta modulo 2^256.
func (w Word) Add(delta uint64) Word {
	var out Word
	out.n.Add(&w.n, new(big.Int).SetUint64(delta))
	out.n.Mod(&out.n, maxWord)
	return out
}

// Hex returns the 0x-prefixed hexadecimal representation.
func (w Word) Hex() string {
	return "0x" + w.n.Text(16)
}

// Hex32 returns the 0x-prefixed hexadecimal representation padded to 32
// bytes, the encoding used for log topics and ABI arguments.
func (w Word) Hex32() string {
	b := w.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

func (w Word) String() string {
	return w.Hex()
}

// MarshalJSON encodes the word as a 0x-prefixed hex string.
func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Hex())
}

// UnmarshalJSON accepts both hex strings and bare JSON numbers.
func (w *Word) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Fall back to a plain number for small values.
		var v uint64
		if numErr := json.Unmarshal(data, &v); numErr != nil {
			return fmt.Errorf("word must be a hex string or number: %w", err)
		}
		*w = WordFromUint64(v)
		return nil
	}
	parsed, err := WordFromHex(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}
