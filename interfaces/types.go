// Package interfaces defines the core interfaces and types for the registrar controller client.
// It provides the contract between different components without implementation details.
package interfaces

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// WordCount is the number of 32-bit words in a Secret or CommitmentHash.
const WordCount = 8

// Secret is the caller-chosen salt mixed into a commitment.
// The controller expects it as a bytes32 value.
type Secret [32]byte

// CommitmentHash is the fingerprint of (name, owner, secret) as computed by
// the controller's makeCommitment. It is submitted unchanged by commit.
type CommitmentHash [32]byte

// NewSecretFromHex parses a 64 character hex string, with or without 0x prefix.
func NewSecretFromHex(s string) (Secret, error) {
	b, err := decodeWord256(s)
	if err != nil {
		return Secret{}, fmt.Errorf("invalid secret: %w", err)
	}
	return Secret(b), nil
}

// SecretFromWords builds a secret from eight big-endian 32-bit words.
func SecretFromWords(words [WordCount]uint32) Secret {
	return Secret(fromWords(words))
}

// Words returns the secret as eight big-endian 32-bit words.
func (s Secret) Words() [WordCount]uint32 {
	return toWords(s)
}

// String returns the 0x-prefixed hex representation.
func (s Secret) String() string {
	return hexutil.Encode(s[:])
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Secret) UnmarshalText(text []byte) error {
	parsed, err := NewSecretFromHex(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// NewCommitmentHashFromHex parses a 64 character hex string, with or without 0x prefix.
func NewCommitmentHashFromHex(s string) (CommitmentHash, error) {
	b, err := decodeWord256(s)
	if err != nil {
		return CommitmentHash{}, fmt.Errorf("invalid commitment: %w", err)
	}
	return CommitmentHash(b), nil
}

// CommitmentFromWords builds a commitment from eight big-endian 32-bit words.
func CommitmentFromWords(words [WordCount]uint32) CommitmentHash {
	return CommitmentHash(fromWords(words))
}

// Words returns the commitment as eight big-endian 32-bit words.
func (c CommitmentHash) Words() [WordCount]uint32 {
	return toWords(c)
}

// String returns the 0x-prefixed hex representation.
func (c CommitmentHash) String() string {
	return hexutil.Encode(c[:])
}

// IsZero reports whether the commitment is all zero bytes.
func (c CommitmentHash) IsZero() bool {
	return c == CommitmentHash{}
}

// MarshalText implements encoding.TextMarshaler.
func (c CommitmentHash) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CommitmentHash) UnmarshalText(text []byte) error {
	parsed, err := NewCommitmentHashFromHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseAddress parses a hex account address, with or without 0x prefix.
func ParseAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("invalid address: %q", addr)
	}
	return common.HexToAddress(addr), nil
}

func decodeWord256(s string) ([32]byte, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 64 {
		return [32]byte{}, errors.New("hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return [32]byte{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var out [32]byte
	copy(out[:], raw)
	return out, nil
}

func toWords(b [32]byte) [WordCount]uint32 {
	var words [WordCount]uint32
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return words
}

func fromWords(words [WordCount]uint32) [32]byte {
	var out [32]byte
	for i, w := range words {
		binary.BigEndian.PutUint32(out[i*4:], w)
	}
	return out
}
