package registrar

import (
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ruteri/registrar-controller/interfaces"
)

// LabelHash returns keccak256 of the name label, as the controller hashes it.
func LabelHash(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(name))
}

// ComputeCommitment reproduces the controller's makeCommitment locally:
// keccak256(labelhash(name) ‖ owner ‖ secret).
func ComputeCommitment(name string, owner common.Address, secret interfaces.Secret) interfaces.CommitmentHash {
	label := LabelHash(name)
	return interfaces.CommitmentHash(crypto.Keccak256Hash(label[:], owner[:], secret[:]))
}

// NewSecret returns a random secret.
func NewSecret() (interfaces.Secret, error) {
	var secret interfaces.Secret
	if _, err := rand.Read(secret[:]); err != nil {
		return interfaces.Secret{}, fmt.Errorf("could not generate secret: %w", err)
	}
	return secret, nil
}
