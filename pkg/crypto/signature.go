package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ParsePubKey parses a compressed secp256k1 public key, as derived by the
// reference HD descriptor. This package has no signer: verifying or
// producing a spend is outside this module's scope, so only the curve
// point itself is validated.
func ParsePubKey(compressed []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("parse pubkey: %w", err)
	}
	return pub, nil
}
