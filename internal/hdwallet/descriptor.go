package hdwallet

import (
	"fmt"

	"github.com/Klingon-tech/walletkit/internal/txout"
	"github.com/Klingon-tech/walletkit/pkg/crypto"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// satisfactionWeightEstimate is a constant stand-in for the weight a
// pubkey-hash spend's witness/scriptSig would occupy. No script
// interpreter exists in this module to compute one exactly.
const satisfactionWeightEstimate = 108

// scriptVersion tags the single script shape this reference descriptor
// derives: a version byte followed by a 20-byte pubkey hash.
const scriptVersion = 0x00

// Descriptor derives pubkey-hash scripts along
// m/44'/CoinType'/account'/change/index from a seed. It implements
// txout.Descriptor.
type Descriptor struct {
	changeKey *HDKey
}

// NewDescriptor builds a Descriptor for one BIP-44 (account, change) pair,
// deriving down from the given 64-byte seed.
func NewDescriptor(seed []byte, account, change uint32) (*Descriptor, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	acctKey, err := master.DeriveAccount(account)
	if err != nil {
		return nil, fmt.Errorf("derive account %d: %w", account, err)
	}
	changeKey, err := acctKey.DeriveChild(change)
	if err != nil {
		return nil, fmt.Errorf("derive change %d: %w", change, err)
	}
	return &Descriptor{changeKey: changeKey}, nil
}

// Derive implements txout.Descriptor.
func (d *Descriptor) Derive(index uint32) (txout.DerivedDescriptor, error) {
	child, err := d.changeKey.DeriveChild(index)
	if err != nil {
		return nil, fmt.Errorf("derive index %d: %w", index, err)
	}
	pubKey := child.PublicKeyBytes()
	if _, err := crypto.ParsePubKey(pubKey); err != nil {
		return nil, fmt.Errorf("derive index %d: %w", index, err)
	}
	addr := crypto.AddressFromPubKey(pubKey)
	script := make(types.Script, 0, 1+types.AddressSize)
	script = append(script, scriptVersion)
	script = append(script, addr[:]...)
	return derivedScript{script: script, weight: satisfactionWeightEstimate}, nil
}

// IsDerivable implements txout.Descriptor: distinct indices yield distinct
// pubkey-hash scripts.
func (d *Descriptor) IsDerivable() bool { return true }

// derivedScript is the result of deriving a Descriptor at one index.
type derivedScript struct {
	script types.Script
	weight uint32
}

func (d derivedScript) ScriptPubKey() types.Script    { return d.script }
func (d derivedScript) MaxSatisfactionWeight() uint32 { return d.weight }

// StaticDescriptor wraps one fixed script. Derive(i) for any i returns the
// same script — the shape of a non-derivable descriptor (a raw address
// someone handed the wallet, with no underlying key tree).
type StaticDescriptor struct {
	Script types.Script
	Weight uint32
}

// Derive implements txout.Descriptor.
func (d StaticDescriptor) Derive(uint32) (txout.DerivedDescriptor, error) {
	return derivedScript{script: d.Script, weight: d.Weight}, nil
}

// IsDerivable implements txout.Descriptor: a static descriptor never
// produces a new script.
func (d StaticDescriptor) IsDerivable() bool { return false }

var (
	_ txout.Descriptor        = (*Descriptor)(nil)
	_ txout.Descriptor        = StaticDescriptor{}
	_ txout.DerivedDescriptor = derivedScript{}
)
