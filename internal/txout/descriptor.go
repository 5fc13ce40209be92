// Package txout implements the TxOutIndex / KeychainTxOutIndex
// component: a mapping from descriptor-derived script-pubkeys to the
// outputs that pay them, keyed by a caller-chosen keychain identifier.
package txout

import "github.com/Klingon-tech/walletkit/pkg/types"

// Descriptor is a deterministic recipe for generating script-pubkeys
// indexed by a non-negative integer. The index never derives scripts
// itself; it always goes through a Descriptor collaborator.
type Descriptor interface {
	// Derive returns the script and satisfaction weight at index. For a
	// non-derivable descriptor, Derive(i) for any i returns the same
	// script.
	Derive(index uint32) (DerivedDescriptor, error)
	// IsDerivable reports whether distinct indices yield distinct scripts.
	IsDerivable() bool
}

// DerivedDescriptor is the result of deriving a Descriptor at a
// particular index.
type DerivedDescriptor interface {
	ScriptPubKey() types.Script
	MaxSatisfactionWeight() uint32
}
