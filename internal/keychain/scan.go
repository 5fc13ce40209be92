package keychain

import (
	"github.com/Klingon-tech/walletkit/internal/chaingraph"
)

// Scan is a KeychainScan: the output of a sync pass against some
// external source (a node, an Electrum server, …). Update carries the
// chain-level observation; LastActiveIndexes carries, per keychain, the
// highest derivation index the scanner itself observed as used — which
// may exceed what scanning the update's own transactions would reveal
// (e.g. the scanner checked further ahead than any output landed).
type Scan[K comparable] struct {
	Update            chaingraph.Update
	LastActiveIndexes map[K]uint32
}

// ChangeSet is a KeychainChangeSet: the commit-ready diff produced by
// DetermineChangeSet. DerivationIndices holds only entries strictly
// greater than the tracker's current index for that keychain, so
// applying the same Scan twice is a no-op the second time.
type ChangeSet[K comparable] struct {
	DerivationIndices map[K]uint32
	Chain             chaingraph.ChangeSet
}
