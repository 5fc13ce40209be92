package sparsechain

import "github.com/Klingon-tech/walletkit/pkg/types"

// Update is a proposed evolution of the chain: an optional invalidation of
// existing checkpoints, a new tip to extend (or replace) them, and a set
// of txid position observations to merge in. LastValid anchors the update
// against the caller's last-known-good view of the local chain so that
// stale or divergent updates can be rejected before anything mutates.
type Update struct {
	LastValid  *types.BlockId
	NewTip     types.BlockId
	Invalidate *types.BlockId
	Txids      map[types.Hash]types.ChainPosition
}

// ChangeSet is the commit-ready diff produced by validating an Update: the
// height from which (inclusive) checkpoints and confirmed txids are
// discarded (if any), the new checkpoint to insert, and the txid positions to merge.
// Applying a ChangeSet is infallible as long as it is applied against the
// same state it was validated against.
type ChangeSet struct {
	InvalidateHeight *uint32
	NewTip           types.BlockId
	Txids            map[types.Hash]types.ChainPosition
}

// IsEmpty reports whether cs carries no invalidation, a zero NewTip and no
// txid positions.
func (cs ChangeSet) IsEmpty() bool {
	return cs.InvalidateHeight == nil && cs.NewTip.IsZero() && len(cs.Txids) == 0
}
