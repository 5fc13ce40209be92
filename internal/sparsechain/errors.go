package sparsechain

import (
	"fmt"

	"github.com/Klingon-tech/walletkit/pkg/types"
)

// UnexpectedLastValidError is returned when an update's LastValid does not
// match what the local chain requires, either because no invalidation is
// in play and it doesn't match the local tip, or because one is and it
// doesn't match the checkpoint immediately preceding it.
type UnexpectedLastValidError struct {
	Got      *types.BlockId
	Expected *types.BlockId
}

func (e *UnexpectedLastValidError) Error() string {
	return fmt.Sprintf("unexpected last_valid: got %s, expected %s", blockIdOrNone(e.Got), blockIdOrNone(e.Expected))
}

// LastValidConflictsNewTipError is returned when new_tip's relationship to
// last_valid or invalidate is impossible: new_tip must sit at or above
// both, and a same-height claim must carry the same hash as last_valid or
// a different hash than invalidate.
type LastValidConflictsNewTipError struct {
	LastValid  *types.BlockId
	Invalidate *types.BlockId
	NewTip     types.BlockId
}

func (e *LastValidConflictsNewTipError) Error() string {
	return fmt.Sprintf("new_tip %s conflicts with last_valid %s / invalidate %s",
		e.NewTip, blockIdOrNone(e.LastValid), blockIdOrNone(e.Invalidate))
}

// TxidHeightGreaterThanTipError is returned when an update confirms a txid
// at a height above its own declared new_tip.
type TxidHeightGreaterThanTipError struct {
	Txid      types.Hash
	Height    uint32
	TipHeight uint32
}

func (e *TxidHeightGreaterThanTipError) Error() string {
	return fmt.Sprintf("txid %s confirmed at height %d exceeds new_tip height %d", e.Txid, e.Height, e.TipHeight)
}

// TxUnexpectedlyMovedError is returned when an update would move a txid
// from one position to another without an invalidation covering the old
// position.
type TxUnexpectedlyMovedError struct {
	Txid types.Hash
	From types.ChainPosition
	To   types.ChainPosition
}

func (e *TxUnexpectedlyMovedError) Error() string {
	return fmt.Sprintf("txid %s unexpectedly moved from %s to %s", e.Txid, e.From, e.To)
}

func blockIdOrNone(b *types.BlockId) string {
	if b == nil {
		return "none"
	}
	return b.String()
}
