package chaingraph

import (
	"fmt"

	"github.com/Klingon-tech/walletkit/pkg/types"
)

// MissingError is returned when an update validates positionally but
// references transaction bodies the local graph (and the update itself)
// does not carry. The caller is expected to fetch the bodies and retry.
type MissingError struct {
	Txids []types.Hash
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing %d transaction bodies", len(e.Txids))
}

// InconsistentError is returned when an update's transaction conflicts
// with a local transaction and at least one of the two is confirmed
// (the local one, or the incoming one by the update's own position).
// Unlike a conflict between two mempool transactions, this is never
// resolved by eviction — the caller must invalidate the conflicting
// checkpoint and re-apply, or discard the update.
type InconsistentError struct {
	Txid         types.Hash
	ConflictsWith types.Hash
	AtCheckpoint types.BlockId
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("txid %s conflicts with txid %s at checkpoint %s", e.Txid, e.ConflictsWith, e.AtCheckpoint)
}
