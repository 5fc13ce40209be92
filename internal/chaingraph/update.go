package chaingraph

import (
	"github.com/Klingon-tech/walletkit/internal/sparsechain"
	"github.com/Klingon-tech/walletkit/internal/txgraph"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// Update bundles the two halves of an incoming observation: any new
// transaction bodies/outputs to learn, and the sparse-chain update to
// validate against the current positional index.
type Update struct {
	Txs   txgraph.Additions
	Chain sparsechain.Update
}

// ChangeSet is the commit-ready diff produced by DetermineChangeSet: the
// TxGraph additions, the SparseChain changeset, and any mempool txids
// evicted by RBF. ApplyChangeSet is infallible against the same state
// the changeset was determined from.
type ChangeSet struct {
	Graph        txgraph.Additions
	Chain        sparsechain.ChangeSet
	EvictedTxids []types.Hash
}
