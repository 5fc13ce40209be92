// Package chaingraph composes a TxGraph and a SparseChain so that an
// incoming observation goes through one validated path: a proposed
// Update is first turned into a ChangeSet (pure, no mutation); only a
// fully consistent ChangeSet is ever applied.
package chaingraph

import (
	"fmt"

	"github.com/Klingon-tech/walletkit/internal/sparsechain"
	"github.com/Klingon-tech/walletkit/internal/txgraph"
	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// Graph unifies a TxGraph with a SparseChain. Every confirmed or mempool
// txid in the chain has a corresponding node (Whole preferred) in the
// graph once a changeset has been applied.
type Graph struct {
	txGraph *txgraph.Graph
	chain   *sparsechain.Chain
}

// New returns an empty Graph. checkpointLimit of 0 means unlimited.
func New(checkpointLimit uint32) *Graph {
	return &Graph{
		txGraph: txgraph.New(),
		chain:   sparsechain.New(checkpointLimit),
	}
}

// Chain exposes the underlying SparseChain for read-only queries.
func (g *Graph) Chain() *sparsechain.Chain { return g.chain }

// TxGraph exposes the underlying TxGraph for read-only queries.
func (g *Graph) TxGraph() *txgraph.Graph { return g.txGraph }

// resolveTxOut looks up a prevout, preferring the update's own additions
// over what is already known locally — the update may introduce both a
// transaction and something that spends it in the same batch.
func (g *Graph) resolveTxOut(update Update, outpoint types.OutPoint) (tx.TxOut, bool) {
	if out, ok := update.Txs.TxOuts[outpoint]; ok {
		return out, true
	}
	for _, t := range update.Txs.Txs {
		if t.Txid() == outpoint.Txid {
			if int(outpoint.Vout) < len(t.Outputs) {
				return t.Outputs[outpoint.Vout], true
			}
			return tx.TxOut{}, false
		}
	}
	return g.txGraph.TxOut(outpoint)
}

// feerate returns t's fee per serialized byte, resolving prevouts against
// both the update and the local graph.
func (g *Graph) feerate(update Update, t tx.Transaction) (float64, bool) {
	var totalIn uint64
	for _, in := range t.Inputs {
		if in.PreviousOutput.IsNull() {
			continue
		}
		out, ok := g.resolveTxOut(update, in.PreviousOutput)
		if !ok {
			return 0, false
		}
		totalIn += out.Value
	}
	totalOut, err := t.TotalOutputValue()
	if err != nil || totalIn < totalOut {
		return 0, false
	}
	size := t.SerializedSize()
	if size == 0 {
		return 0, false
	}
	return float64(totalIn-totalOut) / float64(size), true
}

// findBody returns the transaction body for txid, preferring a Whole
// entry from the update over one already known locally.
func findBody(update Update, local *txgraph.Graph, txid types.Hash) (tx.Transaction, bool) {
	for _, t := range update.Txs.Txs {
		if t.Txid() == txid {
			return t, true
		}
	}
	return local.Tx(txid)
}

// DetermineChangeSet validates update against the current state and, on
// success, returns the ChangeSet ready to commit. It never mutates g.
func (g *Graph) DetermineChangeSet(update Update) (ChangeSet, error) {
	chainCS, err := g.chain.ValidateUpdate(update.Chain)
	if err != nil {
		return ChangeSet{}, err
	}
	// ValidateUpdate hands back the caller's own Txids map; copy it before
	// any eviction-driven deletes so the caller's Update is never mutated.
	if chainCS.Txids != nil {
		cp := make(map[types.Hash]types.ChainPosition, len(chainCS.Txids))
		for k, v := range chainCS.Txids {
			cp[k] = v
		}
		chainCS.Txids = cp
	}

	// Every confirmed txid must have a known body, locally or in the update.
	var missing []types.Hash
	for txid, pos := range chainCS.Txids {
		if !pos.IsConfirmed() {
			continue
		}
		if g.txGraph.IsWhole(txid) {
			continue
		}
		if _, ok := findBody(update, g.txGraph, txid); ok {
			continue
		}
		missing = append(missing, txid)
	}
	if len(missing) > 0 {
		return ChangeSet{}, &MissingError{Txids: missing}
	}

	var evicted []types.Hash
	for txid, pos := range chainCS.Txids {
		body, ok := findBody(update, g.txGraph, txid)
		if !ok {
			continue
		}
		conflicts := g.txGraph.ConflictingTxids(body)
		for _, conflict := range conflicts {
			conflictPos, known := g.chain.TxPosition(conflict)
			if !known {
				continue
			}
			if conflictPos.IsConfirmed() {
				height, _ := conflictPos.Height()
				at, _ := g.chain.CheckpointAt(height)
				return ChangeSet{}, &InconsistentError{Txid: txid, ConflictsWith: conflict, AtCheckpoint: at}
			}
			if pos.IsConfirmed() {
				// The incoming txid is confirmed and conflicts with an
				// existing mempool txid: always surfaced as Inconsistent,
				// never silently dropped.
				height, _ := pos.Height()
				at, _ := g.chain.CheckpointAt(height)
				return ChangeSet{}, &InconsistentError{Txid: txid, ConflictsWith: conflict, AtCheckpoint: at}
			}
			// Both are mempool transactions: RBF by feerate, then txid.
			winner := rbfWinner(g, update, txid, body, conflict)
			if winner == txid {
				evicted = append(evicted, conflict)
			} else {
				evicted = append(evicted, txid)
				delete(chainCS.Txids, txid)
			}
		}
	}

	return ChangeSet{
		Graph:        update.Txs,
		Chain:        chainCS,
		EvictedTxids: evicted,
	}, nil
}

// rbfWinner decides which of two conflicting mempool transactions
// survives: the higher feerate, or (on a tie) the lexicographically
// greater txid — an arbitrary but deterministic tiebreak.
func rbfWinner(g *Graph, update Update, incomingTxid types.Hash, incoming tx.Transaction, existingTxid types.Hash) types.Hash {
	incomingRate, incomingOK := g.feerate(update, incoming)
	existing, existingKnown := findBody(update, g.txGraph, existingTxid)
	existingRate, existingOK := 0.0, false
	if existingKnown {
		existingRate, existingOK = g.feerate(update, existing)
	}

	switch {
	case incomingOK && existingOK:
		switch {
		case incomingRate > existingRate:
			return incomingTxid
		case incomingRate < existingRate:
			return existingTxid
		default:
			if incomingTxid.Less(existingTxid) {
				return existingTxid
			}
			return incomingTxid
		}
	case incomingOK:
		return incomingTxid
	case existingOK:
		return existingTxid
	default:
		if incomingTxid.Less(existingTxid) {
			return existingTxid
		}
		return incomingTxid
	}
}

// ApplyChangeSet commits cs. It is infallible given a changeset produced
// by DetermineChangeSet against this same state: apply the new
// transaction bodies, evict any RBF losers, then commit the chain
// changeset.
func (g *Graph) ApplyChangeSet(cs ChangeSet) {
	g.txGraph.ApplyAdditions(cs.Graph)
	for _, txid := range cs.EvictedTxids {
		g.chain.Evict(txid)
	}
	g.chain.ApplyChangeSet(cs.Chain)
}

// DisconnectBlock implements the direct block-invalidation interface: if
// the local checkpoint at height equals hash, every checkpoint and
// confirmed txid at height >= height is invalidated and the mempool is
// cleared. The TxGraph itself is untouched — transaction bodies are never
// forgotten, only their positions. Reports false with no effect when the
// checkpoint at height does not match hash.
func (g *Graph) DisconnectBlock(height uint32, hash types.Hash) bool {
	return g.chain.DisconnectBlock(height, hash)
}

// InsertCheckpoint is a convenience for applying a single-checkpoint
// extension without any accompanying txids.
func (g *Graph) InsertCheckpoint(block types.BlockId) error {
	tip, hasTip := g.chain.LatestCheckpoint()
	var lastValid *types.BlockId
	if hasTip {
		lastValid = &tip
	}
	cs, err := g.DetermineChangeSet(Update{Chain: sparsechain.Update{LastValid: lastValid, NewTip: block}})
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	g.ApplyChangeSet(cs)
	return nil
}
