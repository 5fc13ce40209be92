// Package keychain implements KeychainTracker: the facade combining a
// ChainGraph and a KeychainTxOutIndex so that a sync result updates both
// atomically. It is the one place in the core that is allowed to know
// about logging, since it is the outermost component a caller drives
// directly.
package keychain

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/walletkit/internal/chaingraph"
	"github.com/Klingon-tech/walletkit/internal/txout"
	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// Tracker wraps a chaingraph.Graph and a txout.Index[K]. It holds no
// lock: concurrent callers must wrap it in their own mutual-exclusion
// primitive, the same contract the rest of the core assigns to the
// caller.
type Tracker[K comparable] struct {
	graph  *chaingraph.Graph
	index  *txout.Index[K]
	logger *zerolog.Logger
}

// New returns an empty Tracker. logger may be nil; when non-nil, every
// rejected update is logged at Warn level before being returned to the
// caller.
func New[K comparable](checkpointLimit uint32, logger *zerolog.Logger) *Tracker[K] {
	return &Tracker[K]{
		graph:  chaingraph.New(checkpointLimit),
		index:  txout.New[K](),
		logger: logger,
	}
}

// AddKeychain registers a descriptor for k.
func (t *Tracker[K]) AddKeychain(k K, descriptor txout.Descriptor) error {
	return t.index.AddKeychain(k, descriptor)
}

// Chain exposes the underlying chaingraph.Graph for read-only queries.
func (t *Tracker[K]) Chain() *chaingraph.Graph { return t.graph }

// Index exposes the underlying txout.Index for read-only queries.
func (t *Tracker[K]) Index() *txout.Index[K] { return t.index }

// DetermineChangeSet validates scan against the current state. The chain
// half is delegated to chaingraph; LastActiveIndexes is filtered down to
// entries strictly greater than the tracker's current index, so
// re-applying the same scan twice is a no-op. Never mutates t.
func (t *Tracker[K]) DetermineChangeSet(scan Scan[K]) (ChangeSet[K], error) {
	chainCS, err := t.graph.DetermineChangeSet(scan.Update)
	if err != nil {
		if t.logger != nil {
			t.logger.Warn().
				Str("new_tip", scan.Update.Chain.NewTip.String()).
				Err(err).
				Msg("rejected chain update")
		}
		return ChangeSet[K]{}, err
	}

	var filtered map[K]uint32
	for k, i := range scan.LastActiveIndexes {
		cur, ok := t.index.DerivationIndex(k)
		if ok && i <= cur {
			continue
		}
		if filtered == nil {
			filtered = make(map[K]uint32)
		}
		filtered[k] = i
	}

	return ChangeSet[K]{DerivationIndices: filtered, Chain: chainCS}, nil
}

// ApplyChangeSet commits cs: the chain half first, then reveals every
// keychain up to the index cs.DerivationIndices gives it, then scans every
// transaction and txout the chain half introduced against the index, so
// outputs paying the newly revealed scripts are recognised.
func (t *Tracker[K]) ApplyChangeSet(cs ChangeSet[K]) {
	t.graph.ApplyChangeSet(cs.Chain)
	if len(cs.DerivationIndices) > 0 {
		t.index.StoreAllUpTo(cs.DerivationIndices)
	}
	for _, txn := range cs.Chain.Graph.Txs {
		t.index.ScanTx(txn)
	}
	for outpoint, out := range cs.Chain.Graph.TxOuts {
		t.index.ScanTxOut(outpoint, out)
	}
}

// InsertCheckpoint extends the chain with a single new checkpoint and no
// accompanying transactions.
func (t *Tracker[K]) InsertCheckpoint(block types.BlockId) error {
	return t.graph.InsertCheckpoint(block)
}

// DisconnectBlock implements the direct block-invalidation interface: if
// the local checkpoint at height equals hash, every checkpoint and
// confirmed txid at height >= height is invalidated and the mempool is
// cleared. Reports false with no effect when the checkpoint at height
// does not match hash.
func (t *Tracker[K]) DisconnectBlock(height uint32, hash types.Hash) bool {
	return t.graph.DisconnectBlock(height, hash)
}

// InsertTx records txn's body, optionally claiming it at position pos. A
// nil pos only teaches the graph the transaction body and bypasses the
// chain entirely — TxGraph.InsertTx never fails and makes no positional
// claim, so there is nothing for SparseChain to validate.
func (t *Tracker[K]) InsertTx(txn tx.Transaction, pos *types.ChainPosition) error {
	if pos == nil {
		t.graph.TxGraph().InsertTx(txn)
		t.index.ScanTx(txn)
		return nil
	}

	tip, hasTip := t.graph.Chain().LatestCheckpoint()
	var lastValid *types.BlockId
	if hasTip {
		lastValid = &tip
	}

	update := chaingraph.Update{
		Txs:   txGraphAdditions(txn),
		Chain: chaingraphTxidsUpdate(lastValid, tip, txn, pos),
	}

	cs, err := t.graph.DetermineChangeSet(update)
	if err != nil {
		return fmt.Errorf("insert tx: %w", err)
	}
	t.graph.ApplyChangeSet(cs)
	t.index.ScanTx(txn)
	return nil
}

// FullTxOut pairs an OutPoint known to pay one of our keychains with its
// TxOut, chain position, and derivation key.
type FullTxOut[K comparable] struct {
	Outpoint types.OutPoint
	TxOut    tx.TxOut
	Position types.ChainPosition
	Keychain K
	Index    uint32
}

// FullTxOuts returns every output known to pay a registered keychain,
// paired with its chain position where the paying transaction has one.
func (t *Tracker[K]) FullTxOuts() []FullTxOut[K] {
	var out []FullTxOut[K]
	for _, entry := range t.graph.Chain().IterTxids() {
		txn, ok := t.graph.TxGraph().Tx(entry.Txid)
		if !ok {
			continue
		}
		for vout, txout := range txn.Outputs {
			op := types.OutPoint{Txid: entry.Txid, Vout: uint32(vout)}
			k, i, known := t.index.KeyForScript(txout.ScriptPubKey)
			if !known {
				continue
			}
			out = append(out, FullTxOut[K]{Outpoint: op, TxOut: txout, Position: entry.Pos, Keychain: k, Index: i})
		}
	}
	return out
}

// FullUtxos returns the subset of FullTxOuts not spent by any
// transaction that itself holds a chain position (confirmed or mempool).
func (t *Tracker[K]) FullUtxos() []FullTxOut[K] {
	var out []FullTxOut[K]
	for _, full := range t.FullTxOuts() {
		spent := false
		for _, spender := range t.graph.TxGraph().Outspends(full.Outpoint) {
			if _, known := t.graph.Chain().TxPosition(spender); known {
				spent = true
				break
			}
		}
		if !spent {
			out = append(out, full)
		}
	}
	return out
}
