// Package txgraph implements a content-addressed graph of transactions
// and the outputs they spend. It has no notion of confirmation — that
// is layered on top by sparsechain and chaingraph — so conflicting
// transactions that spend the same output are free to coexist here.
package txgraph

import (
	"fmt"
	"math"

	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// node is the internal record kept for a txid. A Whole transaction
// always dominates a Partial one for the same txid: once the full body
// is known, the partial outputs it subsumes are forgotten in favor of
// the whole.
type node struct {
	whole   *tx.Transaction
	partial map[uint32]tx.TxOut
}

// Graph is the TxGraph: a mapping from txid to either a whole
// transaction or a partial set of its outputs, plus a reverse index
// from outpoint to the txids that spend it.
type Graph struct {
	txs    map[types.Hash]*node
	spends map[types.OutPoint]map[types.Hash]struct{}
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		txs:    make(map[types.Hash]*node),
		spends: make(map[types.OutPoint]map[types.Hash]struct{}),
	}
}

// InsertTx adds a Whole transaction. If a Whole already exists for this
// txid, this is a no-op (they are required to be byte-identical, since
// txid is the hash of the canonical encoding). If a Partial existed, it
// is upgraded to Whole and its known outputs are superseded by the full
// transaction's outputs. Every non-null input updates spends.
func (g *Graph) InsertTx(t tx.Transaction) {
	txid := t.Txid()
	n, exists := g.txs[txid]
	if exists && n.whole != nil {
		return
	}
	if !exists {
		n = &node{}
		g.txs[txid] = n
	}
	n.whole = &t
	n.partial = nil

	for _, in := range t.Inputs {
		if in.PreviousOutput.IsNull() {
			continue
		}
		g.addSpend(in.PreviousOutput, txid)
	}
}

// InsertTxOut adds a Partial entry recording a single known output. If
// a Whole transaction is already on file for this txid, the Whole is
// authoritative and this call is a no-op.
func (g *Graph) InsertTxOut(outpoint types.OutPoint, txout tx.TxOut) {
	txid := outpoint.Txid
	n, exists := g.txs[txid]
	if exists && n.whole != nil {
		return
	}
	if !exists {
		n = &node{partial: make(map[uint32]tx.TxOut)}
		g.txs[txid] = n
	}
	if n.partial == nil {
		n.partial = make(map[uint32]tx.TxOut)
	}
	n.partial[outpoint.Vout] = txout
}

func (g *Graph) addSpend(outpoint types.OutPoint, txid types.Hash) {
	set, ok := g.spends[outpoint]
	if !ok {
		set = make(map[types.Hash]struct{})
		g.spends[outpoint] = set
	}
	set[txid] = struct{}{}
}

// Tx returns the Whole transaction for txid, if one is on file.
func (g *Graph) Tx(txid types.Hash) (tx.Transaction, bool) {
	n, ok := g.txs[txid]
	if !ok || n.whole == nil {
		return tx.Transaction{}, false
	}
	return *n.whole, true
}

// TxOut returns the TxOut for an outpoint, whether known via a Whole
// transaction or a Partial entry.
func (g *Graph) TxOut(outpoint types.OutPoint) (tx.TxOut, bool) {
	n, ok := g.txs[outpoint.Txid]
	if !ok {
		return tx.TxOut{}, false
	}
	if n.whole != nil {
		if int(outpoint.Vout) >= len(n.whole.Outputs) {
			return tx.TxOut{}, false
		}
		return n.whole.Outputs[outpoint.Vout], true
	}
	out, ok := n.partial[outpoint.Vout]
	return out, ok
}

// HasTxid reports whether any record (Whole or Partial) exists for txid.
func (g *Graph) HasTxid(txid types.Hash) bool {
	_, ok := g.txs[txid]
	return ok
}

// IsWhole reports whether txid is recorded as a Whole transaction.
func (g *Graph) IsWhole(txid types.Hash) bool {
	n, ok := g.txs[txid]
	return ok && n.whole != nil
}

// Outspends returns the set of txids that spend outpoint. The set may
// contain more than one txid when conflicting transactions coexist.
func (g *Graph) Outspends(outpoint types.OutPoint) []types.Hash {
	set, ok := g.spends[outpoint]
	if !ok {
		return nil
	}
	out := make([]types.Hash, 0, len(set))
	for txid := range set {
		out = append(out, txid)
	}
	return out
}

// ConflictingTxids returns, for every input of t, the other txids
// already recorded as spending the same prevout — t's double-spends.
// t itself is excluded even if already present in the graph.
func (g *Graph) ConflictingTxids(t tx.Transaction) []types.Hash {
	txid := t.Txid()
	seen := make(map[types.Hash]struct{})
	var out []types.Hash
	for _, in := range t.Inputs {
		if in.PreviousOutput.IsNull() {
			continue
		}
		for _, other := range g.Outspends(in.PreviousOutput) {
			if other == txid {
				continue
			}
			if _, dup := seen[other]; dup {
				continue
			}
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	return out
}

// ErrFeeUnknown is returned by CalculateFee when any prevout value is
// not known to the graph.
var ErrFeeUnknown = fmt.Errorf("calculate fee: one or more prevout values unknown")

// CalculateFee returns Σ prevout values − Σ output values for t. Every
// prevout must be known (as a Whole or Partial entry) or the fee is
// undefined.
func (g *Graph) CalculateFee(t tx.Transaction) (uint64, error) {
	var totalIn uint64
	for _, in := range t.Inputs {
		if in.PreviousOutput.IsNull() {
			continue
		}
		out, ok := g.TxOut(in.PreviousOutput)
		if !ok {
			return 0, ErrFeeUnknown
		}
		if totalIn > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("calculate fee: input value overflow")
		}
		totalIn += out.Value
	}
	totalOut, err := t.TotalOutputValue()
	if err != nil {
		return 0, fmt.Errorf("calculate fee: %w", err)
	}
	if totalIn < totalOut {
		return 0, fmt.Errorf("calculate fee: inputs %d less than outputs %d", totalIn, totalOut)
	}
	return totalIn - totalOut, nil
}

// Additions is a pure diff against a Graph: the Whole transactions and
// Partial txouts another view of the world knows that this graph
// doesn't yet. It carries no removals — the graph never forgets.
type Additions struct {
	Txs    []tx.Transaction
	TxOuts map[types.OutPoint]tx.TxOut
}

// IsEmpty reports whether the Additions carry no changes.
func (a Additions) IsEmpty() bool {
	return len(a.Txs) == 0 && len(a.TxOuts) == 0
}

// DetermineAdditions computes, without mutating g, the Additions needed
// to bring g up to date with every Whole transaction and Partial txout
// in other.
func (g *Graph) DetermineAdditions(other *Graph) Additions {
	adds := Additions{TxOuts: make(map[types.OutPoint]tx.TxOut)}

	for txid, n := range other.txs {
		if n.whole != nil {
			if existing, ok := g.txs[txid]; !ok || existing.whole == nil {
				adds.Txs = append(adds.Txs, *n.whole)
			}
			continue
		}
		for vout, out := range n.partial {
			outpoint := types.OutPoint{Txid: txid, Vout: vout}
			if _, ok := g.TxOut(outpoint); !ok {
				adds.TxOuts[outpoint] = out
			}
		}
	}

	if len(adds.TxOuts) == 0 {
		adds.TxOuts = nil
	}
	return adds
}

// ApplyAdditions commits an Additions diff, in the same order InsertTx
// and InsertTxOut would apply it individually.
func (g *Graph) ApplyAdditions(adds Additions) {
	for _, t := range adds.Txs {
		g.InsertTx(t)
	}
	for outpoint, out := range adds.TxOuts {
		g.InsertTxOut(outpoint, out)
	}
}
