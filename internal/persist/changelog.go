package persist

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/walletkit/internal/chaingraph"
	"github.com/Klingon-tech/walletkit/internal/keychain"
	"github.com/Klingon-tech/walletkit/internal/sparsechain"
	"github.com/Klingon-tech/walletkit/internal/txgraph"
	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

const (
	entryPrefix = "entry:"
	seqKey      = "meta:next_seq"
)

// ChangeLog is the reference Persistence collaborator: an ordered,
// replayable log of keychain.ChangeSet values. This is the concrete shape
// of a write-ahead log — validate an update against the in-memory
// snapshot, Append the changeset here, then ApplyChangeSet against the
// in-memory tracker. A crash between Append and Apply is recovered by
// ReplayFrom the last sequence number the tracker applied.
type ChangeLog[K comparable] struct {
	db db
}

// NewChangeLog opens a ChangeLog backed by a Badger database at path.
func NewChangeLog[K comparable](path string) (*ChangeLog[K], error) {
	bdb, err := NewBadger(path)
	if err != nil {
		return nil, err
	}
	return &ChangeLog[K]{db: bdb}, nil
}

// newMemoryChangeLog builds a ChangeLog over an in-memory store, for
// tests that exercise sequencing/replay without touching disk.
func newMemoryChangeLog[K comparable]() *ChangeLog[K] {
	return &ChangeLog[K]{db: newMemoryDB()}
}

// Close closes the underlying database.
func (l *ChangeLog[K]) Close() error {
	return l.db.Close()
}

// Append writes cs as the next entry in the log and returns its sequence
// number. Sequence numbers start at 0 and increase by 1 per call.
func (l *ChangeLog[K]) Append(cs keychain.ChangeSet[K]) (uint64, error) {
	seq, err := l.nextSeq()
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(toJSON(cs))
	if err != nil {
		return 0, fmt.Errorf("marshal changeset: %w", err)
	}
	if err := l.db.Put(entryKey(seq), data); err != nil {
		return 0, fmt.Errorf("append changeset: %w", err)
	}
	if err := l.db.Put([]byte(seqKey), encodeSeq(seq+1)); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return seq, nil
}

// ReplayFrom returns every ChangeSet appended at or after seq, in
// ascending sequence order.
func (l *ChangeLog[K]) ReplayFrom(seq uint64) ([]keychain.ChangeSet[K], error) {
	var out []keychain.ChangeSet[K]
	err := l.db.ForEach([]byte(entryPrefix), func(key, value []byte) error {
		entrySeq, err := decodeSeqKey(key)
		if err != nil {
			return err
		}
		if entrySeq < seq {
			return nil
		}
		var j changeSetJSON[K]
		if err := json.Unmarshal(value, &j); err != nil {
			return fmt.Errorf("unmarshal changeset at seq %d: %w", entrySeq, err)
		}
		out = append(out, j.toChangeSet())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay from %d: %w", seq, err)
	}
	return out, nil
}

func (l *ChangeLog[K]) nextSeq() (uint64, error) {
	data, err := l.db.Get([]byte(seqKey))
	if errors.Is(err, errKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return decodeSeq(data), nil
}

func entryKey(seq uint64) []byte {
	return append([]byte(entryPrefix), encodeSeq(seq)...)
}

func decodeSeqKey(key []byte) (uint64, error) {
	if len(key) != len(entryPrefix)+8 {
		return 0, fmt.Errorf("malformed entry key %x", key)
	}
	return decodeSeq(key[len(entryPrefix):]), nil
}

func encodeSeq(seq uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

func decodeSeq(data []byte) uint64 {
	return binary.BigEndian.Uint64(data)
}

// --- JSON wire shapes ---
//
// keychain.ChangeSet's map fields (map[K]uint32, map[types.Hash]X) aren't
// directly JSON-safe for arbitrary K or for types.Hash as a map key, so
// every map is carried as an ordered slice of pairs on the wire.

type kvPair[K comparable] struct {
	Keychain K      `json:"keychain"`
	Index    uint32 `json:"index"`
}

type outpointTxOut struct {
	OutPoint types.OutPoint `json:"outpoint"`
	TxOut    tx.TxOut       `json:"txout"`
}

type txidPosition struct {
	Txid     types.Hash          `json:"txid"`
	Position types.ChainPosition `json:"position"`
}

type changeSetJSON[K comparable] struct {
	DerivationIndices []kvPair[K]     `json:"derivation_indices,omitempty"`
	Txs               []tx.Transaction `json:"txs,omitempty"`
	TxOuts            []outpointTxOut  `json:"txouts,omitempty"`
	InvalidateHeight  *uint32          `json:"invalidate_height,omitempty"`
	NewTip            types.BlockId    `json:"new_tip"`
	Txids             []txidPosition   `json:"txids,omitempty"`
	EvictedTxids      []types.Hash     `json:"evicted_txids,omitempty"`
}

func toJSON[K comparable](cs keychain.ChangeSet[K]) changeSetJSON[K] {
	j := changeSetJSON[K]{
		InvalidateHeight: cs.Chain.Chain.InvalidateHeight,
		NewTip:           cs.Chain.Chain.NewTip,
		EvictedTxids:     cs.Chain.EvictedTxids,
	}
	for k, idx := range cs.DerivationIndices {
		j.DerivationIndices = append(j.DerivationIndices, kvPair[K]{Keychain: k, Index: idx})
	}
	j.Txs = append(j.Txs, cs.Chain.Graph.Txs...)
	for op, out := range cs.Chain.Graph.TxOuts {
		j.TxOuts = append(j.TxOuts, outpointTxOut{OutPoint: op, TxOut: out})
	}
	for txid, pos := range cs.Chain.Chain.Txids {
		j.Txids = append(j.Txids, txidPosition{Txid: txid, Position: pos})
	}
	return j
}

func (j changeSetJSON[K]) toChangeSet() keychain.ChangeSet[K] {
	cs := keychain.ChangeSet[K]{
		Chain: chaingraph.ChangeSet{
			Graph: txgraph.Additions{Txs: j.Txs},
			Chain: sparsechain.ChangeSet{
				InvalidateHeight: j.InvalidateHeight,
				NewTip:           j.NewTip,
			},
			EvictedTxids: j.EvictedTxids,
		},
	}
	if len(j.DerivationIndices) > 0 {
		cs.DerivationIndices = make(map[K]uint32, len(j.DerivationIndices))
		for _, p := range j.DerivationIndices {
			cs.DerivationIndices[p.Keychain] = p.Index
		}
	}
	if len(j.TxOuts) > 0 {
		cs.Chain.Graph.TxOuts = make(map[types.OutPoint]tx.TxOut, len(j.TxOuts))
		for _, p := range j.TxOuts {
			cs.Chain.Graph.TxOuts[p.OutPoint] = p.TxOut
		}
	}
	if len(j.Txids) > 0 {
		cs.Chain.Chain.Txids = make(map[types.Hash]types.ChainPosition, len(j.Txids))
		for _, p := range j.Txids {
			cs.Chain.Chain.Txids[p.Txid] = p.Position
		}
	}
	return cs
}
