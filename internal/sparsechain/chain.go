// Package sparsechain implements an append-and-invalidate log of
// checkpoints (block height to block hash) plus a positional index
// assigning each known txid a ChainPosition. It enforces the monotonic
// evolution a reorg-safe wallet needs: checkpoints form a single chain,
// and a txid can only move to a worse position (Confirmed -> Unconfirmed)
// when an invalidation covers it.
package sparsechain

import (
	"sort"

	"github.com/Klingon-tech/walletkit/pkg/types"
)

type checkpointEntry struct {
	height uint32
	hash   types.Hash
}

// posEntry is one element of the pos_to_txid inverse index.
type posEntry struct {
	pos  types.ChainPosition
	txid types.Hash
}

func lessPosEntry(a, b posEntry) bool {
	if c := a.pos.Compare(b.pos); c != 0 {
		return c < 0
	}
	return a.txid.Less(b.txid)
}

// Chain is the SparseChain: checkpoints kept as a sorted slice with a
// height index for O(1) lookup, and a positional index over txids kept
// both forward (txid -> position) and inverse (position -> txid, sorted,
// for range queries) per the checkpoint storage design.
type Chain struct {
	checkpoints []checkpointEntry // sorted ascending by height
	heightIndex map[uint32]int    // height -> index into checkpoints

	txidToPos map[types.Hash]types.ChainPosition
	posToTxid []posEntry // sorted by ChainPosition.Compare, then txid

	checkpointLimit uint32 // 0 means unlimited
}

// New returns an empty Chain. A checkpointLimit of 0 means unlimited.
func New(checkpointLimit uint32) *Chain {
	return &Chain{
		heightIndex:     make(map[uint32]int),
		txidToPos:       make(map[types.Hash]types.ChainPosition),
		checkpointLimit: checkpointLimit,
	}
}

// LatestCheckpoint returns the highest checkpoint, if any.
func (c *Chain) LatestCheckpoint() (types.BlockId, bool) {
	if len(c.checkpoints) == 0 {
		return types.BlockId{}, false
	}
	last := c.checkpoints[len(c.checkpoints)-1]
	return types.BlockId{Height: last.height, Hash: last.hash}, true
}

// CheckpointAt returns the checkpoint at height, if any.
func (c *Chain) CheckpointAt(height uint32) (types.BlockId, bool) {
	idx, ok := c.heightIndex[height]
	if !ok {
		return types.BlockId{}, false
	}
	e := c.checkpoints[idx]
	return types.BlockId{Height: e.height, Hash: e.hash}, true
}

// checkpointBefore returns the highest checkpoint with height < h.
func (c *Chain) checkpointBefore(h uint32) (types.BlockId, bool) {
	// checkpoints is sorted ascending; find the last entry with height < h.
	i := sort.Search(len(c.checkpoints), func(i int) bool {
		return c.checkpoints[i].height >= h
	})
	if i == 0 {
		return types.BlockId{}, false
	}
	e := c.checkpoints[i-1]
	return types.BlockId{Height: e.height, Hash: e.hash}, true
}

// IterCheckpoints returns all checkpoints in ascending height order.
func (c *Chain) IterCheckpoints() []types.BlockId {
	out := make([]types.BlockId, len(c.checkpoints))
	for i, e := range c.checkpoints {
		out[i] = types.BlockId{Height: e.height, Hash: e.hash}
	}
	return out
}

// TxPosition returns the position of txid, if known.
func (c *Chain) TxPosition(txid types.Hash) (types.ChainPosition, bool) {
	pos, ok := c.txidToPos[txid]
	return pos, ok
}

// IterTxids returns every known txid with its position, in positional
// order (confirmed ascending by height, then unconfirmed).
func (c *Chain) IterTxids() []struct {
	Txid types.Hash
	Pos  types.ChainPosition
} {
	out := make([]struct {
		Txid types.Hash
		Pos  types.ChainPosition
	}, len(c.posToTxid))
	for i, e := range c.posToTxid {
		out[i].Txid = e.txid
		out[i].Pos = e.pos
	}
	return out
}

// IterConfirmedTxids returns confirmed txids ascending by height.
func (c *Chain) IterConfirmedTxids() []types.Hash {
	var out []types.Hash
	for _, e := range c.posToTxid {
		if !e.pos.IsConfirmed() {
			break
		}
		out = append(out, e.txid)
	}
	return out
}

// IterMempoolTxids returns every txid currently Unconfirmed.
func (c *Chain) IterMempoolTxids() []types.Hash {
	var out []types.Hash
	for _, e := range c.posToTxid {
		if !e.pos.IsConfirmed() {
			out = append(out, e.txid)
		}
	}
	return out
}

// RangeTxidsByPosition returns every (txid, position) with position in
// [from, to], using binary search over the sorted inverse index.
func (c *Chain) RangeTxidsByPosition(from, to types.ChainPosition) []struct {
	Txid types.Hash
	Pos  types.ChainPosition
} {
	lo := sort.Search(len(c.posToTxid), func(i int) bool {
		return c.posToTxid[i].pos.Compare(from) >= 0
	})
	hi := sort.Search(len(c.posToTxid), func(i int) bool {
		return c.posToTxid[i].pos.Compare(to) > 0
	})
	if lo >= hi {
		return nil
	}
	out := make([]struct {
		Txid types.Hash
		Pos  types.ChainPosition
	}, hi-lo)
	for i, e := range c.posToTxid[lo:hi] {
		out[i].Txid = e.txid
		out[i].Pos = e.pos
	}
	return out
}

// ValidateUpdate runs the six-step validation algorithm against the
// current state and, on success, returns the ChangeSet ready to commit.
// It never mutates c. The first failing step aborts with that step's
// error; no partial ChangeSet is returned on failure.
func (c *Chain) ValidateUpdate(u Update) (ChangeSet, error) {
	// Step 1: invalidate vs last_valid coherence.
	if u.Invalidate != nil {
		expected, hasExpected := c.checkpointBefore(u.Invalidate.Height)
		if !matchesExpected(u.LastValid, expected, hasExpected) {
			return ChangeSet{}, &UnexpectedLastValidError{Got: u.LastValid, Expected: optionalBlockId(expected, hasExpected)}
		}
	} else {
		// Step 2: last_valid matches local tip.
		tip, hasTip := c.LatestCheckpoint()
		if !matchesExpected(u.LastValid, tip, hasTip) {
			return ChangeSet{}, &UnexpectedLastValidError{Got: u.LastValid, Expected: optionalBlockId(tip, hasTip)}
		}
	}

	// Step 3: new_tip vs last_valid coherence.
	if u.LastValid != nil {
		if u.NewTip.Height < u.LastValid.Height {
			return ChangeSet{}, &LastValidConflictsNewTipError{LastValid: u.LastValid, Invalidate: u.Invalidate, NewTip: u.NewTip}
		}
		if u.NewTip.Height == u.LastValid.Height && u.NewTip.Hash != u.LastValid.Hash {
			return ChangeSet{}, &LastValidConflictsNewTipError{LastValid: u.LastValid, Invalidate: u.Invalidate, NewTip: u.NewTip}
		}
	}

	// Step 4: new_tip vs invalidate.
	if u.Invalidate != nil {
		if u.NewTip.Height < u.Invalidate.Height {
			return ChangeSet{}, &LastValidConflictsNewTipError{LastValid: u.LastValid, Invalidate: u.Invalidate, NewTip: u.NewTip}
		}
		if u.NewTip.Height == u.Invalidate.Height && u.NewTip.Hash == u.Invalidate.Hash {
			return ChangeSet{}, &LastValidConflictsNewTipError{LastValid: u.LastValid, Invalidate: u.Invalidate, NewTip: u.NewTip}
		}
	}

	// Step 5: tx positions fit under new_tip.
	for txid, pos := range u.Txids {
		if h, confirmed := pos.Height(); confirmed && h > u.NewTip.Height {
			return ChangeSet{}, &TxidHeightGreaterThanTipError{Txid: txid, Height: h, TipHeight: u.NewTip.Height}
		}
	}

	// Step 6: txid-movement rule.
	for txid, posNew := range u.Txids {
		posOld, known := c.txidToPos[txid]
		if !known || posOld == posNew {
			continue
		}
		oldHeight, oldConfirmed := posOld.Height()
		// A mempool position carries no checkpoint commitment, so promoting
		// it to Confirmed never needs an invalidation. Moving a confirmed
		// position to anything else does.
		allowed := !oldConfirmed || (u.Invalidate != nil && oldHeight >= u.Invalidate.Height)
		if !allowed {
			return ChangeSet{}, &TxUnexpectedlyMovedError{Txid: txid, From: posOld, To: posNew}
		}
	}

	cs := ChangeSet{NewTip: u.NewTip, Txids: u.Txids}
	if u.Invalidate != nil {
		h := u.Invalidate.Height
		cs.InvalidateHeight = &h
	}
	return cs, nil
}

// matchesExpected reports whether got (possibly nil, meaning "no known
// predecessor") matches the locally-computed expectation.
func matchesExpected(got *types.BlockId, expected types.BlockId, hasExpected bool) bool {
	if got == nil {
		return !hasExpected
	}
	return hasExpected && *got == expected
}

func optionalBlockId(b types.BlockId, has bool) *types.BlockId {
	if !has {
		return nil
	}
	return &b
}

// Evict removes txid from the positional index outright, bypassing the
// txid-movement validation. It exists for chaingraph's RBF policy: when a
// higher-feerate mempool transaction replaces a lower-feerate one, the
// loser is evicted from the chain even though no invalidation covers it
// (the TxGraph still remembers it; Outspends continues to report both).
func (c *Chain) Evict(txid types.Hash) {
	pos, ok := c.txidToPos[txid]
	if !ok {
		return
	}
	delete(c.txidToPos, txid)
	for i, e := range c.posToTxid {
		if e.txid == txid && e.pos == pos {
			c.posToTxid = append(c.posToTxid[:i], c.posToTxid[i+1:]...)
			break
		}
	}
}

// DisconnectBlock implements the direct block-invalidation interface: if
// the local checkpoint at height equals hash, every checkpoint and
// confirmed txid at height >= height is invalidated and the mempool is
// cleared outright (unlike invalidateFrom, which only evicts confirmed
// positions — disconnecting a block also drops every Unconfirmed txid,
// since none of them can be trusted to still apply to the chain that
// follows the reorg). Reports false with no effect when the checkpoint
// at height does not match hash, including when none exists there.
func (c *Chain) DisconnectBlock(height uint32, hash types.Hash) bool {
	at, ok := c.CheckpointAt(height)
	if !ok || at.Hash != hash {
		return false
	}
	c.invalidateFrom(height)
	c.clearMempool()
	return true
}

// clearMempool removes every Unconfirmed txid from the positional index.
func (c *Chain) clearMempool() {
	for txid, pos := range c.txidToPos {
		if !pos.IsConfirmed() {
			delete(c.txidToPos, txid)
		}
	}
	c.rebuildPosToTxid()
}

// ApplyChangeSet commits a ChangeSet produced by ValidateUpdate against
// this same state. It is infallible: invalidate, insert the new tip,
// merge txid positions, then prune checkpoints beyond checkpoint_limit,
// in that order.
func (c *Chain) ApplyChangeSet(cs ChangeSet) {
	if cs.InvalidateHeight != nil {
		c.invalidateFrom(*cs.InvalidateHeight)
	}
	c.insertCheckpoint(cs.NewTip.Height, cs.NewTip.Hash)
	for txid, pos := range cs.Txids {
		c.setPosition(txid, pos)
	}
	c.pruneCheckpoints()
}

// invalidateFrom removes every checkpoint and confirmed txid at height
// >= h. Txids reapplied in the same ChangeSet's Txids are restored by the
// merge step that follows.
func (c *Chain) invalidateFrom(h uint32) {
	i := sort.Search(len(c.checkpoints), func(i int) bool { return c.checkpoints[i].height >= h })
	c.checkpoints = c.checkpoints[:i]
	c.rebuildHeightIndex()

	for txid, pos := range c.txidToPos {
		if height, confirmed := pos.Height(); confirmed && height >= h {
			delete(c.txidToPos, txid)
		}
	}
	c.rebuildPosToTxid()
}

func (c *Chain) insertCheckpoint(height uint32, hash types.Hash) {
	if idx, ok := c.heightIndex[height]; ok {
		c.checkpoints[idx].hash = hash
		return
	}
	i := sort.Search(len(c.checkpoints), func(i int) bool { return c.checkpoints[i].height >= height })
	c.checkpoints = append(c.checkpoints, checkpointEntry{})
	copy(c.checkpoints[i+1:], c.checkpoints[i:])
	c.checkpoints[i] = checkpointEntry{height: height, hash: hash}
	c.rebuildHeightIndex()
}

func (c *Chain) setPosition(txid types.Hash, pos types.ChainPosition) {
	c.txidToPos[txid] = pos
	c.insertPosToTxid(posEntry{pos: pos, txid: txid})
}

func (c *Chain) insertPosToTxid(e posEntry) {
	// Remove any existing entry for this txid first (position changed).
	for i, existing := range c.posToTxid {
		if existing.txid == e.txid {
			c.posToTxid = append(c.posToTxid[:i], c.posToTxid[i+1:]...)
			break
		}
	}
	i := sort.Search(len(c.posToTxid), func(i int) bool { return !lessPosEntry(c.posToTxid[i], e) })
	c.posToTxid = append(c.posToTxid, posEntry{})
	copy(c.posToTxid[i+1:], c.posToTxid[i:])
	c.posToTxid[i] = e
}

func (c *Chain) pruneCheckpoints() {
	if c.checkpointLimit == 0 || uint32(len(c.checkpoints)) <= c.checkpointLimit {
		return
	}
	drop := uint32(len(c.checkpoints)) - c.checkpointLimit
	c.checkpoints = c.checkpoints[drop:]
	c.rebuildHeightIndex()
}

func (c *Chain) rebuildHeightIndex() {
	c.heightIndex = make(map[uint32]int, len(c.checkpoints))
	for i, e := range c.checkpoints {
		c.heightIndex[e.height] = i
	}
}

func (c *Chain) rebuildPosToTxid() {
	c.posToTxid = c.posToTxid[:0]
	for txid, pos := range c.txidToPos {
		c.posToTxid = append(c.posToTxid, posEntry{pos: pos, txid: txid})
	}
	sort.Slice(c.posToTxid, func(i, j int) bool { return lessPosEntry(c.posToTxid[i], c.posToTxid[j]) })
}
