package txout

import (
	"fmt"
	"reflect"

	"github.com/Klingon-tech/walletkit/pkg/tx"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// scriptKey identifies a single derived script: which keychain, which
// derivation index.
type scriptKey[K comparable] struct {
	keychain K
	index    uint32
}

// keychainState holds everything the index tracks for one keychain.
// lastRevealed and lastActive are -1 when nothing has been revealed or
// observed as used, respectively.
type keychainState struct {
	descriptor   Descriptor
	scripts      []types.Script
	lastRevealed int64
	lastActive   int64
}

// Index is the KeychainTxOutIndex: for each keychain, the descriptor
// that generates its scripts, every script revealed so far, and the
// outputs observed paying each one. last_active is strictly monotonic —
// it never decreases, even across a reorg that removes the transaction
// that set it, because the descriptor already burned the script.
type Index[K comparable] struct {
	keychains   map[K]*keychainState
	scriptToKey map[string]scriptKey[K]
	outpoints   map[scriptKey[K]]map[types.OutPoint]struct{}
}

// New returns an empty Index.
func New[K comparable]() *Index[K] {
	return &Index[K]{
		keychains:   make(map[K]*keychainState),
		scriptToKey: make(map[string]scriptKey[K]),
		outpoints:   make(map[scriptKey[K]]map[types.OutPoint]struct{}),
	}
}

// AddKeychain registers descriptor under k. Registering the same
// descriptor twice is a no-op; registering a different one for an
// already-known k is a conflict.
func (idx *Index[K]) AddKeychain(k K, descriptor Descriptor) error {
	if existing, ok := idx.keychains[k]; ok {
		if reflect.DeepEqual(existing.descriptor, descriptor) {
			return nil
		}
		return &DescriptorConflictError{Keychain: k}
	}
	idx.keychains[k] = &keychainState{descriptor: descriptor, lastRevealed: -1, lastActive: -1}
	return nil
}

// RevealTo derives and stores scripts 0..=index for k, advancing
// last_revealed. For a non-derivable descriptor this clamps at 0: every
// index beyond the first derives the same script, so nothing further is
// revealed.
func (idx *Index[K]) RevealTo(k K, index uint32) error {
	st, ok := idx.keychains[k]
	if !ok {
		return &UnknownKeychainError{Keychain: k}
	}
	if !st.descriptor.IsDerivable() {
		index = 0
	}
	for i := uint32(st.lastRevealed + 1); i <= index; i++ {
		derived, err := st.descriptor.Derive(i)
		if err != nil {
			return fmt.Errorf("derive index %d: %w", i, err)
		}
		script := derived.ScriptPubKey()
		st.scripts = append(st.scripts, script)
		idx.scriptToKey[string(script)] = scriptKey[K]{keychain: k, index: i}
		if int64(i) > st.lastRevealed {
			st.lastRevealed = int64(i)
		}
	}
	return nil
}

// ScriptAt returns the script revealed at (k, index), if any.
func (idx *Index[K]) ScriptAt(k K, index uint32) (types.Script, bool) {
	st, ok := idx.keychains[k]
	if !ok || index >= uint32(len(st.scripts)) {
		return nil, false
	}
	return st.scripts[index], true
}

// NextUnused returns the lowest revealed index for k whose outpoint set
// is empty, revealing a new one if every revealed script is already
// used.
func (idx *Index[K]) NextUnused(k K) (uint32, types.Script, error) {
	st, ok := idx.keychains[k]
	if !ok {
		return 0, nil, &UnknownKeychainError{Keychain: k}
	}
	for i := uint32(0); i < uint32(len(st.scripts)); i++ {
		key := scriptKey[K]{keychain: k, index: i}
		if len(idx.outpoints[key]) == 0 {
			return i, st.scripts[i], nil
		}
	}
	next := uint32(st.lastRevealed + 1)
	if err := idx.RevealTo(k, next); err != nil {
		return 0, nil, err
	}
	return next, st.scripts[next], nil
}

// ScanTxOut records outpoint as paying script, if script matches a known
// entry. Unknown scripts are ignored silently. It advances last_active
// for the owning keychain.
func (idx *Index[K]) ScanTxOut(outpoint types.OutPoint, txout tx.TxOut) {
	key, ok := idx.scriptToKey[string(txout.ScriptPubKey)]
	if !ok {
		return
	}
	set, ok := idx.outpoints[key]
	if !ok {
		set = make(map[types.OutPoint]struct{})
		idx.outpoints[key] = set
	}
	set[outpoint] = struct{}{}

	st := idx.keychains[key.keychain]
	if int64(key.index) > st.lastActive {
		st.lastActive = int64(key.index)
	}
}

// ScanTx records every output of t that pays a known script.
func (idx *Index[K]) ScanTx(t tx.Transaction) {
	txid := t.Txid()
	for vout, out := range t.Outputs {
		idx.ScanTxOut(types.OutPoint{Txid: txid, Vout: uint32(vout)}, out)
	}
}

// DerivationIndex returns last_active[k], the highest index observed as
// used by any transaction in the graph.
func (idx *Index[K]) DerivationIndex(k K) (uint32, bool) {
	st, ok := idx.keychains[k]
	if !ok || st.lastActive < 0 {
		return 0, false
	}
	return uint32(st.lastActive), true
}

// StoreAllUpTo ensures every keychain named in upTo is revealed at least
// to the given index, used when applying an external scan result.
func (idx *Index[K]) StoreAllUpTo(upTo map[K]uint32) error {
	for k, index := range upTo {
		st, ok := idx.keychains[k]
		if !ok {
			return &UnknownKeychainError{Keychain: k}
		}
		if int64(index) <= st.lastRevealed {
			continue
		}
		if err := idx.RevealTo(k, index); err != nil {
			return err
		}
	}
	return nil
}

// Outpoints returns every OutPoint recorded as paying (k, index).
func (idx *Index[K]) Outpoints(k K, index uint32) []types.OutPoint {
	set, ok := idx.outpoints[scriptKey[K]{keychain: k, index: index}]
	if !ok {
		return nil
	}
	out := make([]types.OutPoint, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	return out
}

// KeyForScript returns the keychain and derivation index that produced
// script, if it has been revealed.
func (idx *Index[K]) KeyForScript(script types.Script) (K, uint32, bool) {
	key, ok := idx.scriptToKey[string(script)]
	if !ok {
		var zero K
		return zero, 0, false
	}
	return key.keychain, key.index, true
}
