// Package tx defines the transaction shape the chain-tracking core
// operates on: enough to identify a transaction, its inputs, and its
// outputs. It never signs or interprets scripts.
package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Klingon-tech/walletkit/pkg/crypto"
	"github.com/Klingon-tech/walletkit/pkg/types"
)

// Transaction is the unit the core tracks: a version, a lock time, and
// its inputs and outputs. Txid is derived, never stored, so two
// Transactions with identical fields always have identical Txids.
type Transaction struct {
	Version  uint32 `json:"version"`
	LockTime uint32 `json:"locktime"`
	Inputs   []TxIn `json:"inputs"`
	Outputs  []TxOut `json:"outputs"`
}

// TxIn references a previous output being spent.
type TxIn struct {
	PreviousOutput types.OutPoint `json:"prevout"`
	Sequence       uint32         `json:"sequence"`
}

// TxOut is a new output: an amount and the script that locks it. The
// core never interprets ScriptPubKey; it only compares it for equality
// against scripts a Descriptor derives.
type TxOut struct {
	Value        uint64      `json:"value"`
	ScriptPubKey types.Script `json:"script_pubkey"`
}

// Txid computes the transaction id: a BLAKE3 hash of the transaction's
// canonical encoding. Two transactions with the same fields always
// produce the same Txid, regardless of construction order.
func (t *Transaction) Txid() types.Hash {
	return crypto.Hash(t.canonicalBytes())
}

// canonicalBytes serializes the transaction deterministically.
// Format: version(4) | locktime(4) | input_count(4) |
// [prev_txid(32) + prev_vout(4) + sequence(4)]... | output_count(4) |
// [value(8) + script_len(4) + script]...
func (t *Transaction) canonicalBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, t.Version)
	buf = binary.LittleEndian.AppendUint32(buf, t.LockTime)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf = append(buf, in.PreviousOutput.Txid[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.PreviousOutput.Vout)
		buf = binary.LittleEndian.AppendUint32(buf, in.Sequence)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Value)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.ScriptPubKey)))
		buf = append(buf, out.ScriptPubKey...)
	}

	return buf
}

// SerializedSize returns the length of the transaction's canonical
// encoding, used as the size term in a feerate comparison.
func (t *Transaction) SerializedSize() int {
	return len(t.canonicalBytes())
}

// TotalOutputValue returns the sum of all output values.
// Returns an error if the sum overflows uint64.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("output value overflow")
		}
		total += out.Value
	}
	return total, nil
}

// IsCoinbase reports whether t has a single null-prevout input, the
// shape of a block-reward transaction.
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PreviousOutput.IsNull()
}

// txJSON mirrors Transaction for JSON encoding; outputs/inputs use
// their natural field marshaling via types.Script/types.OutPoint.
type txJSON struct {
	Version  uint32  `json:"version"`
	LockTime uint32  `json:"locktime"`
	Inputs   []TxIn  `json:"inputs"`
	Outputs  []TxOut `json:"outputs"`
}

// MarshalJSON encodes the transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(txJSON(t))
}

// UnmarshalJSON decodes a transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Transaction(j)
	return nil
}
