package tx

import (
	"encoding/json"
	"testing"

	"github.com/Klingon-tech/walletkit/pkg/types"
)

func sampleTx() Transaction {
	return Transaction{
		Version:  1,
		LockTime: 0,
		Inputs: []TxIn{
			{PreviousOutput: types.OutPoint{Txid: types.Hash{0x01}, Vout: 0}, Sequence: 0xffffffff},
		},
		Outputs: []TxOut{
			{Value: 5000, ScriptPubKey: types.Script{0xaa, 0xbb}},
		},
	}
}

func TestTransaction_Txid_Deterministic(t *testing.T) {
	a := sampleTx()
	b := sampleTx()

	if a.Txid() != b.Txid() {
		t.Error("identical transactions should produce identical Txids")
	}
}

func TestTransaction_Txid_DiffersOnChange(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	b.Outputs[0].Value = 9999

	if a.Txid() == b.Txid() {
		t.Error("transactions differing in output value should have different Txids")
	}
}

func TestTransaction_Txid_DiffersOnSequence(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	b.Inputs[0].Sequence = 0

	if a.Txid() == b.Txid() {
		t.Error("transactions differing only in sequence should have different Txids")
	}
}

func TestTransaction_TotalOutputValue(t *testing.T) {
	txn := sampleTx()
	txn.Outputs = append(txn.Outputs, TxOut{Value: 2500, ScriptPubKey: types.Script{0xcc}})

	total, err := txn.TotalOutputValue()
	if err != nil {
		t.Fatalf("TotalOutputValue() error: %v", err)
	}
	if total != 7500 {
		t.Errorf("TotalOutputValue() = %d, want 7500", total)
	}
}

func TestTransaction_TotalOutputValue_Empty(t *testing.T) {
	var txn Transaction
	total, err := txn.TotalOutputValue()
	if err != nil {
		t.Fatalf("TotalOutputValue() error: %v", err)
	}
	if total != 0 {
		t.Errorf("TotalOutputValue() empty = %d, want 0", total)
	}
}

func TestTransaction_TotalOutputValue_Overflow(t *testing.T) {
	txn := Transaction{
		Outputs: []TxOut{
			{Value: ^uint64(0)},
			{Value: 1},
		},
	}
	if _, err := txn.TotalOutputValue(); err == nil {
		t.Error("expected overflow error")
	}
}

func TestTransaction_IsCoinbase(t *testing.T) {
	coinbase := Transaction{
		Inputs: []TxIn{{PreviousOutput: types.OutPoint{}}},
	}
	if !coinbase.IsCoinbase() {
		t.Error("single null-prevout input should be recognized as coinbase")
	}

	regular := sampleTx()
	if regular.IsCoinbase() {
		t.Error("transaction with a real prevout should not be coinbase")
	}

	multiInput := sampleTx()
	multiInput.Inputs = append(multiInput.Inputs, TxIn{PreviousOutput: types.OutPoint{}})
	if multiInput.IsCoinbase() {
		t.Error("multiple inputs, even with one null prevout, should not be coinbase")
	}
}

func TestTransaction_SerializedSize(t *testing.T) {
	a := sampleTx()
	b := sampleTx()
	b.Outputs = append(b.Outputs, TxOut{Value: 1, ScriptPubKey: types.Script{0x01}})

	if a.SerializedSize() <= 0 {
		t.Fatal("expected a positive serialized size")
	}
	if b.SerializedSize() <= a.SerializedSize() {
		t.Error("adding an output should increase the serialized size")
	}
}

func TestTransaction_JSON_RoundTrip(t *testing.T) {
	original := sampleTx()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Txid() != original.Txid() {
		t.Errorf("roundtrip Txid mismatch: got %s, want %s", decoded.Txid(), original.Txid())
	}
}
