package types

import (
	"strings"
	"testing"
)

func TestOutPoint_IsNull(t *testing.T) {
	var zero OutPoint
	if !zero.IsNull() {
		t.Error("zero-value OutPoint should be null")
	}

	nonZero := OutPoint{Txid: Hash{0x01}, Vout: 0}
	if nonZero.IsNull() {
		t.Error("OutPoint with non-zero Txid should not be null")
	}

	nonZero2 := OutPoint{Txid: Hash{}, Vout: 1}
	if nonZero2.IsNull() {
		t.Error("OutPoint with non-zero Vout should not be null")
	}
}

func TestOutPoint_String(t *testing.T) {
	o := OutPoint{
		Txid: Hash{0xab},
		Vout: 3,
	}
	s := o.String()

	if !strings.HasPrefix(s, "ab") {
		t.Errorf("String() should start with txid hex, got %s", s)
	}
	if !strings.HasSuffix(s, ":3") {
		t.Errorf("String() should end with ':3', got %s", s)
	}

	var zero OutPoint
	zs := zero.String()
	if !strings.HasSuffix(zs, ":0") {
		t.Errorf("zero OutPoint String() should end with ':0', got %s", zs)
	}
}

func TestOutPoint_Less(t *testing.T) {
	a := OutPoint{Txid: Hash{0x01}, Vout: 5}
	b := OutPoint{Txid: Hash{0x01}, Vout: 6}
	c := OutPoint{Txid: Hash{0x02}, Vout: 0}

	if !a.Less(b) {
		t.Error("a should be less than b (same txid, smaller vout)")
	}
	if b.Less(a) {
		t.Error("b should not be less than a")
	}
	if !b.Less(c) {
		t.Error("b should be less than c (smaller txid)")
	}
	if a.Less(a) {
		t.Error("a should not be less than itself")
	}
}
