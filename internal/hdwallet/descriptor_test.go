package hdwallet

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/walletkit/pkg/types"
)

func TestDescriptor_Derive_DistinctIndices(t *testing.T) {
	seed := testSeed(t)
	desc, err := NewDescriptor(seed, 0, ChangeExternal)
	if err != nil {
		t.Fatalf("NewDescriptor() error: %v", err)
	}

	d0, err := desc.Derive(0)
	if err != nil {
		t.Fatalf("Derive(0) error: %v", err)
	}
	d1, err := desc.Derive(1)
	if err != nil {
		t.Fatalf("Derive(1) error: %v", err)
	}

	if d0.ScriptPubKey().Equal(d1.ScriptPubKey()) {
		t.Error("distinct indices should derive distinct scripts")
	}
	if !desc.IsDerivable() {
		t.Error("an HD descriptor should report itself derivable")
	}
}

func TestDescriptor_Derive_Deterministic(t *testing.T) {
	seed := testSeed(t)
	desc, _ := NewDescriptor(seed, 0, ChangeExternal)

	a, _ := desc.Derive(5)
	b, _ := desc.Derive(5)
	if !a.ScriptPubKey().Equal(b.ScriptPubKey()) {
		t.Error("deriving the same index twice should yield the same script")
	}
	if a.MaxSatisfactionWeight() != b.MaxSatisfactionWeight() {
		t.Error("MaxSatisfactionWeight should be stable across derivations")
	}
}

func TestDescriptor_ChangeSeparatesExternalAndInternal(t *testing.T) {
	seed := testSeed(t)
	external, _ := NewDescriptor(seed, 0, ChangeExternal)
	internal, _ := NewDescriptor(seed, 0, ChangeInternal)

	e, _ := external.Derive(0)
	i, _ := internal.Derive(0)
	if e.ScriptPubKey().Equal(i.ScriptPubKey()) {
		t.Error("external and internal chains at the same index should diverge")
	}
}

func TestStaticDescriptor(t *testing.T) {
	script := types.Script{0xde, 0xad, 0xbe, 0xef}
	sd := StaticDescriptor{Script: script, Weight: 64}

	if sd.IsDerivable() {
		t.Error("a StaticDescriptor is never derivable")
	}

	d0, err := sd.Derive(0)
	if err != nil {
		t.Fatalf("Derive(0) error: %v", err)
	}
	d7, err := sd.Derive(7)
	if err != nil {
		t.Fatalf("Derive(7) error: %v", err)
	}

	if !bytes.Equal(d0.ScriptPubKey(), d7.ScriptPubKey()) {
		t.Error("StaticDescriptor must return the same script regardless of index")
	}
	if d0.MaxSatisfactionWeight() != 64 {
		t.Errorf("MaxSatisfactionWeight = %d, want 64", d0.MaxSatisfactionWeight())
	}
}
