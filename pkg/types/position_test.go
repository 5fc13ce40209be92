package types

import (
	"encoding/json"
	"testing"
)

func TestChainPosition_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b ChainPosition
		want int
	}{
		{"confirmed before unconfirmed", Confirmed(5), Unconfirmed(), -1},
		{"unconfirmed after confirmed", Unconfirmed(), Confirmed(5), 1},
		{"unconfirmed equals unconfirmed", Unconfirmed(), Unconfirmed(), 0},
		{"lower height first", Confirmed(1), Confirmed(2), -1},
		{"higher height last", Confirmed(2), Confirmed(1), 1},
		{"equal heights", Confirmed(7), Confirmed(7), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChainPosition_HeightAndIsConfirmed(t *testing.T) {
	c := Confirmed(42)
	if !c.IsConfirmed() {
		t.Error("Confirmed(42) should report confirmed")
	}
	h, ok := c.Height()
	if !ok || h != 42 {
		t.Errorf("Height() = (%d, %v), want (42, true)", h, ok)
	}

	u := Unconfirmed()
	if u.IsConfirmed() {
		t.Error("Unconfirmed() should not report confirmed")
	}
	if _, ok := u.Height(); ok {
		t.Error("Height() on an unconfirmed position should report ok=false")
	}
}

func TestChainPosition_String(t *testing.T) {
	if got := Confirmed(3).String(); got != "confirmed(3)" {
		t.Errorf("String() = %q, want %q", got, "confirmed(3)")
	}
	if got := Unconfirmed().String(); got != "unconfirmed" {
		t.Errorf("String() = %q, want %q", got, "unconfirmed")
	}
}

func TestChainPosition_JSONRoundTrip(t *testing.T) {
	for _, p := range []ChainPosition{Confirmed(0), Confirmed(100), Unconfirmed()} {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", p, err)
		}
		var decoded ChainPosition
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if decoded != p {
			t.Errorf("round trip %v -> %s -> %v", p, data, decoded)
		}
	}
}
