package fault

import (
	"bytes"
	"testing"
)

func TestMaybeCorrupt_Deterministic(t *testing.T) {
	payload := []byte("hello ring")

	for seed := int64(0); seed < 20; seed++ {
		a := MaybeCorrupt(payload, 0.5, seed)
		b := MaybeCorrupt(payload, 0.5, seed)
		if !bytes.Equal(a, b) {
			t.Fatalf("seed %d: results differ: %q vs %q", seed, a, b)
		}
	}
}

func TestMaybeCorrupt_Always(t *testing.T) {
	payload := []byte("hello ring")
	original := append([]byte(nil), payload...)

	out := MaybeCorrupt(payload, 1, 42)
	if bytes.Equal(out, payload) {
		t.Fatal("expected payload to be corrupted with probability 1")
	}
	if !bytes.Equal(payload, original) {
		t.Error("input slice was modified")
	}

	diff := 0
	for i := range out {
		diff += popcount(out[i] ^ payload[i])
	}
	if diff != 1 {
		t.Errorf("expected exactly one flipped bit, got %d", diff)
	}
}

func TestMaybeCorrupt_Never(t *testing.T) {
	payload := []byte("hello ring")
	for seed := int64(0); seed < 50; seed++ {
		if out := MaybeCorrupt(payload, 0, seed); !bytes.Equal(out, payload) {
			t.Fatalf("seed %d: payload corrupted with probability 0", seed)
		}
	}
	if out := MaybeCorrupt(nil, 1, 1); out != nil {
		t.Errorf("expected nil for empty payload, got %v", out)
	}
}

func TestInjector_SameSeedSameSequence(t *testing.T) {
	a := NewInjector(0.3, 7)
	b := NewInjector(0.3, 7)
	payload := []byte("payload")

	for i := 0; i < 100; i++ {
		if !bytes.Equal(a.MaybeCorrupt(payload), b.MaybeCorrupt(payload)) {
			t.Fatalf("injectors diverged at call %d", i)
		}
	}
}

func TestTokenDropper(t *testing.T) {
	if NewTokenDropper(0, 1).DropToken() {
		t.Error("zero-probability dropper dropped a token")
	}

	always := NewTokenDropper(1, 1)
	for i := 0; i < 10; i++ {
		if !always.DropToken() {
			t.Fatal("probability-1 dropper kept a token")
		}
	}

	d := NewTokenDropper(0.25, 99)
	dropped := 0
	for i := 0; i < 4000; i++ {
		if d.DropToken() {
			dropped++
		}
	}
	if dropped < 800 || dropped > 1200 {
		t.Errorf("expected roughly 1000 drops, got %d", dropped)
	}
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
