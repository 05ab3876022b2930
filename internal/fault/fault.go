package fault

import (
	"math/rand"
	"sync"
)

// Corrupter optionally mutates an outbound payload before it is sent.
type Corrupter interface {
	MaybeCorrupt(payload []byte) []byte
}

// Dropper decides whether an inbound token frame is discarded.
type Dropper interface {
	DropToken() bool
}

// MaybeCorrupt flips one bit of a copy of b with the given probability.
// The result depends only on the inputs; b itself is never modified.
func MaybeCorrupt(b []byte, probability float64, seed int64) []byte {
	return corrupt(rand.New(rand.NewSource(seed)), b, probability)
}

func corrupt(rng *rand.Rand, b []byte, probability float64) []byte {
	if len(b) == 0 || probability <= 0 {
		return b
	}
	if rng.Float64() >= probability {
		return b
	}
	out := append([]byte(nil), b...)
	i := rng.Intn(len(out))
	out[i] ^= 1 << uint(rng.Intn(8))
	return out
}

// Injector corrupts payloads using a single seeded source for its lifetime,
// so a run with the same seed and traffic corrupts the same transmissions.
type Injector struct {
	mu          sync.Mutex
	rng         *rand.Rand
	probability float64
}

// NewInjector creates a corrupter that fires with the given probability.
func NewInjector(probability float64, seed int64) *Injector {
	return &Injector{
		rng:         rand.New(rand.NewSource(seed)),
		probability: probability,
	}
}

// MaybeCorrupt implements Corrupter.
func (i *Injector) MaybeCorrupt(payload []byte) []byte {
	i.mu.Lock()
	defer i.mu.Unlock()
	return corrupt(i.rng, payload, i.probability)
}

// TokenDropper discards inbound token frames with a fixed probability.
type TokenDropper struct {
	mu          sync.Mutex
	rng         *rand.Rand
	probability float64
}

// NewTokenDropper creates a dropper that fires with the given probability.
func NewTokenDropper(probability float64, seed int64) *TokenDropper {
	return &TokenDropper{
		rng:         rand.New(rand.NewSource(seed)),
		probability: probability,
	}
}

// DropToken implements Dropper.
func (d *TokenDropper) DropToken() bool {
	if d.probability <= 0 {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Float64() < d.probability
}

// Func adapts a plain function to Corrupter, mostly for tests.
type Func func([]byte) []byte

// MaybeCorrupt implements Corrupter.
func (f Func) MaybeCorrupt(payload []byte) []byte { return f(payload) }

// DropFunc adapts a plain function to Dropper.
type DropFunc func() bool

// DropToken implements Dropper.
func (f DropFunc) DropToken() bool { return f() }
