package asteria

// Random is the deterministic PRNG state owned by the Global Context
// (§4.3/§9) and reachable through Context.Random. `array_random(seed)`
// subscripts do not consult it; they hash their own seed in
// randomIndex. It is a splitmix64 generator:
// small, allocation-free, and -- crucially for reproducible script
// runs and golden tests -- identical across platforms given the same
// seed, which a host language RNG is not guaranteed to be.
type Random struct {
	state uint64
}

func NewRandom(seed uint64) *Random {
	return &Random{state: seed}
}

// Next advances the generator and returns the next 64-bit value.
func (r *Random) Next() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Seed reseeds the generator, e.g. from `std.random.seed(n)`.
func (r *Random) Seed(seed uint64) { r.state = seed }
