package rules

// RandomSource supplies uniformly distributed indices for shuffling.
type RandomSource interface {
	// Intn returns a value in [0, n). n is always positive.
	Intn(n int) int
}

// Xorshift is a xorshift64 generator. Its whole state is one word, which is
// stored on GameState so that shuffles replay identically from a seed.
type Xorshift struct {
	state uint64
}

// NewXorshift seeds a generator. A zero seed is replaced with 1 since zero is
// a fixed point of the recurrence.
func NewXorshift(seed uint64) *Xorshift {
	if seed == 0 {
		seed = 1
	}
	return &Xorshift{state: seed}
}

// Next advances the generator and returns the new state.
func (x *Xorshift) Next() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// Intn returns a value in [0, n).
func (x *Xorshift) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return int(x.Next() % uint64(n))
}

// State returns the current generator state.
func (x *Xorshift) State() uint64 {
	return x.state
}
