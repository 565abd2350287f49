package dice

import (
	"crypto/rand"
	"math/big"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are cryptographically secure and uniformly
// distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// SequenceSource replays preset die faces, one per Intn call. It stands in for
// a physical roller in tests and when faces are supplied by hand.
type SequenceSource struct {
	mu    sync.Mutex
	faces []int
}

// NewSequenceSource returns a Source that yields faces[i]-1 on its i-th call.
//
// Precondition: every face is >= 1.
func NewSequenceSource(faces ...int) *SequenceSource {
	return &SequenceSource{faces: append([]int(nil), faces...)}
}

// Intn returns the next preset face minus one, clamped to [0, n).
//
// Precondition: n > 0. Panics when the sequence is exhausted.
func (s *SequenceSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faces) == 0 {
		panic("dice: SequenceSource exhausted")
	}
	v := s.faces[0] - 1
	s.faces = s.faces[1:]
	if v < 0 {
		v = 0
	}
	if v >= n {
		v = n - 1
	}
	return v
}

// Remaining returns how many preset faces are left.
func (s *SequenceSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces)
}
