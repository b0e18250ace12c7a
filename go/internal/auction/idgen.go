package auction

import (
	"math/rand"
	"strings"
	"sync"
)

const roomIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// IDGenerator produces candidate room ids. Uniqueness among live rooms is
// checked by the Registry, which retries on collision.
type IDGenerator interface {
	NewRoomID() string
}

// randomIDGenerator returns six-character uppercase base36 ids
type randomIDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	n   int
}

// NewRandomIDGenerator returns an IDGenerator producing length-character
// uppercase alphanumeric ids from rng
func NewRandomIDGenerator(rng *rand.Rand, length int) IDGenerator {
	return &randomIDGenerator{rng: rng, n: length}
}

func (g *randomIDGenerator) NewRoomID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(g.n)
	for i := 0; i < g.n; i++ {
		b.WriteByte(roomIDAlphabet[g.rng.Intn(len(roomIDAlphabet))])
	}
	return b.String()
}
