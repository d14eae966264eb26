// Package roomcode generates the short uppercase codes students type to
// enter a room.
package roomcode

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the character set for room codes. Uppercase letters and
// digits only, so codes survive being read aloud or written on a board.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the fixed room code length.
const Length = 6

// Generate returns a random room code. Uniqueness is enforced by the
// database constraint, not here; callers retry on collision.
func Generate() string {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken. Nothing sensible to do but give up loudly.
			panic(err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf)
}
