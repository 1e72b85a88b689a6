// Package gameid generates sortable game identifiers: a UUIDv7 encoded as a
// 26-character lowercase Crockford base32 string.
package gameid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32, lowercase.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the encoded ID length.
const Length = 26

// Generator creates game IDs. A nil reader uses crypto randomness.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator reading random bits from r.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// Generate returns a new game ID.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a new game ID.
func (g *Generator) Generate() string {
	var (
		id  uuid.UUID
		err error
	)
	if g == nil || g.rand == nil {
		id, err = uuid.NewV7()
	} else {
		id, err = uuid.NewV7FromReader(g.rand)
	}
	if err != nil {
		panic("gameid: generate uuid: " + err.Error())
	}
	return Encode(id)
}

// Encode renders a UUID in the game ID format.
func Encode(id uuid.UUID) string {
	result := make([]byte, Length)
	// 128 bits are emitted as 26 groups of five; the final group is padded.
	for i := 0; i < Length; i++ {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var value uint8
		if bitIndex <= 3 {
			value = (id[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			value = (id[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < len(id) {
				value |= id[byteIndex+1] >> (11 - bitIndex)
			}
		}
		result[i] = alphabet[value]
	}
	return string(result)
}

// Validate checks that id is 26 characters of the alphabet and fits in 128 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("game ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("game ID first character must be 0-7, got %c", id[0])
	}
	for i, char := range id {
		if !strings.ContainsRune(alphabet, char) {
			return fmt.Errorf("invalid character %c at position %d", char, i)
		}
	}
	return nil
}
