package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const DefaultLength = 7

// Generator generates random short codes
type Generator interface {
	Generate() (string, error)
	GenerateWithLength(length int) (string, error)
}

// RandomGenerator draws each symbol uniformly from Alphabet using crypto/rand.
type RandomGenerator struct {
	length int
}

func NewRandomGenerator() Generator {
	return &RandomGenerator{length: DefaultLength}
}

func NewRandomGeneratorWithLength(length int) Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &RandomGenerator{length: length}
}

func (g *RandomGenerator) Generate() (string, error) {
	return g.GenerateWithLength(g.length)
}

func (g *RandomGenerator) GenerateWithLength(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	max := big.NewInt(int64(base))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}

	return string(b), nil
}
