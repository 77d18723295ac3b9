// Package gamecode generates the short join codes that identify active games.
package gamecode

import (
	"fmt"
	"strings"
)

// Length is the number of characters in a game code
const Length = 6

// alphabet is uppercase alphanumerics; codes are shouted across a table, so
// no lowercase and no lookalike filtering beyond what players tolerate
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandSource is the randomness a Generator consumes, injectable for tests
type RandSource interface {
	IntN(n int) int
}

// Generator produces game codes from a RandSource
type Generator struct {
	rand RandSource
}

// NewGenerator creates a generator backed by the given RandSource
func NewGenerator(rand RandSource) *Generator {
	return &Generator{rand: rand}
}

// Generate returns a new 6-character game code
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		b.WriteByte(alphabet[g.rand.IntN(len(alphabet))])
	}
	return b.String()
}

// Normalize upper-cases a client-supplied code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks that a code is 6 characters of A-Z/0-9
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("game code must be exactly %d characters, got %d", Length, len(code))
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
