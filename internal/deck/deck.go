package deck

import rand "math/rand/v2"

// Size is the number of cards in a 304 deck
const Size = 32

// TotalPoints is the point total of the full deck
const TotalPoints = 304

// Deck represents a 32-card 304 deck
type Deck struct {
	cards []Card
}

// New creates a full, unshuffled deck: the cartesian product of the four
// suits and eight ranks
func New() *Deck {
	d := &Deck{cards: make([]Card, 0, Size)}
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// Shuffle randomizes the deck in place using the provided rng, so callers
// can pin permutations in tests
func (d *Deck) Shuffle(rng *rand.Rand) {
	for i := len(d.cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Draw removes and returns the top n cards. Drawing past the end returns
// whatever remains.
func (d *Deck) Draw(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	drawn := d.cards[:n:n]
	d.cards = d.cards[n:]
	return drawn
}

// Remaining returns the number of undealt cards
func (d *Deck) Remaining() int {
	return len(d.cards)
}
