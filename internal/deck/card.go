package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists all four suits in deck order
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// String returns the wire name of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "?"
	}
}

// Symbol returns the single-glyph representation of a suit for logs
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// ParseSuit parses a wire suit name
func ParseSuit(name string) (Suit, error) {
	switch name {
	case "hearts":
		return Hearts, nil
	case "diamonds":
		return Diamonds, nil
	case "clubs":
		return Clubs, nil
	case "spades":
		return Spades, nil
	default:
		return 0, fmt.Errorf("invalid suit %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler
func (s Suit) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rank represents a card rank. The constants are declared in ascending
// strength order, so the zero-point tie-break (7 vs 8) falls out of the
// ordinal directly.
type Rank int

const (
	Seven Rank = iota
	Eight
	Queen
	King
	Ten
	Ace
	Nine
	Jack
)

// Ranks lists all eight ranks in ascending strength order
var Ranks = []Rank{Seven, Eight, Queen, King, Ten, Ace, Nine, Jack}

// rankPoints maps rank ordinal to card points. The 32-card deck totals 304.
var rankPoints = [...]int{0, 0, 2, 3, 10, 11, 20, 30}

// String returns the wire name of a rank
func (r Rank) String() string {
	switch r {
	case Seven:
		return "7"
	case Eight:
		return "8"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ten:
		return "10"
	case Ace:
		return "A"
	case Nine:
		return "9"
	case Jack:
		return "J"
	default:
		return "?"
	}
}

// ParseRank parses a wire rank name
func ParseRank(name string) (Rank, error) {
	switch name {
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "10":
		return Ten, nil
	case "A":
		return Ace, nil
	case "9":
		return Nine, nil
	case "J":
		return Jack, nil
	default:
		return 0, fmt.Errorf("invalid rank %q", name)
	}
}

// Card represents a playing card. Cards are value types; identity is
// (rank, suit) and comparison with == is meaningful.
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// Points returns the card's point value
func (c Card) Points() int {
	return rankPoints[c.Rank]
}

// Order returns the card's position in the rank hierarchy, used to break
// ties between cards of equal point value
func (c Card) Order() int {
	return int(c.Rank)
}

// ID returns the wire identifier of the card, e.g. "J_hearts"
func (c Card) ID() string {
	return c.Rank.String() + "_" + c.Suit.String()
}

// String returns the wire identifier
func (c Card) String() string {
	return c.ID()
}

// ParseCard parses a wire card identifier of the form "<rank>_<suit>"
func ParseCard(id string) (Card, error) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 {
		return Card{}, fmt.Errorf("invalid card id %q", id)
	}
	rank, err := ParseRank(id[:i])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	suit, err := ParseSuit(id[i+1:])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseCards parses a list of wire card identifiers
func ParseCards(ids []string) ([]Card, error) {
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		card, err := ParseCard(id)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// IDs returns the wire identifiers for a list of cards
func IDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}

// MarshalText implements encoding.TextMarshaler
func (c Card) MarshalText() ([]byte, error) {
	return []byte(c.ID()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Beats reports whether c beats other in a trick context. callingSuit is
// the suit led this trick; trumpSuit only matters once trump is revealed.
// The predicate is antisymmetric for distinct cards within one trick.
func (c Card) Beats(other Card, trumpSuit Suit, trumpRevealed bool, callingSuit Suit) bool {
	if trumpRevealed {
		if c.Suit == trumpSuit && other.Suit != trumpSuit {
			return true
		}
		if c.Suit != trumpSuit && other.Suit == trumpSuit {
			return false
		}
	}

	if c.Suit == other.Suit {
		if c.Points() != other.Points() {
			return c.Points() > other.Points()
		}
		return c.Order() > other.Order()
	}

	// Different suits, neither a revealed trump: only the calling suit wins
	if other.Suit == callingSuit {
		return false
	}
	return c.Suit == callingSuit
}
