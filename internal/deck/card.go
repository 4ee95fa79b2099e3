// Package deck implements the Briscola card model: a 40-card deck with a
// trump suit, two-character card tokens, trick comparison and scoring.
package deck

import "fmt"

// Suit represents a card suit
type Suit int

const (
	Hearts   Suit = iota // Cuori
	Diamonds             // Quadri
	Clubs                // Fiori
	Spades               // Picche
)

// Char returns the single-letter wire encoding of a suit (Italian initials).
// Unknown suits render 'U' rather than failing.
func (s Suit) Char() byte {
	switch s {
	case Hearts:
		return 'C'
	case Diamonds:
		return 'Q'
	case Clubs:
		return 'F'
	case Spades:
		return 'P'
	default:
		return 'U'
	}
}

// String returns the string representation of a suit
func (s Suit) String() string {
	return string(s.Char())
}

// ParseSuit converts a suit letter back to a Suit.
func ParseSuit(c byte) (Suit, error) {
	switch c {
	case 'C':
		return Hearts, nil
	case 'Q':
		return Diamonds, nil
	case 'F':
		return Clubs, nil
	case 'P':
		return Spades, nil
	default:
		return 0, fmt.Errorf("invalid suit letter %q", string(c))
	}
}

// Value represents a card value. The declaration order is the ordinal order
// used by same-suit comparison; Ace and Three are special-cased there.
type Value int

const (
	Ace Value = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Jack
	Queen
	King
)

// Char returns the single-letter wire encoding of a value.
// Unknown values render 'U' rather than failing.
func (v Value) Char() byte {
	switch v {
	case Ace:
		return 'A'
	case Two:
		return '2'
	case Three:
		return '3'
	case Four:
		return '4'
	case Five:
		return '5'
	case Six:
		return '6'
	case Seven:
		return '7'
	case Jack:
		return 'J'
	case Queen:
		return 'Q'
	case King:
		return 'K'
	default:
		return 'U'
	}
}

// String returns the string representation of a value
func (v Value) String() string {
	return string(v.Char())
}

// ParseValue converts a value letter back to a Value.
func ParseValue(c byte) (Value, error) {
	switch c {
	case 'A':
		return Ace, nil
	case '2':
		return Two, nil
	case '3':
		return Three, nil
	case '4':
		return Four, nil
	case '5':
		return Five, nil
	case '6':
		return Six, nil
	case '7':
		return Seven, nil
	case 'J':
		return Jack, nil
	case 'Q':
		return Queen, nil
	case 'K':
		return King, nil
	default:
		return 0, fmt.Errorf("invalid value letter %q", string(c))
	}
}

// Card represents a playing card
type Card struct {
	Value Value
	Suit  Suit
}

// NewCard creates a new card
func NewCard(v Value, s Suit) Card {
	return Card{Value: v, Suit: s}
}

// Token returns the two-character wire encoding of a card (e.g. "AC", "2P").
func (c Card) Token() string {
	return string([]byte{c.Value.Char(), c.Suit.Char()})
}

// String returns the string representation of a card, same as Token.
func (c Card) String() string {
	return c.Token()
}

// ParseCard converts a two-character token to a card. Tokens with an unknown
// value or suit letter are rejected.
func ParseCard(tok string) (Card, error) {
	if len(tok) != 2 {
		return Card{}, fmt.Errorf("invalid card token %q", tok)
	}
	v, err := ParseValue(tok[0])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card token %q: %w", tok, err)
	}
	s, err := ParseSuit(tok[1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card token %q: %w", tok, err)
	}
	return Card{Value: v, Suit: s}, nil
}

// Points returns the Briscola point value of a card.
func (c Card) Points() int {
	switch c.Value {
	case Ace:
		return 11
	case Three:
		return 10
	case King:
		return 4
	case Queen:
		return 3
	case Jack:
		return 2
	default:
		return 0
	}
}

// Points sums the point values of a capture pile.
func Points(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Points()
	}
	return total
}

// sameSuitBeats reports whether a beats b when both share a suit.
// Ace beats everything; Three beats everything but the Ace; otherwise the
// higher ordinal wins.
func sameSuitBeats(a, b Card) bool {
	if a.Value == Ace {
		return true
	}
	if a.Value == Three && b.Value != Ace {
		return true
	}
	return a.Value > b.Value && b.Value != Ace && b.Value != Three
}

// Beats reports whether the first-played card wins the trick against the
// second-played card under the given trump suit.
func Beats(trump Suit, first, second Card) bool {
	if first.Suit == trump {
		if second.Suit == trump {
			return sameSuitBeats(first, second)
		}
		return true
	}
	if first.Suit == second.Suit {
		return sameSuitBeats(first, second)
	}
	// An off-suit follow only takes the trick when it is trump.
	return second.Suit != trump
}
