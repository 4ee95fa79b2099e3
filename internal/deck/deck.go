package deck

import (
	rand "math/rand/v2"
)

// Size is the number of cards in a Briscola deck.
const Size = 40

// Deck represents a shuffled Briscola deck with a draw cursor. The trump
// suit is the suit of the last card and is fixed at construction.
type Deck struct {
	cards [Size]Card
	next  int
	trump Suit
}

// New creates a shuffled deck using the provided rng. Pass a seeded rng
// (see internal/randutil) for a reproducible permutation.
func New(rng *rand.Rand) *Deck {
	d := &Deck{}
	i := 0
	for s := Hearts; s <= Spades; s++ {
		for v := Ace; v <= King; v++ {
			d.cards[i] = NewCard(v, s)
			i++
		}
	}
	rng.Shuffle(Size, func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	d.trump = d.cards[Size-1].Suit
	return d
}

// Trump returns the trump suit.
func (d *Deck) Trump() Suit {
	return d.trump
}

// Draw returns the next card and advances the cursor. The second return is
// false once the deck is exhausted; that is a normal condition, not an error.
func (d *Deck) Draw() (Card, bool) {
	if d.next == Size {
		return Card{}, false
	}
	c := d.cards[d.next]
	d.next++
	return c, true
}

// Remaining returns the number of cards left to draw.
func (d *Deck) Remaining() int {
	return Size - d.next
}
