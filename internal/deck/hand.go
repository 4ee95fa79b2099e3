package deck

// HandSize is the number of cards a player holds.
const HandSize = 3

// Hand is a fixed container of three slots. A nil slot is empty; a slot
// empties only when the deck is exhausted at refill time.
type Hand [HandSize]*Card

// NewHand builds a hand from exactly three cards.
func NewHand(a, b, c Card) *Hand {
	return &Hand{&a, &b, &c}
}

// Contains reports whether any occupied slot holds a card with the same
// value and suit.
func (h *Hand) Contains(c Card) bool {
	for _, slot := range h {
		if slot != nil && *slot == c {
			return true
		}
	}
	return false
}

// Replace overwrites the slot holding played with drawn. A nil drawn means
// the deck was exhausted and the slot is emptied instead.
func (h *Hand) Replace(drawn *Card, played Card) {
	for i, slot := range h {
		if slot == nil || *slot != played {
			continue
		}
		if drawn == nil {
			h[i] = nil
		} else {
			c := *drawn
			h[i] = &c
		}
		return
	}
}

// Swap exchanges slots with the other hand. Empty slots move like occupied
// ones, so no card is lost in the exchange.
func (h *Hand) Swap(other *Hand) {
	for i := range h {
		h[i], other[i] = other[i], h[i]
	}
}

// Empty reports whether every slot of the hand is empty.
func (h *Hand) Empty() bool {
	for _, slot := range h {
		if slot != nil {
			return false
		}
	}
	return true
}

// Cards returns the cards currently held, in slot order.
func (h *Hand) Cards() []Card {
	out := make([]Card, 0, HandSize)
	for _, slot := range h {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out
}

// Tokens returns the concatenated two-character tokens of the occupied
// slots, six characters for a full hand.
func (h *Hand) Tokens() string {
	s := ""
	for _, slot := range h {
		if slot != nil {
			s += slot.Token()
		}
	}
	return s
}

// MatchOver reports whether the match is finished: all six slots of both
// hands are empty.
func MatchOver(a, b *Hand) bool {
	return a.Empty() && b.Empty()
}
