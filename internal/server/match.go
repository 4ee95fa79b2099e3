package server

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/emarcon/briscola/internal/deck"
	"github.com/emarcon/briscola/internal/protocol"
)

// seat is one side of a running match: the player's name, their wire
// endpoint and the cards they have captured so far.
type seat struct {
	name string
	conn io.ReadWriter
	pile []deck.Card
}

// engine runs a single match. seats[0] always leads the next trick and
// hands[i] always belongs to seats[i]; when the follower takes a trick the
// seats exchange slots and the hands swap along with them.
type engine struct {
	id     int
	logger *log.Logger
	d      *deck.Deck
	seats  [2]seat
	hands  [2]*deck.Hand
	tr     *transcript
}

// newEngine shuffles a fresh deck and deals three cards to each player,
// alternating starting with the challenger, who occupies the lead seat.
func newEngine(id int, rng *rand.Rand, tr *transcript, logger *log.Logger,
	challenger string, challengerConn io.ReadWriter,
	awaited string, awaitedConn io.ReadWriter) *engine {

	d := deck.New(rng)
	var dealt [6]deck.Card
	for i := range dealt {
		dealt[i], _ = d.Draw()
	}

	return &engine{
		id:     id,
		logger: logger.With("match", id),
		d:      d,
		seats: [2]seat{
			{name: challenger, conn: challengerConn},
			{name: awaited, conn: awaitedConn},
		},
		hands: [2]*deck.Hand{
			deck.NewHand(dealt[0], dealt[2], dealt[4]),
			deck.NewHand(dealt[1], dealt[3], dealt[5]),
		},
		tr: tr,
	}
}

// run plays the match to completion. Any wire error aborts it; the caller
// owns connection cleanup and user state reset.
func (e *engine) run() error {
	if err := e.tr.header(e.seats[0].name, e.seats[1].name, e.d.Trump()); err != nil {
		return err
	}

	for i := range e.seats {
		start := protocol.StartGame{
			Trump:    e.d.Trump().Char(),
			Hand:     e.hands[i].Tokens(),
			Opponent: e.seats[1-i].name,
		}
		msg := protocol.NewMessage(protocol.TypeStartGame, start.String())
		if err := protocol.Write(e.seats[i].conn, msg); err != nil {
			return fmt.Errorf("startgame to %s: %w", e.seats[i].name, err)
		}
	}
	e.logger.Info("Match started",
		"lead", e.seats[0].name, "follow", e.seats[1].name,
		"trump", string(e.d.Trump().Char()))

	for !deck.MatchOver(e.hands[0], e.hands[1]) {
		if err := e.trick(); err != nil {
			return err
		}
	}

	return e.finish()
}

// trick plays one round: lead card, follow card, resolution, refill.
func (e *engine) trick() error {
	first, err := e.receivePlay(0)
	if err != nil {
		return err
	}
	// The follower sees the lead's card before choosing.
	fwd := protocol.NewMessage(protocol.TypePlay, first.Token())
	if err := protocol.Write(e.seats[1].conn, fwd); err != nil {
		return fmt.Errorf("forward to %s: %w", e.seats[1].name, err)
	}

	second, err := e.receivePlay(1)
	if err != nil {
		return err
	}
	if err := protocol.Write(e.seats[1].conn, protocol.Message{Type: protocol.TypeOK}); err != nil {
		return fmt.Errorf("ack to %s: %w", e.seats[1].name, err)
	}
	fwd = protocol.NewMessage(protocol.TypePlay, second.Token())
	if err := protocol.Write(e.seats[0].conn, fwd); err != nil {
		return fmt.Errorf("forward to %s: %w", e.seats[0].name, err)
	}

	if err := e.tr.trick(e.seats[0].name, first, e.seats[1].name, second); err != nil {
		return err
	}

	win := 1
	if deck.Beats(e.d.Trump(), first, second) {
		win = 0
	}
	e.seats[win].pile = append(e.seats[win].pile, first, second)
	e.logger.Debug("Trick resolved",
		"lead", first.Token(), "follow", second.Token(), "winner", e.seats[win].name)

	// Winner draws first. Each hand replaces the card it played, emptying
	// the slot once the deck runs out.
	played := [2]deck.Card{first, second}
	var tokens [2]string
	for _, i := range []int{win, 1 - win} {
		if c, ok := e.d.Draw(); ok {
			e.hands[i].Replace(&c, played[i])
			tokens[i] = c.Token()
		} else {
			e.hands[i].Replace(nil, played[i])
			tokens[i] = protocol.ExhaustedToken
		}
	}

	if win == 1 {
		e.seats[0], e.seats[1] = e.seats[1], e.seats[0]
		e.hands[0].Swap(e.hands[1])
		tokens[0], tokens[1] = tokens[1], tokens[0]
	}

	if deck.MatchOver(e.hands[0], e.hands[1]) {
		return nil
	}
	for i, leads := range []bool{true, false} {
		dealt := protocol.DealtCard{Leads: leads, Token: tokens[i]}
		msg := protocol.NewMessage(protocol.TypeCard, dealt.String())
		if err := protocol.Write(e.seats[i].conn, msg); err != nil {
			return fmt.Errorf("deal to %s: %w", e.seats[i].name, err)
		}
	}
	return nil
}

// receivePlay reads play attempts from a seat until one holds a card the
// player actually has, refusing malformed or foreign cards with an error
// reply and another receive.
func (e *engine) receivePlay(i int) (deck.Card, error) {
	s := &e.seats[i]
	for {
		m, err := protocol.Read(s.conn)
		if err != nil {
			return deck.Card{}, fmt.Errorf("play from %s: %w", s.name, err)
		}
		if m.Type != protocol.TypePlay {
			return deck.Card{}, fmt.Errorf("play from %s: unexpected message %c", s.name, m.Type)
		}
		c, err := deck.ParseCard(m.Text())
		if err != nil {
			if err := e.refusePlay(s, "card format not valid"); err != nil {
				return deck.Card{}, err
			}
			continue
		}
		if !e.hands[i].Contains(c) {
			if err := e.refusePlay(s, "card not in your hand"); err != nil {
				return deck.Card{}, err
			}
			continue
		}
		return c, nil
	}
}

func (e *engine) refusePlay(s *seat, reason string) error {
	e.logger.Debug("Play refused", "player", s.name, "reason", reason)
	msg := protocol.NewMessage(protocol.TypeErr, reason)
	if err := protocol.Write(s.conn, msg); err != nil {
		return fmt.Errorf("refusal to %s: %w", s.name, err)
	}
	return nil
}

// finish scores the piles, writes the transcript footer and tells both
// players the result.
func (e *engine) finish() error {
	p0 := deck.Points(e.seats[0].pile)
	p1 := deck.Points(e.seats[1].pile)

	result := protocol.GameResult{Winner: protocol.DrawWinner, Points: p0}
	switch {
	case p0 > p1:
		result.Winner = e.seats[0].name
	case p1 > p0:
		result.Winner, result.Points = e.seats[1].name, p1
	}

	if err := e.tr.footer(result.Winner, result.Points); err != nil {
		return err
	}
	e.logger.Info("Match finished", "winner", result.Winner, "points", result.Points)

	for i := range e.seats {
		msg := protocol.NewMessage(protocol.TypeEndGame, result.String())
		if err := protocol.Write(e.seats[i].conn, msg); err != nil {
			return fmt.Errorf("endgame to %s: %w", e.seats[i].name, err)
		}
	}
	return nil
}
