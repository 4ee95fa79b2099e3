package client

import (
	"fmt"
	"net"
	"strings"

	"github.com/emarcon/briscola/internal/protocol"
)

// playMatch runs one match from the start-game message to the result. leads
// says whether this player opens the first trick (the challenger does).
func (c *Client) playMatch(conn net.Conn, name string, leads bool) error {
	m, err := protocol.Read(conn)
	if err != nil {
		return fmt.Errorf("waiting for match start: %w", err)
	}
	if m.Type != protocol.TypeStartGame {
		fmt.Fprintln(c.out, explainReply(m))
		return fmt.Errorf("expected start of match, got %c", m.Type)
	}
	start, err := protocol.ParseStartGame(m.Text())
	if err != nil {
		return err
	}
	hand := []string{start.Hand[0:2], start.Hand[2:4], start.Hand[4:6]}
	fmt.Fprintln(c.out, renderTable(start.Trump, start.Opponent, hand))

	for {
		if leads {
			hand, err = c.leadTrick(conn, hand)
		} else {
			hand, err = c.followTrick(conn, hand)
		}
		if err != nil {
			return err
		}

		m, err := protocol.Read(conn)
		if err != nil {
			return fmt.Errorf("after trick: %w", err)
		}
		switch m.Type {
		case protocol.TypeCard:
			dealt, err := protocol.ParseDealtCard(m.Text())
			if err != nil {
				return err
			}
			leads = dealt.Leads
			if dealt.Token != protocol.ExhaustedToken {
				hand = append(hand, dealt.Token)
				fmt.Fprintln(c.out, "You draw "+handStyle.Render(dealt.Token))
			}
			fmt.Fprintln(c.out, "Your hand: "+handStyle.Render(strings.Join(hand, " ")))
		case protocol.TypeEndGame:
			result, err := protocol.ParseGameResult(m.Text())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, renderResult(name, result))
			return nil
		default:
			return fmt.Errorf("unexpected message %c during match", m.Type)
		}
	}
}

// leadTrick plays first: prompt until the server accepts, then show the
// opponent's answer. Acceptance is implied by the opponent's card arriving
// instead of an error.
func (c *Client) leadTrick(conn net.Conn, hand []string) ([]string, error) {
	for {
		fmt.Fprint(c.out, "Your turn, play a card: ")
		tok := strings.ToUpper(c.prompt())
		if err := protocol.Write(conn, protocol.NewMessage(protocol.TypePlay, tok)); err != nil {
			return hand, err
		}
		m, err := protocol.Read(conn)
		if err != nil {
			return hand, fmt.Errorf("awaiting opponent: %w", err)
		}
		switch m.Type {
		case protocol.TypeErr:
			fmt.Fprintln(c.out, errorStyle.Render(m.Text()))
		case protocol.TypePlay:
			fmt.Fprintln(c.out, "Opponent plays "+handStyle.Render(m.Text()))
			return removeCard(hand, tok), nil
		default:
			return hand, fmt.Errorf("unexpected message %c during trick", m.Type)
		}
	}
}

// followTrick sees the opponent's card first, then prompts until the server
// accepts with an acknowledgement.
func (c *Client) followTrick(conn net.Conn, hand []string) ([]string, error) {
	m, err := protocol.Read(conn)
	if err != nil {
		return hand, fmt.Errorf("awaiting opponent: %w", err)
	}
	if m.Type != protocol.TypePlay {
		return hand, fmt.Errorf("unexpected message %c during trick", m.Type)
	}
	fmt.Fprintln(c.out, "Opponent plays "+handStyle.Render(m.Text()))

	for {
		fmt.Fprint(c.out, "Your turn, play a card: ")
		tok := strings.ToUpper(c.prompt())
		if err := protocol.Write(conn, protocol.NewMessage(protocol.TypePlay, tok)); err != nil {
			return hand, err
		}
		m, err := protocol.Read(conn)
		if err != nil {
			return hand, fmt.Errorf("awaiting acceptance: %w", err)
		}
		switch m.Type {
		case protocol.TypeErr:
			fmt.Fprintln(c.out, errorStyle.Render(m.Text()))
		case protocol.TypeOK:
			return removeCard(hand, tok), nil
		default:
			return hand, fmt.Errorf("unexpected message %c during trick", m.Type)
		}
	}
}

// removeCard drops the first occurrence of tok from the hand.
func removeCard(hand []string, tok string) []string {
	for i, h := range hand {
		if h == tok {
			return append(hand[:i], hand[i+1:]...)
		}
	}
	return hand
}
