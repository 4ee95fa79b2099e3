package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Limits on credential fields, matching the registry file format.
const (
	MaxNameLen     = 20
	MaxPasswordLen = 8
)

// ExhaustedToken is sent in a card deal when the deck had no card left.
const ExhaustedToken = "NN"

// DrawWinner is the winner field of an endgame payload when the match tied.
const DrawWinner = "draw"

// Credentials is the name:password payload carried by the register, cancel,
// disconnect and connect requests.
type Credentials struct {
	Name     string
	Password string
}

// ParseCredentials splits and validates a name:password payload.
func ParseCredentials(s string) (Credentials, error) {
	name, password, ok := strings.Cut(s, ":")
	if !ok {
		return Credentials{}, fmt.Errorf("credentials %q: missing separator", s)
	}
	if name == "" || len(name) > MaxNameLen {
		return Credentials{}, fmt.Errorf("credentials: name must be 1..%d characters", MaxNameLen)
	}
	if password == "" || len(password) > MaxPasswordLen || strings.Contains(password, ":") {
		return Credentials{}, fmt.Errorf("credentials: password must be 1..%d characters", MaxPasswordLen)
	}
	return Credentials{Name: name, Password: password}, nil
}

// String renders credentials in wire form.
func (c Credentials) String() string {
	return c.Name + ":" + c.Password
}

// StartGame is the payload of a start-game message:
// <trump>:<c1c2c3>:<opponent>, the hand as three concatenated card tokens.
type StartGame struct {
	Trump    byte
	Hand     string
	Opponent string
}

// String renders the start-game payload in wire form.
func (s StartGame) String() string {
	return fmt.Sprintf("%c:%s:%s", s.Trump, s.Hand, s.Opponent)
}

// ParseStartGame parses a start-game payload.
func ParseStartGame(s string) (StartGame, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || len(parts[0]) != 1 || len(parts[1]) != 6 || parts[2] == "" {
		return StartGame{}, fmt.Errorf("malformed start-game payload %q", s)
	}
	return StartGame{Trump: parts[0][0], Hand: parts[1], Opponent: parts[2]}, nil
}

// DealtCard is the payload of a new-card message: t:<tok> to the player who
// leads the next trick, a:<tok> to the other. Token is ExhaustedToken when
// the deck had no card left.
type DealtCard struct {
	Leads bool
	Token string
}

// String renders the dealt-card payload in wire form.
func (d DealtCard) String() string {
	if d.Leads {
		return "t:" + d.Token
	}
	return "a:" + d.Token
}

// ParseDealtCard parses a new-card payload.
func ParseDealtCard(s string) (DealtCard, error) {
	role, tok, ok := strings.Cut(s, ":")
	if !ok || len(tok) != 2 || (role != "t" && role != "a") {
		return DealtCard{}, fmt.Errorf("malformed card payload %q", s)
	}
	return DealtCard{Leads: role == "t", Token: tok}, nil
}

// GameResult is the payload of an endgame message: <winner>:<points>,
// winner DrawWinner on a tie.
type GameResult struct {
	Winner string
	Points int
}

// String renders the endgame payload in wire form.
func (g GameResult) String() string {
	return fmt.Sprintf("%s:%d", g.Winner, g.Points)
}

// ParseGameResult parses an endgame payload.
func ParseGameResult(s string) (GameResult, error) {
	winner, pts, ok := strings.Cut(s, ":")
	if !ok || winner == "" {
		return GameResult{}, fmt.Errorf("malformed endgame payload %q", s)
	}
	points, err := strconv.Atoi(pts)
	if err != nil {
		return GameResult{}, fmt.Errorf("malformed endgame payload %q: %w", s, err)
	}
	return GameResult{Winner: winner, Points: points}, nil
}
