package server

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emarcon/briscola/internal/deck"
	"github.com/emarcon/briscola/internal/protocol"
	"github.com/emarcon/briscola/internal/randutil"
)

// scriptedPlayer drives one side of a match for tests: it always plays the
// first card in its hand, tracks draws, and returns the endgame result.
type scriptedPlayer struct {
	t     *testing.T
	conn  net.Conn
	name  string
	hand  []string
	leads bool

	// misplay, when set, sends one malformed and one foreign card before
	// the first real play to exercise the refusal path.
	misplay bool
}

func (p *scriptedPlayer) read() protocol.Message {
	m, err := protocol.Read(p.conn)
	require.NoError(p.t, err, "player %s", p.name)
	return m
}

func (p *scriptedPlayer) send(t byte, payload string) {
	require.NoError(p.t, protocol.Write(p.conn, protocol.NewMessage(t, payload)), "player %s", p.name)
}

func (p *scriptedPlayer) start() protocol.StartGame {
	m := p.read()
	require.Equal(p.t, protocol.TypeStartGame, m.Type, "player %s", p.name)
	sg, err := protocol.ParseStartGame(m.Text())
	require.NoError(p.t, err)
	require.Len(p.t, sg.Hand, 6)
	p.hand = []string{sg.Hand[0:2], sg.Hand[2:4], sg.Hand[4:6]}
	return sg
}

// foreignCard returns a valid token the player does not hold.
func (p *scriptedPlayer) foreignCard() string {
	for _, v := range "A234567JQK" {
		for _, s := range "CQFP" {
			tok := string(v) + string(s)
			held := false
			for _, h := range p.hand {
				if h == tok {
					held = true
					break
				}
			}
			if !held {
				return tok
			}
		}
	}
	p.t.Fatal("no foreign card available")
	return ""
}

func (p *scriptedPlayer) playFirst() string {
	tok := p.hand[0]
	p.hand = p.hand[1:]
	p.send(protocol.TypePlay, tok)
	return tok
}

// play runs the whole match and returns the result payload.
func (p *scriptedPlayer) play() protocol.GameResult {
	p.start()
	for {
		if p.leads {
			if p.misplay {
				p.send(protocol.TypePlay, "XX")
				m := p.read()
				require.Equal(p.t, protocol.TypeErr, m.Type)
				assert.Equal(p.t, "card format not valid", m.Text())

				p.send(protocol.TypePlay, p.foreignCard())
				m = p.read()
				require.Equal(p.t, protocol.TypeErr, m.Type)
				assert.Equal(p.t, "card not in your hand", m.Text())
				p.misplay = false
			}
			p.playFirst()
			m := p.read() // opponent's card
			require.Equal(p.t, protocol.TypePlay, m.Type, "player %s", p.name)
		} else {
			m := p.read() // leader's card
			require.Equal(p.t, protocol.TypePlay, m.Type, "player %s", p.name)
			p.playFirst()
			m = p.read()
			require.Equal(p.t, protocol.TypeOK, m.Type, "player %s", p.name)
		}

		m := p.read()
		switch m.Type {
		case protocol.TypeCard:
			dealt, err := protocol.ParseDealtCard(m.Text())
			require.NoError(p.t, err)
			p.leads = dealt.Leads
			if dealt.Token != protocol.ExhaustedToken {
				p.hand = append(p.hand, dealt.Token)
			}
		case protocol.TypeEndGame:
			require.Empty(p.t, p.hand, "player %s", p.name)
			result, err := protocol.ParseGameResult(m.Text())
			require.NoError(p.t, err)
			return result
		default:
			p.t.Fatalf("player %s: unexpected message %c", p.name, m.Type)
		}
	}
}

func runEngineMatch(t *testing.T, seed int64, misplay bool) (protocol.GameResult, protocol.GameResult, string) {
	t.Helper()
	dir := t.TempDir()
	tr, err := openTranscript(dir, 1)
	require.NoError(t, err)

	aliceSrv, aliceCli := net.Pipe()
	bobSrv, bobCli := net.Pipe()
	defer aliceCli.Close()
	defer bobCli.Close()

	e := newEngine(1, randutil.New(seed), tr, log.New(io.Discard),
		"alice", aliceSrv, "bob", bobSrv)

	errc := make(chan error, 1)
	go func() {
		err := e.run()
		tr.Close()
		aliceSrv.Close()
		bobSrv.Close()
		errc <- err
	}()

	resc := make(chan protocol.GameResult, 1)
	go func() {
		p := &scriptedPlayer{t: t, conn: bobCli, name: "bob", leads: false}
		resc <- p.play()
	}()

	alice := &scriptedPlayer{t: t, conn: aliceCli, name: "alice", leads: true, misplay: misplay}
	aliceResult := alice.play()
	bobResult := <-resc
	require.NoError(t, <-errc)

	data, err := os.ReadFile(filepath.Join(dir, "BRS-1.log"))
	require.NoError(t, err)
	return aliceResult, bobResult, string(data)
}

func TestEngineFullMatch(t *testing.T) {
	aliceResult, bobResult, transcript := runEngineMatch(t, 0, false)

	assert.Equal(t, aliceResult, bobResult)
	if aliceResult.Winner == protocol.DrawWinner {
		assert.Equal(t, 60, aliceResult.Points)
	} else {
		assert.Contains(t, []string{"alice", "bob"}, aliceResult.Winner)
		assert.Greater(t, aliceResult.Points, 60)
		assert.LessOrEqual(t, aliceResult.Points, 120)
	}

	lines := strings.Split(strings.TrimSuffix(transcript, "\n"), "\n")
	// Header (2 lines), 20 tricks, footer (2 lines).
	require.Len(t, lines, 24)
	assert.Equal(t, "alice:bob", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "BRISCOLA:"))
	for _, line := range lines[2:22] {
		assert.Contains(t, line, "#")
	}
	assert.Equal(t, "WINS:"+aliceResult.Winner, lines[22])
	assert.Equal(t, "POINTS:"+strconv.Itoa(aliceResult.Points), lines[23])
}

func TestEngineRejectsInvalidPlays(t *testing.T) {
	aliceResult, bobResult, _ := runEngineMatch(t, 7, true)
	assert.Equal(t, aliceResult, bobResult)
}

func TestEngineDeterministicWithSeed(t *testing.T) {
	first, _, firstLog := runEngineMatch(t, 42, false)
	second, _, secondLog := runEngineMatch(t, 42, false)
	assert.Equal(t, first, second)
	assert.Equal(t, firstLog, secondLog)
}

func TestEngineDrawResult(t *testing.T) {
	dir := t.TempDir()
	tr, err := openTranscript(dir, 1)
	require.NoError(t, err)

	aliceSrv, aliceCli := net.Pipe()
	bobSrv, bobCli := net.Pipe()
	defer aliceCli.Close()
	defer bobCli.Close()

	// Two piles worth exactly 60 points each.
	pile := func(suits ...deck.Suit) []deck.Card {
		var cards []deck.Card
		for _, s := range suits {
			cards = append(cards,
				deck.Card{Value: deck.Ace, Suit: s},
				deck.Card{Value: deck.Three, Suit: s},
				deck.Card{Value: deck.King, Suit: s},
				deck.Card{Value: deck.Queen, Suit: s},
				deck.Card{Value: deck.Jack, Suit: s})
		}
		return cards
	}
	e := &engine{
		id:     1,
		logger: log.New(io.Discard),
		tr:     tr,
		seats: [2]seat{
			{name: "alice", conn: aliceSrv, pile: pile(deck.Hearts, deck.Clubs)},
			{name: "bob", conn: bobSrv, pile: pile(deck.Diamonds, deck.Spades)},
		},
		hands: [2]*deck.Hand{{}, {}},
	}

	read := func(conn net.Conn) protocol.GameResult {
		m, err := protocol.Read(conn)
		require.NoError(t, err)
		require.Equal(t, protocol.TypeEndGame, m.Type)
		res, err := protocol.ParseGameResult(m.Text())
		require.NoError(t, err)
		return res
	}

	resc := make(chan protocol.GameResult, 1)
	go func() { resc <- read(bobCli) }()
	errc := make(chan error, 1)
	go func() { errc <- e.finish() }()

	aliceResult := read(aliceCli)
	require.NoError(t, <-errc)
	assert.Equal(t, protocol.GameResult{Winner: protocol.DrawWinner, Points: 60}, aliceResult)
	assert.Equal(t, aliceResult, <-resc)

	require.NoError(t, tr.Close())
	data, err := os.ReadFile(filepath.Join(dir, "BRS-1.log"))
	require.NoError(t, err)
	assert.Equal(t, "WINS:draw\nPOINTS:60\n", string(data))
}

func TestEngineAbortsOnVanishedPlayer(t *testing.T) {
	dir := t.TempDir()
	tr, err := openTranscript(dir, 1)
	require.NoError(t, err)
	defer tr.Close()

	aliceSrv, aliceCli := net.Pipe()
	bobSrv, bobCli := net.Pipe()
	defer bobCli.Close()

	e := newEngine(1, randutil.New(0), tr, log.New(io.Discard),
		"alice", aliceSrv, "bob", bobSrv)

	errc := make(chan error, 1)
	go func() { errc <- e.run() }()

	go func() {
		p := &scriptedPlayer{t: t, conn: bobCli, name: "bob"}
		p.start()
	}()

	alice := &scriptedPlayer{t: t, conn: aliceCli, name: "alice"}
	alice.start()
	require.NoError(t, aliceCli.Close())

	err = <-errc
	assert.ErrorIs(t, err, protocol.ErrPeerClosed)
}
