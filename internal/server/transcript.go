package server

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emarcon/briscola/internal/deck"
)

// transcript records one match to a BRS-<serial>.log file: a header with the
// players and trump, one line per trick, and a footer with the result.
type transcript struct {
	f *os.File
	w *bufio.Writer
}

func openTranscript(dir string, serial int) (*transcript, error) {
	name := filepath.Join(dir, fmt.Sprintf("BRS-%d.log", serial))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", name, err)
	}
	return &transcript{f: f, w: bufio.NewWriter(f)}, nil
}

func (t *transcript) header(p1, p2 string, trump deck.Suit) error {
	_, err := fmt.Fprintf(t.w, "%s:%s\nBRISCOLA:%c\n", p1, p2, trump.Char())
	return err
}

func (t *transcript) trick(lead string, first deck.Card, follow string, second deck.Card) error {
	_, err := fmt.Fprintf(t.w, "%s:%s#%s:%s\n", lead, first.Token(), follow, second.Token())
	return err
}

func (t *transcript) footer(winner string, points int) error {
	_, err := fmt.Fprintf(t.w, "WINS:%s\nPOINTS:%d\n", winner, points)
	return err
}

// Close flushes and closes the underlying file.
func (t *transcript) Close() error {
	if err := t.w.Flush(); err != nil {
		t.f.Close()
		return err
	}
	return t.f.Close()
}
