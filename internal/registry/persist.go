package registry

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Load reads users from r, one "name:password\n" line per user, and inserts
// them into the registry. Every line must be newline terminated, including
// the last. Returns the number of users loaded.
func (r *Registry) Load(src io.Reader) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	br := bufio.NewReader(src)
	loaded := 0
	for {
		line, err := br.ReadString('\n')
		if err == io.EOF {
			if line != "" {
				return loaded, fmt.Errorf("registry: truncated record %q", line)
			}
			return loaded, nil
		}
		if err != nil {
			return loaded, err
		}
		name, password, ok := strings.Cut(strings.TrimSuffix(line, "\n"), ":")
		if !ok || name == "" || password == "" {
			return loaded, fmt.Errorf("registry: malformed record %q", line)
		}
		if err := r.add(User{Name: name, Password: password}); err != nil {
			return loaded, err
		}
		loaded++
	}
}

// Store writes every user to w as "name:password\n" lines in ascending name
// order, the format Load reads back. Returns the number of users written.
func (r *Registry) Store(w io.Writer) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bw := bufio.NewWriter(w)
	stored := 0
	var werr error
	r.root.inorder(func(n *node) {
		if werr != nil {
			return
		}
		if _, err := fmt.Fprintf(bw, "%s:%s\n", n.user.Name, n.user.Password); err != nil {
			werr = err
			return
		}
		stored++
	})
	if werr != nil {
		return stored, werr
	}
	return stored, bw.Flush()
}

// Dump writes a human-readable listing of every user with status and
// channel, in ascending name order. Debug aid only; not read back.
func (r *Registry) Dump(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bw := bufio.NewWriter(w)
	var werr error
	r.root.inorder(func(n *node) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(bw, "%s status=%s channel=%d\n", n.user.Name, n.status, n.channel)
	})
	if werr != nil {
		return werr
	}
	return bw.Flush()
}
