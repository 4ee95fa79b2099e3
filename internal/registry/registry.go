// Package registry maintains the server's set of registered users, ordered
// lexicographically by name. Each user carries a connection status and the
// handle of its active session. Every operation is serialized by a single
// mutex; critical sections only touch memory and copy out primitive values.
package registry

import (
	"errors"
	"strings"
	"sync"
)

// Status is a user's connection state.
type Status int

const (
	Disconnected Status = iota
	Waiting
	Playing
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Waiting:
		return "waiting"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// NoChannel marks a user with no live session.
const NoChannel = -1

var (
	// ErrDuplicateUser indicates a registration under a name already taken.
	ErrDuplicateUser = errors.New("registry: user already registered")

	// ErrNoUser indicates the named user is not registered.
	ErrNoUser = errors.New("registry: no user with this name")

	// ErrWrongPassword indicates the supplied password does not match.
	ErrWrongPassword = errors.New("registry: wrong password")
)

// User is a registered identity.
type User struct {
	Name     string
	Password string
}

// node is one entry of the ordered search tree. The tree is unbalanced;
// ordering is strcmp-style on the user name.
type node struct {
	user    User
	status  Status
	channel int
	left    *node
	right   *node
}

// Registry is the mutex-guarded ordered user set.
type Registry struct {
	mu   sync.Mutex
	root *node
	size int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Add inserts a new user with status Disconnected and no channel.
// Returns ErrDuplicateUser if the name is already present.
func (r *Registry) Add(u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(u)
}

// add inserts without taking the lock; Load shares it.
func (r *Registry) add(u User) error {
	link := &r.root
	for *link != nil {
		switch cmp := strings.Compare(u.Name, (*link).user.Name); {
		case cmp < 0:
			link = &(*link).left
		case cmp > 0:
			link = &(*link).right
		default:
			return ErrDuplicateUser
		}
	}
	*link = &node{user: u, status: Disconnected, channel: NoChannel}
	r.size++
	return nil
}

// Remove deletes the named user if the password matches.
func (r *Registry) Remove(name, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link := &r.root
	for *link != nil && (*link).user.Name != name {
		if name < (*link).user.Name {
			link = &(*link).left
		} else {
			link = &(*link).right
		}
	}
	n := *link
	if n == nil {
		return ErrNoUser
	}
	if n.user.Password != password {
		return ErrWrongPassword
	}

	switch {
	case n.left == nil:
		*link = n.right
	case n.right == nil:
		*link = n.left
	default:
		// Replace with the maximum of the left subtree, which keeps the
		// search ordering intact.
		maxLink := &n.left
		for (*maxLink).right != nil {
			maxLink = &(*maxLink).right
		}
		repl := *maxLink
		*maxLink = repl.left
		repl.left = n.left
		repl.right = n.right
		*link = repl
	}
	r.size--
	return nil
}

// lookup finds the node for a name. Callers must hold the lock.
func (r *Registry) lookup(name string) *node {
	n := r.root
	for n != nil {
		switch cmp := strings.Compare(name, n.user.Name); {
		case cmp < 0:
			n = n.left
		case cmp > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// CheckPassword reports whether the user exists and the password matches.
func (r *Registry) CheckPassword(name, password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	return n != nil && n.user.Password == password
}

// Exists reports whether the named user is registered.
func (r *Registry) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(name) != nil
}

// SetStatus sets the user's status. Returns false if the user is missing.
func (r *Registry) SetStatus(name string, s Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	if n == nil {
		return false
	}
	n.status = s
	return true
}

// SetChannel sets the user's session handle. Returns false if the user is
// missing.
func (r *Registry) SetChannel(name string, ch int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	if n == nil {
		return false
	}
	n.channel = ch
	return true
}

// Status returns the user's status; the second return is false if the user
// is not registered.
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	if n == nil {
		return Disconnected, false
	}
	return n.status, true
}

// Channel returns the user's session handle; the second return is false if
// the user is not registered.
func (r *Registry) Channel(name string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	if n == nil {
		return NoChannel, false
	}
	return n.channel, true
}

// Disconnect resets a user to Disconnected with no channel in one critical
// section. Returns false if the user is missing.
func (r *Registry) Disconnect(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.lookup(name)
	if n == nil {
		return false
	}
	n.status = Disconnected
	n.channel = NoChannel
	return true
}

// ListByStatus returns the names of users with the given status, ascending,
// joined by ':'. The second return is false when no user matches.
func (r *Registry) ListByStatus(s Status) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	r.root.inorder(func(n *node) {
		if n.status == s {
			names = append(names, n.user.Name)
		}
	})
	if len(names) == 0 {
		return "", false
	}
	return strings.Join(names, ":"), true
}

// inorder visits the subtree in ascending name order.
func (n *node) inorder(visit func(*node)) {
	if n == nil {
		return
	}
	n.left.inorder(visit)
	visit(n)
	n.right.inorder(visit)
}
