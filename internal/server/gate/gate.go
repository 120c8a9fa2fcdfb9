// Package gate decides whether a visitor may see the admin area.
//
// A Gate watches one session token. It subscribes to session changes once,
// fetches the first snapshot in the background, and reports Pending until
// either arrives. Every notification re-evaluates the decision and the
// latest one always wins: a snapshot that lands after a notification is
// dropped as stale. A failed fetch counts as Unauthorized.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/server/models"
)

// Authorization is the gate's decision.
type Authorization int

const (
	Pending Authorization = iota
	Authorized
	Unauthorized
)

func (a Authorization) String() string {
	switch a {
	case Pending:
		return "pending"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	}
	return fmt.Sprintf("Authorization(%d)", int(a))
}

// ErrSessionFetch wraps a failure to read the first session snapshot.
var ErrSessionFetch = errors.New("session fetch failed")

// Source is the auth client a gate reads from.
type Source interface {
	Current(ctx context.Context, token string) (*models.Session, error)
	Subscribe(token string, fn func(*models.Session)) (unsubscribe func())
}

var now = time.Now

// Gate holds the latest authorization for one token.
type Gate struct {
	mu      sync.Mutex
	state   Authorization
	session *models.Session
	// seq counts notifications; a fetch started at seq 0 is stale once it
	// is not 0 any more.
	seq     uint64
	err     error
	closed  bool
	settled bool

	ready       chan struct{}
	updates     chan Authorization
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

// Open starts watching token. The gate is Pending until the first snapshot
// or notification arrives. Callers must Close it.
func Open(ctx context.Context, src Source, token string) *Gate {
	g := &Gate{
		state:   Pending,
		ready:   make(chan struct{}),
		updates: make(chan Authorization, 1),
		done:    make(chan struct{}),
	}

	g.unsubscribe = src.Subscribe(token, g.notify)

	go func() {
		s, err := src.Current(ctx, token)
		g.applySnapshot(s, err)
	}()

	return g
}

// Authorization returns the current decision. An authorized session whose
// expiry has passed reads as Unauthorized even before a notification says
// so.
func (g *Gate) Authorization() Authorization {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Authorized && g.session.Expired(now()) {
		return Unauthorized
	}
	return g.state
}

// Session returns the session behind an Authorized decision, or nil.
func (g *Gate) Session() *models.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authorized || g.session.Expired(now()) {
		return nil
	}
	return g.session
}

// Err returns the fetch error that made the gate fail closed, if any.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Updates delivers decisions as they change. It holds at most one value;
// a newer decision replaces one that was not read yet.
func (g *Gate) Updates() <-chan Authorization { return g.updates }

// Done is closed by Close.
func (g *Gate) Done() <-chan struct{} { return g.done }

// Wait blocks until the gate leaves Pending or ctx ends, and returns the
// decision at that point.
func (g *Gate) Wait(ctx context.Context) (Authorization, error) {
	select {
	case <-g.ready:
		return g.Authorization(), nil
	case <-ctx.Done():
		return g.Authorization(), ctx.Err()
	}
}

// Close unsubscribes. Later notifications and snapshots are ignored.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		g.mu.Unlock()
		g.unsubscribe()
		close(g.done)
	})
}

func (g *Gate) notify(s *models.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.seq++
	g.set(s, nil)
}

func (g *Gate) applySnapshot(s *models.Session, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.seq != 0 {
		return
	}
	if err != nil {
		g.set(nil, fmt.Errorf("%w: %v", ErrSessionFetch, err))
		return
	}
	g.set(s, nil)
}

// set must be called with g.mu held.
func (g *Gate) set(s *models.Session, err error) {
	next := evaluate(s)
	g.session = s
	g.err = err
	changed := next != g.state
	g.state = next

	if !g.settled {
		g.settled = true
		close(g.ready)
	}
	if changed {
		select {
		case <-g.updates:
		default:
		}
		g.updates <- next
	}
}

func evaluate(s *models.Session) Authorization {
	if s == nil || s.UserID == "" || s.Expired(now()) {
		return Unauthorized
	}
	return Authorized
}
