// Package sessions owns administrator sessions: signing in and out, looking
// up the session behind a cookie token and telling watchers when a session
// ends.
//
// A Store has an explicit lifecycle. Start purges sessions that expired
// while the server was down and begins the expiry sweep; Close stops the
// sweep and drops every watcher.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/common"
	"github.com/dmitrijs2005/councilsite/internal/logging"
	"github.com/dmitrijs2005/councilsite/internal/server/auth"
	"github.com/dmitrijs2005/councilsite/internal/server/config"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
)

// Authenticator verifies administrator credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
}

var now = time.Now

type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       Authenticator
	logger      logging.Logger

	secret        []byte
	ttl           time.Duration
	sweepInterval time.Duration

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]func(*models.Session)

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewStore(db *sql.DB, m repomanager.RepositoryManager, users Authenticator, cfg *config.Config, logger logging.Logger) *Store {
	return &Store{
		db:            db,
		repomanager:   m,
		users:         users,
		logger:        logger,
		secret:        []byte(cfg.SecretKey),
		ttl:           cfg.SessionValidityDuration,
		sweepInterval: cfg.SessionSweepInterval,
		subs:          map[string]map[uint64]func(*models.Session){},
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// SignIn checks the credentials, stores a new session and returns the
// token to put in the session cookie.
func (s *Store) SignIn(ctx context.Context, login, password string) (string, *models.Session, error) {
	user, err := s.users.Authenticate(ctx, login, password)
	if err != nil {
		return "", nil, err
	}

	expiresAt := now().Add(s.ttl).Truncate(time.Second)
	session, err := s.repomanager.Sessions(s.db).Create(ctx, user.ID, expiresAt)
	if err != nil {
		return "", nil, fmt.Errorf("error creating session: %w", err)
	}
	session.UserName = user.UserName

	token, err := auth.GenerateToken(user.ID, session.ID, s.secret, expiresAt)
	if err != nil {
		return "", nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "signed in", "user", user.UserName, "session", session.ID)
	s.notify(session.ID, session)
	return token, session, nil
}

// Current returns the live session behind token. Absent, malformed, expired
// and revoked tokens all yield a nil session and a nil error; an error means
// the session could not be looked up.
func (s *Store) Current(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil, nil
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if session.UserID != claims.UserID || session.Expired(now()) {
		return nil, nil
	}
	return session, nil
}

// SignOut deletes the session behind token and tells its watchers. Signing
// out with an unusable token is a no-op.
func (s *Store) SignOut(ctx context.Context, token string) error {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return nil
	}
	if err := s.repomanager.Sessions(s.db).Delete(ctx, claims.SessionID); err != nil {
		return err
	}
	s.logger.Info(ctx, "signed out", "session", claims.SessionID)
	s.notify(claims.SessionID, nil)
	return nil
}

// Subscribe registers fn for changes of the session behind token. fn gets
// the session, or nil once it has ended. The
// returned function unsubscribes; it is safe to call more than once.
// Tokens that name no session get a subscription that never fires.
func (s *Store) Subscribe(token string, fn func(*models.Session)) (unsubscribe func()) {
	claims, err := auth.ParseToken(token, s.secret)
	if err != nil {
		return func() {}
	}
	sid := claims.SessionID

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.subs[sid] == nil {
		s.subs[sid] = map[uint64]func(*models.Session){}
	}
	s.subs[sid][id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[sid], id)
			if len(s.subs[sid]) == 0 {
				delete(s.subs, sid)
			}
		})
	}
}

// Watchers returns the number of live subscriptions.
func (s *Store) Watchers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.subs {
		n += len(m)
	}
	return n
}

// notify calls the handlers outside the lock so they may unsubscribe.
func (s *Store) notify(sessionID string, session *models.Session) {
	s.mu.Lock()
	handlers := make([]func(*models.Session), 0, len(s.subs[sessionID]))
	for _, fn := range s.subs[sessionID] {
		handlers = append(handlers, fn)
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(session)
	}
}

// Start purges expired sessions and then keeps doing so every sweep
// interval until ctx ends or Close is called.
func (s *Store) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.Sweep(ctx)
		if s.sweepInterval <= 0 {
			close(s.done)
			return
		}
		go s.sweepLoop(ctx)
	})
}

func (s *Store) sweepLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep deletes expired sessions and tells their watchers.
func (s *Store) Sweep(ctx context.Context) {
	ids, err := s.repomanager.Sessions(s.db).DeleteExpired(ctx, now())
	if err != nil {
		s.logger.Error(ctx, "session sweep failed", "error", err.Error())
		return
	}
	if len(ids) > 0 {
		s.logger.Info(ctx, "expired sessions removed", "count", len(ids))
	}
	for _, id := range ids {
		s.notify(id, nil)
	}
}

// Close stops the sweeper and drops all watchers.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		started := true
		s.startOnce.Do(func() { started = false })
		if started {
			<-s.done
		}
		s.mu.Lock()
		s.subs = map[string]map[uint64]func(*models.Session){}
		s.mu.Unlock()
	})
}
