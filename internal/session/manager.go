// internal/session/manager.go
//
// Manager keeps one game session per browser client and binds each to the
// right persistence backend.
//
//   - Guest clients save to their Local blob, signed-in clients to the
//     user's Remote document. The binding is chosen when the session is
//     created or when the client's identity changes.
//   - On sign-in the remote state, if any, replaces the in-memory board.
//     With no remote state the current board is kept and saved remotely on
//     the next change.
//   - On sign-out the session is reset to a fresh state without saving, so
//     the user's remote document is left as it was.
//   - The store is swapped and the board replaced under one session lock.
//   - Sessions idle past a TTL are swept along with the client's local blobs.

package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/auth"
	"github.com/robalobadob/memory/internal/game"
	"github.com/robalobadob/memory/internal/store"
)

type entry struct {
	sess     *game.Session
	userID   string
	lastSeen time.Time
}

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry // keyed by client id
	docs     *store.Documents
	blobs    store.Blobs
	opts     []game.Option
	now      func() time.Time
}

// New builds a Manager. opts are applied to every session it creates.
func New(docs *store.Documents, blobs store.Blobs, opts ...game.Option) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		docs:     docs,
		blobs:    blobs,
		opts:     opts,
		now:      time.Now,
	}
}

// Get returns the session for clientID, bound to userID ("" for guests).
// A session bound to a different identity is switched over first.
func (m *Manager) Get(ctx context.Context, clientID, userID string) *game.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bind(ctx, clientID, userID)
}

// HandleAuthChange follows sign-in and sign-out events from auth.Service.
func (m *Manager) HandleAuthChange(ctx context.Context, c auth.Change) {
	userID := ""
	if c.Kind == auth.SignedIn && c.User != nil {
		userID = c.User.ID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bind(ctx, c.ClientID, userID)
}

// Len reports how many client sessions are held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions not used for longer than idle, together with the
// client's local blobs. Signed-in users keep their remote document.
func (m *Manager) Sweep(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for clientID, e := range m.sessions {
		if !e.lastSeen.Before(cutoff) {
			continue
		}
		delete(m.sessions, clientID)
		if err := m.blobs.Delete(ctx, clientID); err != nil {
			log.Warn().Err(err).Str("client", clientID).Msg("drop local state")
		}
		n++
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ctx, idle); n > 0 {
				log.Debug().Int("evicted", n).Int("left", m.Len()).Msg("idle sessions swept")
			}
		}
	}
}

// bind must be called with mu held.
func (m *Manager) bind(ctx context.Context, clientID, userID string) *game.Session {
	e, ok := m.sessions[clientID]
	if !ok {
		gw := m.gateway(clientID, userID)
		opts := append([]game.Option{
			game.WithSaver(gw),
			game.WithOnComplete(func(r game.Result) {
				log.Info().Str("client", clientID).Int("gridSize", r.GridSize).
					Int("attempts", r.Attempts).Int("score", r.Score).Msg("round completed")
			}),
		}, m.opts...)
		e = &entry{sess: game.NewSession(gw.Load(ctx), opts...), userID: userID}
		m.sessions[clientID] = e
	}
	e.lastSeen = m.now()
	if e.userID == userID {
		return e.sess
	}

	// Load before switching so a pending revert on the old board can only
	// ever save to the old store.
	gw := m.gateway(clientID, userID)
	var next *game.State
	if userID == "" {
		log.Debug().Str("client", clientID).Msg("signed out; resetting session")
		next = game.NewState()
	} else if st := gw.Load(ctx); st != nil {
		log.Debug().Str("client", clientID).Str("user", userID).Msg("loaded remote state")
		next = st
	}
	e.sess.Switch(gw, next)
	e.userID = userID
	return e.sess
}

func (m *Manager) gateway(clientID, userID string) store.Gateway {
	return store.Gateway{Store: store.ForIdentity(userID, clientID, m.docs, m.blobs)}
}
