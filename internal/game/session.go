// internal/game/session.go
//
// Session owns one player's State and serializes every mutation on it.
// Responsibilities:
//   - Run the transition functions from engine.go under a mutex.
//   - Notify a listener and save the full state after every change.
//   - Schedule the delayed revert of an unmatched pair.
//   - Fire the completion callback when a round ends.

package game

import (
	"context"
	"sync"
	"time"
)

// Saver persists the full state blob. Implementations handle their own
// errors; the session never sees them.
type Saver interface {
	Save(ctx context.Context, st *State)
}

// AfterFunc runs f once after d.
type AfterFunc func(d time.Duration, f func())

// Option configures a Session.
type Option func(*Session)

// WithSaver sets where the session saves after each change.
func WithSaver(sv Saver) Option { return func(s *Session) { s.saver = sv } }

// WithNotifier sets a callback invoked with a snapshot after each change.
func WithNotifier(fn func(*State)) Option { return func(s *Session) { s.notify = fn } }

// WithOnComplete sets a callback invoked when a round is completed.
func WithOnComplete(fn func(Result)) Option { return func(s *Session) { s.onComplete = fn } }

// WithAfterFunc replaces the timer used for the mismatch revert.
func WithAfterFunc(fn AfterFunc) Option { return func(s *Session) { s.after = fn } }

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// Session is safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	st         *State
	saver      Saver
	notify     func(*State)
	onComplete func(Result)
	after      AfterFunc
	now        func() time.Time
}

// NewSession wraps st. A nil st starts from NewState(). A restored board left
// mid-mismatch is settled first, since its revert died with the old session.
func NewSession(st *State, opts ...Option) *Session {
	if st == nil {
		st = NewState()
	}
	Settle(st)
	s := &Session{
		st:    st,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start deals a new round. On error the current board is left as it was.
func (s *Session) Start(ctx context.Context, gridSize int, cards []Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := NewRound(s.st, gridSize, cards); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

// Click applies a click and returns the outcome plus a snapshot of the
// resulting state. Rejected clicks neither notify nor save.
func (s *Session) Click(ctx context.Context, index int) (Outcome, *State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := Click(s.st, index, s.now())
	if err != nil || out.Rejected {
		return out, s.st.Clone(), err
	}
	s.changed(ctx)

	if out.Pending != nil {
		tok := *out.Pending
		s.after(MismatchDelay, func() { s.revert(tok) })
	}
	if out.Completed && s.onComplete != nil {
		s.onComplete(*out.Result)
	}
	return out, s.st.Clone(), nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Clone()
}

// Switch moves the session to another store in one locked step. A non-nil
// st replaces the board (settled like a restored one); nil keeps the current
// board. Nothing is saved, so neither store is written by the switch itself.
func (s *Session) Switch(sv Saver, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver = sv
	if st != nil {
		s.st = st.Clone()
		Settle(s.st)
	}
	if s.notify != nil {
		s.notify(s.st.Clone())
	}
}

// SetResults replaces the result history and saves.
func (s *Session) SetResults(ctx context.Context, rs []Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.Results = append([]Result{}, rs...)
	s.changed(ctx)
}

func (s *Session) revert(tok Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if Revert(s.st, tok) {
		s.changed(context.Background())
	}
}

// changed must be called with mu held.
func (s *Session) changed(ctx context.Context) {
	if s.notify != nil {
		s.notify(s.st.Clone())
	}
	if s.saver != nil {
		s.saver.Save(ctx, s.st.Clone())
	}
}
