package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSaver struct {
	mu    sync.Mutex
	saved []*State
}

func (r *recordingSaver) Save(_ context.Context, st *State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, st)
}

func (r *recordingSaver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// manualTimer collects scheduled callbacks so tests decide when they fire.
type manualTimer struct {
	delays []time.Duration
	funcs  []func()
}

func (m *manualTimer) after(d time.Duration, f func()) {
	m.delays = append(m.delays, d)
	m.funcs = append(m.funcs, f)
}

func (m *manualTimer) fireAll() {
	fs := m.funcs
	m.funcs = nil
	for _, f := range fs {
		f()
	}
}

func sixteen() []Card {
	return deckOf("a", "b", "a", "b", "c", "c", "d", "d", "e", "e", "f", "f", "g", "g", "h", "h")
}

func newTestSession(t *testing.T) (*Session, *recordingSaver, *manualTimer, *int) {
	t.Helper()
	saver := &recordingSaver{}
	timer := &manualTimer{}
	notified := 0
	s := NewSession(nil,
		WithSaver(saver),
		WithAfterFunc(timer.after),
		WithNotifier(func(*State) { notified++ }),
		WithClock(func() time.Time { return testNow }),
	)
	return s, saver, timer, &notified
}

func TestSession_StartNotifiesAndSaves(t *testing.T) {
	s, saver, _, notified := newTestSession(t)

	require.NoError(t, s.Start(context.Background(), 16, sixteen()))
	assert.Equal(t, 1, *notified)
	assert.Equal(t, 1, saver.count())

	snap := s.Snapshot()
	assert.Len(t, snap.Cards, 16)
	assert.False(t, snap.Init)
}

func TestSession_StartFailureKeepsBoard(t *testing.T) {
	s, saver, _, notified := newTestSession(t)
	require.NoError(t, s.Start(context.Background(), 16, sixteen()))
	before := s.Snapshot()

	err := s.Start(context.Background(), 24, sixteen())
	require.ErrorIs(t, err, ErrDeckSize)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, *notified)
	assert.Equal(t, 1, saver.count())
}

func TestSession_RejectedClickIsSilent(t *testing.T) {
	s, saver, timer, notified := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, 16, sixteen()))

	_, _, err := s.Click(ctx, 0)
	require.NoError(t, err)
	_, _, err = s.Click(ctx, 1)
	require.NoError(t, err)
	n, saves := *notified, saver.count()

	out, _, err := s.Click(ctx, 2)
	require.NoError(t, err)
	assert.True(t, out.Rejected)
	assert.Equal(t, n, *notified)
	assert.Equal(t, saves, saver.count())
	assert.Len(t, timer.funcs, 1)
}

func TestSession_MismatchRevertsAfterDelay(t *testing.T) {
	s, saver, timer, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, 16, sixteen()))

	_, _, _ = s.Click(ctx, 0)
	out, snap, err := s.Click(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, out.Pending)
	assert.True(t, snap.LockBoard)
	assert.Equal(t, 1, snap.Attempts)
	require.Len(t, timer.delays, 1)
	assert.Equal(t, time.Second, timer.delays[0])

	saves := saver.count()
	timer.fireAll()

	snap = s.Snapshot()
	assert.False(t, snap.Cards[0].Exposed)
	assert.False(t, snap.Cards[1].Exposed)
	assert.Nil(t, snap.FirstCard)
	assert.Nil(t, snap.SecondCard)
	assert.False(t, snap.LockBoard)
	assert.Equal(t, saves+1, saver.count())
}

func TestSession_StaleRevertIgnoredAfterNewRound(t *testing.T) {
	s, saver, timer, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, 16, sixteen()))
	_, _, _ = s.Click(ctx, 0)
	_, _, _ = s.Click(ctx, 1)

	require.NoError(t, s.Start(ctx, 16, sixteen()))
	_, _, _ = s.Click(ctx, 4)
	before := s.Snapshot()
	saves := saver.count()

	timer.fireAll()
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, saves, saver.count())
}

func TestSession_CompletionCallback(t *testing.T) {
	var got []Result
	s := NewSession(nil,
		WithOnComplete(func(r Result) { got = append(got, r) }),
		WithClock(func() time.Time { return testNow }),
	)
	ctx := context.Background()
	deck := deckOf("a", "a", "b", "b", "c", "c", "d", "d", "e", "e", "f", "f", "g", "g", "h", "h")
	require.NoError(t, s.Start(ctx, 16, deck))

	var last Outcome
	for i := 0; i < 16; i += 2 {
		_, _, err := s.Click(ctx, i)
		require.NoError(t, err)
		last, _, err = s.Click(ctx, i+1)
		require.NoError(t, err)
	}
	assert.True(t, last.Completed)
	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Attempts)
	assert.Equal(t, 24, got[0].Score)
	assert.Len(t, s.Snapshot().Results, 1)
}

func TestSession_SwitchToFreshStateDoesNotSave(t *testing.T) {
	s, saver, _, notified := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, 16, sixteen()))
	saves := saver.count()

	next := &recordingSaver{}
	s.Switch(next, NewState())
	snap := s.Snapshot()
	assert.True(t, snap.Init)
	assert.Empty(t, snap.Cards)
	assert.Zero(t, snap.Attempts)
	assert.Equal(t, saves, saver.count())
	assert.Zero(t, next.count())
	assert.Equal(t, 2, *notified)
}

func TestSession_SwitchReplacesOrKeepsBoard(t *testing.T) {
	s, first, _, _ := newTestSession(t)
	ctx := context.Background()

	loaded := NewState()
	loaded.Results = []Result{{Date: "2024-01-01T00:00:00Z", Attempts: 10, GridSize: 16, Score: 22}}
	s.Switch(first, loaded)
	assert.Equal(t, loaded, s.Snapshot())
	assert.Zero(t, first.count())

	second := &recordingSaver{}
	require.NoError(t, s.Start(ctx, 16, sixteen()))
	s.Switch(second, nil)
	assert.Len(t, s.Snapshot().Cards, 16)

	_, _, err := s.Click(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.count())
	require.Equal(t, 1, second.count())
	assert.Len(t, second.saved[0].Results, 1)
	assert.True(t, second.saved[0].Cards[0].Exposed)
}

func TestSession_RestoredMismatchIsSettled(t *testing.T) {
	src, _, timer, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, src.Start(ctx, 16, sixteen()))
	_, _, _ = src.Click(ctx, 0)
	_, _, _ = src.Click(ctx, 1)
	stuck := src.Snapshot()
	require.True(t, stuck.LockBoard)
	timer.funcs = nil // the old session's revert never runs

	check := func(t *testing.T, s *Session) {
		snap := s.Snapshot()
		assert.False(t, snap.LockBoard)
		assert.Nil(t, snap.FirstCard)
		assert.Nil(t, snap.SecondCard)
		assert.False(t, snap.Cards[0].Exposed)
		assert.False(t, snap.Cards[1].Exposed)
		assert.Equal(t, 1, snap.Attempts)

		out, _, err := s.Click(ctx, 4)
		require.NoError(t, err)
		assert.False(t, out.Rejected)
	}

	t.Run("new session", func(t *testing.T) {
		check(t, NewSession(stuck.Clone(), WithAfterFunc(timer.after)))
	})
	t.Run("switch", func(t *testing.T) {
		s := NewSession(nil, WithAfterFunc(timer.after))
		s.Switch(nil, stuck.Clone())
		check(t, s)
	})
}

func TestSession_RealTimer(t *testing.T) {
	s := NewSession(nil)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx, 16, sixteen()))
	_, _, _ = s.Click(ctx, 0)
	_, _, _ = s.Click(ctx, 1)

	assert.Eventually(t, func() bool {
		return !s.Snapshot().LockBoard
	}, 3*time.Second, 20*time.Millisecond)
}
