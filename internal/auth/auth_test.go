package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/memory/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	s := NewService(db, "test-secret", time.Hour)
	s.bcryptCost = bcrypt.MinCost
	return s
}

func TestSignUpAndSignIn(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	var changes []Change
	s.Subscribe(func(_ context.Context, c Change) { changes = append(changes, c) })

	u, tok, exp, err := s.SignUp(ctx, "client-1", "  Player@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "player@example.com", u.Email)
	assert.NotEmpty(t, tok)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	u2, _, _, err := s.SignIn(ctx, "client-2", "PLAYER@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)

	require.Len(t, changes, 2)
	assert.Equal(t, SignedIn, changes[0].Kind)
	assert.Equal(t, "client-1", changes[0].ClientID)
	assert.Equal(t, u.ID, changes[1].User.ID)
	assert.Equal(t, "client-2", changes[1].ClientID)

	me, err := s.Identify(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
}

func TestSignUpErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _, _, err := s.SignUp(ctx, "c", "not-an-email", "hunter2hunter2")
	assert.EqualError(t, err, "email address is invalid")

	_, _, _, err = s.SignUp(ctx, "c", "a@b.c", "short")
	assert.EqualError(t, err, "password must be 8–100 chars")

	_, _, _, err = s.SignUp(ctx, "c", "a@b.c", "hunter2hunter2")
	require.NoError(t, err)
	_, _, _, err = s.SignUp(ctx, "c", "A@B.C", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpRaceOnSameEmail(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, _, _, err := s.SignUp(ctx, "c1", "race@example.com", "hunter2hunter2")
	require.NoError(t, err)
	// The insert that loses after both lookups missed.
	err = s.insertUser(ctx, &User{ID: "other", Email: "race@example.com", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrEmailTaken)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, err := s.SignUp(ctx, "c2", "both@example.com", "hunter2hunter2")
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrEmailTaken)
	}
	assert.Equal(t, 1, ok)
}

func TestSignInErrors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	_, _, _, err := s.SignUp(ctx, "c", "a@b.c", "hunter2hunter2")
	require.NoError(t, err)

	var notified int
	s.Subscribe(func(context.Context, Change) { notified++ })

	_, _, _, err = s.SignIn(ctx, "c", "a@b.c", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, _, err = s.SignIn(ctx, "c", "nobody@b.c", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Zero(t, notified)
}

func TestSignOutNotifies(t *testing.T) {
	s := newTestService(t)
	var got Change
	s.Subscribe(func(_ context.Context, c Change) { got = c })

	s.SignOut(context.Background(), "client-9")
	assert.Equal(t, Change{Kind: SignedOut, ClientID: "client-9"}, got)
}

func TestIdentifyRejects(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Identify(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(s.db, "other-secret", time.Hour)
	u, _, _, err := s.SignUp(ctx, "c", "a@b.c", "hunter2hunter2")
	require.NoError(t, err)
	forged, _, err := other.sign(u)
	require.NoError(t, err)
	_, err = s.Identify(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  u.ID,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	ss, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.Identify(ctx, ss)
	assert.ErrorIs(t, err, ErrInvalidToken)

	ghost, _, err := s.sign(&User{ID: "deleted-user", Email: "x@y.z"})
	require.NoError(t, err)
	_, err = s.Identify(ctx, ghost)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
