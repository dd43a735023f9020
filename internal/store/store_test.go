package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memory/internal/game"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func sampleState() *game.State {
	first := 2
	return &game.State{
		FirstCard: &first,
		Attempts:  7,
		GridSize:  16,
		Cards: []game.Card{
			{Name: "duck", Set: "duck", Exposed: true},
			{Name: "duck", Set: "duck", Exposed: true},
			{Name: "calf", Set: "cow", Exposed: true},
			{Name: "bull", Set: "cow"},
		},
		Results: []game.Result{
			{Date: "2024-03-01T10:00:00Z", Attempts: 12, GridSize: 16, Score: 20},
		},
		Round: "r-1",
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDocuments(t *testing.T) {
	docs := NewDocuments(openTestDB(t))
	ctx := context.Background()

	_, err := docs.Get(ctx, "users/u1/gameState/state")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, docs.Set(ctx, "users/u1/gameState/state", []byte(`{"a":1}`)))
	require.NoError(t, docs.Set(ctx, "users/u1/gameState/state", []byte(`{"a":2}`)))
	body, err := docs.Get(ctx, "users/u1/gameState/state")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(body))
}

func TestMemoryBlobs_Namespaces(t *testing.T) {
	b := NewMemoryBlobs()
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "c1", LocalKey, []byte("one")))
	require.NoError(t, b.Set(ctx, "c2", LocalKey, []byte("two")))

	v, err := b.Get(ctx, "c1", LocalKey)
	require.NoError(t, err)
	assert.Equal(t, "one", string(v))

	_, err = b.Get(ctx, "c3", LocalKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Delete(ctx, "c1"))
	require.NoError(t, b.Delete(ctx, "c3"))
	_, err = b.Get(ctx, "c1", LocalKey)
	assert.ErrorIs(t, err, ErrNotFound)
	v, err = b.Get(ctx, "c2", LocalKey)
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))
}

func TestRoundTrip(t *testing.T) {
	docs := NewDocuments(openTestDB(t))
	blobs := NewMemoryBlobs()
	ctx := context.Background()

	backends := map[string]Store{
		"remote": ForIdentity("user-1", "client-1", docs, blobs),
		"local":  ForIdentity("", "client-1", docs, blobs),
	}
	for name, s := range backends {
		t.Run(name, func(t *testing.T) {
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)

			want := sampleState()
			require.NoError(t, s.Save(ctx, want))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestForIdentity(t *testing.T) {
	docs := &Documents{}
	blobs := NewMemoryBlobs()

	assert.Equal(t, Remote{Docs: docs, UserID: "u"}, ForIdentity("u", "c", docs, blobs))
	assert.Equal(t, Local{Blobs: blobs, ClientID: "c"}, ForIdentity("", "c", docs, blobs))
	assert.Equal(t, "users/u/gameState/state", DocPath("u"))
}

type brokenStore struct{ loadErr, saveErr error }

func (b brokenStore) Load(context.Context) (*game.State, error) { return nil, b.loadErr }
func (b brokenStore) Save(context.Context, *game.State) error { return b.saveErr }

func TestGateway_SwallowsErrors(t *testing.T) {
	g := Gateway{Store: brokenStore{loadErr: errors.New("offline"), saveErr: errors.New("offline")}}
	ctx := context.Background()

	assert.Nil(t, g.Load(ctx))
	assert.NotPanics(t, func() { g.Save(ctx, game.NewState()) })
}

func TestGateway_MalformedBlobLoadsNil(t *testing.T) {
	blobs := NewMemoryBlobs()
	ctx := context.Background()
	require.NoError(t, blobs.Set(ctx, "c1", LocalKey, []byte("{not json")))

	g := Gateway{Store: Local{Blobs: blobs, ClientID: "c1"}}
	assert.Nil(t, g.Load(ctx))
}
