// internal/store/gateway.go
//
// Persistence gateway for game state.
//
// Two backends implement Store:
//   - Remote: one document per signed-in user at users/{uid}/gameState/state.
//   - Local:  one blob under the fixed key "memoryGameState" in the client's
//             namespace, for guests.
//
// ForIdentity picks the backend once, when a session is bound to an
// identity. Gateway adds the load/save contract the game relies on: saves are
// fire-and-forget (errors logged), loads turn "absent" and failures into nil.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/internal/game"
)

// LocalKey is the blob key guest state is stored under.
const LocalKey = "memoryGameState"

// Store loads and saves the full game state. Load returns (nil, nil) when
// nothing has been saved yet.
type Store interface {
	Load(ctx context.Context) (*game.State, error)
	Save(ctx context.Context, st *game.State) error
}

// DocPath returns the document path of a user's game state.
func DocPath(userID string) string {
	return fmt.Sprintf("users/%s/gameState/state", userID)
}

// Remote stores state in a user's document.
type Remote struct {
	Docs   *Documents
	UserID string
}

func (r Remote) Load(ctx context.Context) (*game.State, error) {
	body, err := r.Docs.Get(ctx, DocPath(r.UserID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(body)
}

func (r Remote) Save(ctx context.Context, st *game.State) error {
	body, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.Docs.Set(ctx, DocPath(r.UserID), body)
}

// Local stores state in a guest client's blob namespace.
type Local struct {
	Blobs    Blobs
	ClientID string
}

func (l Local) Load(ctx context.Context) (*game.State, error) {
	body, err := l.Blobs.Get(ctx, l.ClientID, LocalKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(body)
}

func (l Local) Save(ctx context.Context, st *game.State) error {
	body, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return l.Blobs.Set(ctx, l.ClientID, LocalKey, body)
}

func decode(body []byte) (*game.State, error) {
	var st game.State
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if st.Cards == nil {
		st.Cards = []game.Card{}
	}
	if st.Results == nil {
		st.Results = []game.Result{}
	}
	return &st, nil
}

// ForIdentity returns the Remote store for a signed-in user, else the
// client's Local store.
func ForIdentity(userID, clientID string, docs *Documents, blobs Blobs) Store {
	if userID != "" {
		return Remote{Docs: docs, UserID: userID}
	}
	return Local{Blobs: blobs, ClientID: clientID}
}

// Gateway applies the persistence contract on top of a Store.
type Gateway struct {
	Store Store
}

// Save persists st. Failures are logged and otherwise ignored.
func (g Gateway) Save(ctx context.Context, st *game.State) {
	if err := g.Store.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str("backend", backendName(g.Store)).Msg("save state")
	}
}

// Load returns the saved state, or nil when there is none or it could not
// be read.
func (g Gateway) Load(ctx context.Context) *game.State {
	st, err := g.Store.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Str("backend", backendName(g.Store)).Msg("load state")
		return nil
	}
	return st
}

func backendName(s Store) string {
	switch s.(type) {
	case Remote:
		return "remote"
	case Local:
		return "local"
	}
	return fmt.Sprintf("%T", s)
}
