// internal/deck/deck.go
//
// Deck builder: deals a shuffled board for a grid size.
//
//   1. Drop repeated set names, shuffle, and keep the first gridSize/2 sets.
//   2. Emit two cards per set (distinct faces when the set has both).
//   3. Shuffle the whole deck.
//
// Output always has gridSize cards with exactly two per set. Nothing is
// returned on failure, so callers keep whatever board they already had.

package deck

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/robalobadob/memory/internal/catalog"
	"github.com/robalobadob/memory/internal/game"
)

var ErrCatalogTooSmall = errors.New("not enough card sets for grid size")

// Shuffle permutes xs in place (Fisher–Yates).
func Shuffle[T any](rng *rand.Rand, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := intN(rng, i+1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// Build deals gridSize cards from src. A nil rng uses the global generator.
func Build(ctx context.Context, src catalog.Source, gridSize int, rng *rand.Rand) ([]game.Card, error) {
	if !game.ValidGridSize(gridSize) {
		return nil, fmt.Errorf("%w: %d", game.ErrInvalidGridSize, gridSize)
	}
	sets, err := src.Sets(ctx)
	if err != nil {
		return nil, err
	}
	sets = distinct(sets)
	pairs := gridSize / 2
	if len(sets) < pairs {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrCatalogTooSmall, len(sets), pairs)
	}

	Shuffle(rng, sets)
	cards := make([]game.Card, 0, gridSize)
	for _, cs := range sets[:pairs] {
		a, b := cs.Faces()
		cards = append(cards,
			game.Card{Name: a, Set: cs.Set},
			game.Card{Name: b, Set: cs.Set},
		)
	}
	Shuffle(rng, cards)
	return cards, nil
}

// distinct keeps the first set of each name so no match key is dealt twice.
func distinct(sets []catalog.CardSet) []catalog.CardSet {
	seen := make(map[string]bool, len(sets))
	out := sets[:0:0]
	for _, cs := range sets {
		if seen[cs.Set] {
			continue
		}
		seen[cs.Set] = true
		out = append(out, cs)
	}
	return out
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}
