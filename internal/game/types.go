// internal/game/types.go
//
// Core type definitions for the memory game.
// Defines:
//   - Card:   one tile on the board.
//   - Result: summary of a completed round.
//   - State:  the full game state blob (board, selection, attempts, history).
//   - Grid sizes accepted by the deck builder and the results view.

package game

import "time"

// Card is a single tile. Exactly two cards share a Set value per deck.
type Card struct {
	Name    string `json:"name"`    // face to display
	Set     string `json:"set"`     // match key
	Exposed bool   `json:"exposed"` // face-up
}

// Result summarizes one completed round. Never mutated after creation.
type Result struct {
	Date     string `json:"date"` // RFC 3339, UTC
	Attempts int    `json:"attempts"`
	GridSize int    `json:"gridSize"`
	Score    int    `json:"score"`
}

// Time parses Date. A malformed date yields the zero time.
func (r Result) Time() time.Time {
	t, _ := time.Parse(time.RFC3339, r.Date)
	return t
}

// State holds everything persisted for one player.
//
// FirstCard/SecondCard are indices into Cards. Both are non-nil only while
// LockBoard is true.
type State struct {
	FirstCard  *int     `json:"firstCard"`
	SecondCard *int     `json:"secondCard"`
	LockBoard  bool     `json:"lockBoard"`
	Attempts   int      `json:"attempts"`
	GridSize   int      `json:"gridSize"`
	Cards      []Card   `json:"cards"`
	Results    []Result `json:"results"`
	Round      string   `json:"round"`
	Init       bool     `json:"init"`
}

// Supported grid sizes. The middle option is labelled 5x5 but deals 24 cards
// so every set can be paired.
const (
	GridSmall  = 16
	GridMedium = 24
	GridLarge  = 36
)

// GridSizes lists the supported sizes in display order.
var GridSizes = []int{GridSmall, GridMedium, GridLarge}

// ValidGridSize reports whether n is one of GridSizes.
func ValidGridSize(n int) bool {
	for _, g := range GridSizes {
		if g == n {
			return true
		}
	}
	return false
}

// GridLabel returns the board label for a grid size ("4x4", "5x5", "6x6").
func GridLabel(n int) string {
	switch n {
	case GridSmall:
		return "4x4"
	case GridMedium:
		return "5x5"
	case GridLarge:
		return "6x6"
	}
	return ""
}
