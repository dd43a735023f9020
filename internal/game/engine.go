// internal/game/engine.go
//
// Transition functions for the memory game.
// Responsibilities:
//   - Start a round from a dealt deck.
//   - Apply card clicks: reveal, pair up, count attempts, resolve match/mismatch.
//   - Append a Result when the last pair is matched.
//   - Revert an unmatched pair, guarded by a token captured when the pair was
//     turned so a late revert cannot touch a newer round.
//
// Every function here works on a *State passed in by the caller and does no
// I/O; Session (session.go) adds locking, timers, notification and saving.
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MismatchDelay is how long an unmatched pair stays face-up.
const MismatchDelay = 1000 * time.Millisecond

var (
	ErrInvalidIndex    = errors.New("invalid card index")
	ErrInvalidGridSize = errors.New("unsupported grid size")
	ErrDeckSize        = errors.New("deck size does not match grid size")
)

// Token identifies one unmatched pair awaiting its revert.
type Token struct {
	Round   string
	Attempt int
	First   int
	Second  int
}

// Outcome reports what a click did.
type Outcome struct {
	Rejected  bool    // nothing changed
	Matched   bool    // second card completed a pair
	Completed bool    // last pair matched; Result is set
	Result    *Result // appended result, when Completed
	Pending   *Token  // unmatched pair awaiting Revert
}

// NewState returns a freshly initialized state with no board.
func NewState() *State {
	return &State{Init: true, Cards: []Card{}, Results: []Result{}}
}

// Score is the points for a round: max(0, gridSize*2 - attempts).
func Score(gridSize, attempts int) int {
	if s := gridSize*2 - attempts; s > 0 {
		return s
	}
	return 0
}

// NewRound installs a freshly dealt deck. Results are kept.
func NewRound(st *State, gridSize int, cards []Card) error {
	if !ValidGridSize(gridSize) {
		return fmt.Errorf("%w: %d", ErrInvalidGridSize, gridSize)
	}
	if len(cards) != gridSize {
		return fmt.Errorf("%w: %d cards for grid %d", ErrDeckSize, len(cards), gridSize)
	}
	Reset(st, true)
	st.GridSize = gridSize
	st.Cards = cards
	st.Round = uuid.NewString()
	st.Init = false
	return nil
}

// Reset clears the selection and the board lock. With init it also clears
// attempts and the board.
func Reset(st *State, init bool) {
	st.FirstCard = nil
	st.SecondCard = nil
	st.LockBoard = false
	if init {
		st.Attempts = 0
		st.Cards = []Card{}
		st.Init = true
	}
}

// Click applies a click on the card at index.
//
// A click is rejected while the board is locked, on the card already held as
// the first selection, or on any exposed card. Clicking the first card again
// does not deselect it.
func Click(st *State, index int, now time.Time) (Outcome, error) {
	if !inBounds(st, index) {
		return Outcome{Rejected: true}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	if invalidClick(st, index) {
		return Outcome{Rejected: true}, nil
	}

	st.Cards[index].Exposed = true
	if st.FirstCard == nil {
		st.FirstCard = intPtr(index)
		return Outcome{}, nil
	}

	st.SecondCard = intPtr(index)
	st.Attempts++
	st.LockBoard = true

	first := *st.FirstCard
	if st.Cards[first].Set != st.Cards[index].Set {
		return Outcome{Pending: &Token{
			Round:   st.Round,
			Attempt: st.Attempts,
			First:   first,
			Second:  index,
		}}, nil
	}

	out := Outcome{Matched: true}
	if !cardsLeft(st.Cards) {
		r := Result{
			Date:     now.UTC().Format(time.RFC3339),
			Attempts: st.Attempts,
			GridSize: st.GridSize,
			Score:    Score(st.GridSize, st.Attempts),
		}
		st.Results = append(st.Results, r)
		out.Completed = true
		out.Result = &r
	}
	Reset(st, false)
	return out, nil
}

// Revert turns an unmatched pair face-down again. It reports false and leaves
// st alone when st no longer holds the pair tok describes.
func Revert(st *State, tok Token) bool {
	if st.Round != tok.Round || st.Attempts != tok.Attempt {
		return false
	}
	if st.FirstCard == nil || st.SecondCard == nil ||
		*st.FirstCard != tok.First || *st.SecondCard != tok.Second {
		return false
	}
	st.Cards[tok.First].Exposed = false
	st.Cards[tok.Second].Exposed = false
	Reset(st, false)
	return true
}

// Settle unlocks a board restored from storage, where no revert is pending.
// An unmatched pair is turned face down at once; a lone first pick is kept.
// It reports whether st changed.
func Settle(st *State) bool {
	if !st.LockBoard {
		return false
	}
	f, s := st.FirstCard, st.SecondCard
	if f != nil && s != nil {
		if inBounds(st, *f) && inBounds(st, *s) && st.Cards[*f].Set != st.Cards[*s].Set {
			st.Cards[*f].Exposed = false
			st.Cards[*s].Exposed = false
		}
		Reset(st, false)
		return true
	}
	st.SecondCard = nil
	st.LockBoard = false
	return true
}

func inBounds(st *State, i int) bool { return i >= 0 && i < len(st.Cards) }

// Clone returns a deep copy of st.
func (st *State) Clone() *State {
	c := *st
	if st.FirstCard != nil {
		c.FirstCard = intPtr(*st.FirstCard)
	}
	if st.SecondCard != nil {
		c.SecondCard = intPtr(*st.SecondCard)
	}
	c.Cards = append([]Card{}, st.Cards...)
	c.Results = append([]Result{}, st.Results...)
	return &c
}

func invalidClick(st *State, index int) bool {
	return st.LockBoard ||
		(st.FirstCard != nil && *st.FirstCard == index) ||
		st.Cards[index].Exposed
}

func cardsLeft(cards []Card) bool {
	for _, c := range cards {
		if !c.Exposed {
			return true
		}
	}
	return false
}

func intPtr(i int) *int { return &i }
