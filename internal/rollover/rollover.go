// Package rollover governs how an expired budget transitions into its
// next-period successor. The state machine has three states: a budget
// is Active while the clock is inside its window, Expired once the
// clock passes its end date, and Rolled after a successor has been
// created. Rolled is terminal.
package rollover

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/budget-engine/internal/ledger"
)

// State of a budget relative to the wall clock.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateRolled  State = "rolled"
)

var (
	// ErrNotExpired is returned when rolling a budget whose window still
	// contains the current time.
	ErrNotExpired = errors.New("budget is not expired")

	// ErrAlreadyRolled is returned when rolling a budget that already
	// has a successor. Rolling is idempotent in effect: the second call
	// is an explicit rejection, never a second successor.
	ErrAlreadyRolled = errors.New("budget already rolled")
)

// Classify returns the budget's state at the given instant. The
// Active-to-Expired transition is a pure function of time and needs no
// event; Expired-to-Rolled happens only through Roll.
func Classify(b *ledger.Budget, now time.Time) State {
	if b.SuccessorID != "" {
		return StateRolled
	}
	if now.After(b.EndDate) {
		return StateExpired
	}
	return StateActive
}

// Roll creates the successor budget for the next period and marks the
// predecessor rolled. The successor starts the day after the
// predecessor's end date, truncated to day start, keeps the category,
// limit and period, and gets a fresh identity. The predecessor keeps
// its history: its window and any spend derived from it are untouched,
// only IsActive flips off and SuccessorID is set.
//
// Roll mutates the passed predecessor; the caller persists both records.
func Roll(pred *ledger.Budget, now time.Time) (*ledger.Budget, error) {
	switch Classify(pred, now) {
	case StateRolled:
		return nil, ErrAlreadyRolled
	case StateActive:
		return nil, ErrNotExpired
	}

	start := ledger.DayStart(pred.EndDate.AddDate(0, 0, 1))
	succ := &ledger.Budget{
		ID:        uuid.NewString(),
		Category:  pred.Category,
		Limit:     pred.Limit,
		Period:    pred.Period,
		StartDate: start,
		EndDate:   ledger.PeriodEnd(start, pred.Period),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	pred.IsActive = false
	pred.SuccessorID = succ.ID
	pred.UpdatedAt = now

	return succ, nil
}
