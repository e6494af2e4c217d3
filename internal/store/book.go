package store

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// TargetPrecision is the number of decimal places a target price is kept at.
const TargetPrecision = 2

var (
	ErrInvalidPrice    = errors.New("target price must be positive")
	ErrDuplicateTarget = errors.New("target already registered")
)

// UserAlerts holds one user's registered price targets plus the chat their
// notifications go to. Targets stay sorted ascending with no duplicates.
type UserAlerts struct {
	ChatID  int64             `json:"chat_id"`
	Targets []decimal.Decimal `json:"targets"`
}

// Book maps a Telegram user ID to that user's alerts. An entry with no
// targets must never be persisted.
type Book map[string]*UserAlerts

// AddTarget registers a price target for userID, creating the user entry on
// first registration. The target is rounded to TargetPrecision before the
// duplicate check, so 7.501 and 7.499 collide at 7.50.
func AddTarget(b Book, userID string, chatID int64, target decimal.Decimal) error {
	target = target.Round(TargetPrecision)
	if !target.IsPositive() {
		return ErrInvalidPrice
	}

	ua, ok := b[userID]
	if !ok {
		ua = &UserAlerts{ChatID: chatID}
		b[userID] = ua
	}

	for _, t := range ua.Targets {
		if t.Equal(target) {
			return ErrDuplicateTarget
		}
	}

	ua.Targets = append(ua.Targets, target)
	sort.Slice(ua.Targets, func(i, j int) bool {
		return ua.Targets[i].LessThan(ua.Targets[j])
	})
	return nil
}

// ListTargets returns a copy of userID's targets in ascending order, empty
// if the user has none.
func ListTargets(b Book, userID string) []decimal.Decimal {
	ua, ok := b[userID]
	if !ok {
		return nil
	}
	out := make([]decimal.Decimal, len(ua.Targets))
	copy(out, ua.Targets)
	return out
}

// PruneAndRemove replaces userID's target list with kept. An empty kept
// list removes the user entirely.
func PruneAndRemove(b Book, userID string, kept []decimal.Decimal) {
	if len(kept) == 0 {
		delete(b, userID)
		return
	}
	if ua, ok := b[userID]; ok {
		ua.Targets = kept
	}
}
