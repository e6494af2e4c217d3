package checker

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"toncheck-telegram-bot/internal/matcher"
	"toncheck-telegram-bot/internal/price"
	"toncheck-telegram-bot/internal/store"
)

// Notifier delivers one fired-alert message to a chat.
type Notifier interface {
	NotifyTargetReached(chatID int64, target, current decimal.Decimal) error
}

// Stats summarizes one sweep.
type Stats struct {
	Skipped          bool
	UsersChecked     int
	TargetsFired     int
	DeliveryFailures int
	UsersRemoved     int
}

// Checker runs one batch sweep per invocation: one price fetch, one pass
// over every user, one save.
type Checker struct {
	Oracle   price.Oracle
	Store    store.Store
	Notifier Notifier
	Policy   matcher.Policy
}

// Run performs a full sweep. When the oracle is unavailable the sweep is
// skipped entirely and the store is left untouched.
func (c *Checker) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	current, err := c.Oracle.FetchCurrentPrice(ctx)
	if err != nil {
		if errors.Is(err, price.ErrUnavailable) {
			log.Warnf("price unavailable, skipping sweep: %v", err)
			stats.Skipped = true
			return stats, nil
		}
		return stats, errors.Wrap(err, "fetch current price")
	}
	log.Infof("current price: %s", current)

	if err := c.Store.Lock(); err != nil {
		return stats, errors.Wrap(err, "another invocation holds the alert book")
	}
	defer func() {
		if err := c.Store.Unlock(); err != nil {
			log.Warnf("unlock alert book: %v", err)
		}
	}()

	book, err := c.Store.Load()
	if err != nil {
		return stats, errors.Wrap(err, "load alert book")
	}

	var lastPrice *decimal.Decimal
	if c.Policy == matcher.PolicyCross {
		p, ok, err := c.Store.LoadLastPrice()
		if err != nil {
			return stats, errors.Wrap(err, "load last price")
		}
		if ok {
			lastPrice = &p
		}
	}

	for _, userID := range sortedUserIDs(book) {
		ua := book[userID]
		stats.UsersChecked++

		res := matcher.Evaluate(c.Policy, current, lastPrice, ua.Targets)

		unreachable := false
		for _, target := range res.Fired {
			if err := c.Notifier.NotifyTargetReached(ua.ChatID, target, current); err != nil {
				// Delivery failure means the user blocked the bot or the
				// chat is gone. Stop tracking them entirely.
				log.Warnf("could not notify user %s, dropping all their alerts: %v", userID, err)
				stats.DeliveryFailures++
				unreachable = true
				break
			}
			stats.TargetsFired++
			log.Infof("alert fired for user %s at %s", userID, target)
		}

		if unreachable {
			store.PruneAndRemove(book, userID, nil)
			stats.UsersRemoved++
			continue
		}

		store.PruneAndRemove(book, userID, res.Remaining)
		if len(res.Remaining) == 0 {
			stats.UsersRemoved++
		}
	}

	if err := c.Store.Save(book); err != nil {
		return stats, errors.Wrap(err, "save alert book")
	}
	if c.Policy == matcher.PolicyCross {
		if err := c.Store.SaveLastPrice(current); err != nil {
			return stats, errors.Wrap(err, "save last price")
		}
	}
	return stats, nil
}

func sortedUserIDs(b store.Book) []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
