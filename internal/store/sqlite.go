package store

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the alert book in a SQLite database. Save replaces the
// whole book in one transaction, which also serializes concurrent writers.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS user_alerts (
		user_id TEXT NOT NULL,
		chat_id INTEGER NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (user_id, target)
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Lock is a no-op: the transactional Save already coordinates writers.
func (s *SQLiteStore) Lock() error { return nil }

func (s *SQLiteStore) Unlock() error { return nil }

func (s *SQLiteStore) Load() (Book, error) {
	rows, err := s.db.Query(`SELECT user_id, chat_id, target FROM user_alerts ORDER BY user_id, CAST(target AS REAL);`)
	if err != nil {
		log.Warnf("could not query alerts, starting empty: %v", err)
		return Book{}, nil
	}
	defer rows.Close()

	book := Book{}
	for rows.Next() {
		var userID, target string
		var chatID int64
		if err := rows.Scan(&userID, &chatID, &target); err != nil {
			log.Warnf("skipping unreadable alert row: %v", err)
			continue
		}
		t, err := decimal.NewFromString(target)
		if err != nil {
			log.Warnf("skipping alert with bad target %q: %v", target, err)
			continue
		}

		ua, ok := book[userID]
		if !ok {
			ua = &UserAlerts{ChatID: chatID}
			book[userID] = ua
		}
		ua.Targets = append(ua.Targets, t)
	}
	return book, nil
}

func (s *SQLiteStore) Save(b Book) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin save")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM user_alerts;`); err != nil {
		return errors.Wrap(err, "failed to clear alerts")
	}
	for userID, ua := range b {
		for _, t := range ua.Targets {
			_, err := tx.Exec(
				`INSERT INTO user_alerts (user_id, chat_id, target) VALUES (?, ?, ?);`,
				userID, ua.ChatID, t.String(),
			)
			if err != nil {
				return errors.Wrap(err, "failed to insert alert")
			}
		}
	}
	return errors.Wrap(tx.Commit(), "failed to commit save")
}

func (s *SQLiteStore) LoadLastPrice() (decimal.Decimal, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_price';`).Scan(&value)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, errors.Wrap(err, "failed to read last price")
	}

	p, err := decimal.NewFromString(value)
	if err != nil {
		log.Warnf("corrupt last price %q, ignoring: %v", value, err)
		return decimal.Zero, false, nil
	}
	return p, true, nil
}

func (s *SQLiteStore) SaveLastPrice(p decimal.Decimal) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES ('last_price', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
		p.String(),
	)
	return errors.Wrap(err, "failed to save last price")
}
