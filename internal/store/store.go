package store

import "github.com/shopspring/decimal"

// Store is the durable home of the alert book. Load and Save form one
// read-modify-write cycle; callers hold Lock across the whole cycle so a
// concurrent serve and check invocation cannot overwrite each other.
type Store interface {
	Lock() error
	Unlock() error

	// Load reads the full book. A missing or corrupt backing resource
	// yields an empty book, never an error.
	Load() (Book, error)

	// Save replaces the persisted book wholesale.
	Save(Book) error

	// LoadLastPrice returns the price recorded by the previous sweep, if
	// any. Only the crossing match policy consults it.
	LoadLastPrice() (decimal.Decimal, bool, error)
	SaveLastPrice(decimal.Decimal) error
}
