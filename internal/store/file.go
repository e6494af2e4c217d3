package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/nightlyone/lockfile"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Targets are stored as bare JSON numbers so existing alerts.json
	// files keep parsing.
	decimal.MarshalJSONWithoutQuotes = true
}

// FileStore keeps the alert book in a single JSON file, guarded by a
// sidecar lock file against concurrent invocations.
type FileStore struct {
	path  string
	flock lockfile.Lockfile
}

func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "resolve alerts file path")
	}
	flock, err := lockfile.New(abs + ".lock")
	if err != nil {
		return nil, errors.Wrap(err, "create lock file")
	}
	return &FileStore{path: abs, flock: flock}, nil
}

// Lock guards the load→mutate→save window. It does not wait: if another
// invocation holds the book, the caller backs off and reports busy.
func (s *FileStore) Lock() error {
	return errors.Wrap(s.flock.TryLock(), "lock alerts file")
}

func (s *FileStore) Unlock() error {
	return errors.Wrap(s.flock.Unlock(), "unlock alerts file")
}

// Load reads the alert book. A missing or unparseable file yields an empty
// book: dropping corrupt state is preferable to refusing every command.
func (s *FileStore) Load() (Book, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("could not read %s, starting empty: %v", s.path, err)
		}
		return Book{}, nil
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		log.Warnf("corrupt alert book %s, starting empty: %v", s.path, err)
		return Book{}, nil
	}
	if book == nil {
		book = Book{}
	}
	return book, nil
}

// Save writes the book to a temp file and renames it into place, so a
// crash mid-write never leaves a half-written book behind.
func (s *FileStore) Save(b Book) error {
	data, err := json.MarshalIndent(b, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode alert book")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write alert book")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replace alert book")
}

func (s *FileStore) LoadLastPrice() (decimal.Decimal, bool, error) {
	data, err := os.ReadFile(s.lastPricePath())
	if err != nil {
		return decimal.Zero, false, nil
	}
	p, err := decimal.NewFromString(strings.TrimSpace(string(data)))
	if err != nil {
		log.Warnf("corrupt last price file %s, ignoring: %v", s.lastPricePath(), err)
		return decimal.Zero, false, nil
	}
	return p, true, nil
}

func (s *FileStore) SaveLastPrice(p decimal.Decimal) error {
	err := os.WriteFile(s.lastPricePath(), []byte(p.String()+"\n"), 0o644)
	return errors.Wrap(err, "write last price")
}

func (s *FileStore) lastPricePath() string {
	return s.path + ".last"
}
