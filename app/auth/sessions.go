package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	sessionKeyPrefix = "session:"
	sessionIDLength  = 32
	sessionAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	gcDiscardRatio   = 0.5
)

// Session is the server-side state behind the session cookie. State and
// Nonce are only set while a login is in flight.
type Session struct {
	Identity  *Identity `json:"identity,omitempty"`
	State     string    `json:"state,omitempty"`
	Nonce     string    `json:"nonce,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps sessions in badger. Entries expire after the TTL.
type SessionStore struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
}

// badgerLogger routes badger's internal log lines to slog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

// OpenSessionStore opens the store in dir, or in memory when dir is empty.
func OpenSessionStore(dir string, ttl time.Duration) (*SessionStore, error) {
	if ttl <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create session directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}

	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return &SessionStore{db: db, ttl: ttl, inMemory: dir == ""}, nil
}

// Create stores a new session and returns its id.
func (s *SessionStore) Create(session Session) (string, error) {
	id, err := nanoid.Generate(sessionAlphabet, sessionIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	if err := s.Save(id, session); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the session, or nil when it does not exist or has expired.
func (s *SessionStore) Get(id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	return &session, nil
}

// Save overwrites the session and restarts its TTL.
func (s *SessionStore) Save(id string, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(sessionKey(id), data).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(id string) error {
	if id == "" {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count returns the number of live sessions.
func (s *SessionStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(sessionKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// RunGC reclaims value-log space left by expired and deleted sessions.
func (s *SessionStore) RunGC() error {
	if s.inMemory {
		return nil
	}

	err := s.db.RunValueLogGC(gcDiscardRatio)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return fmt.Errorf("session store GC failed: %w", err)
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}
