// Package state persists flux data in a local SQLite database: the
// lyrics cache tier, play history, back-filled track metadata and the
// player's repeat/shuffle modes.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "flux"
	dbFileName   = "flux.db"
	saveDebounce = 500 * time.Millisecond
	playBuffer   = 64
)

// Manager owns the database handle.
type Manager struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time

	historyCap int

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *PlayerState

	playsMu   sync.RWMutex
	plays     chan playRecord
	closed    bool
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l.With().Str("component", "state").Logger() }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHistoryCap sets the maximum number of play history rows kept.
func WithHistoryCap(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historyCap = n
		}
	}
}

// Open opens the database in the XDG data directory.
func Open(opts ...Option) (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath, opts...)
}

// OpenPath opens the database at path. ":memory:" is accepted.
func OpenPath(path string, opts ...Option) (*Manager, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	m := &Manager{
		db:         db,
		log:        zerolog.Nop(),
		now:        time.Now,
		historyCap: maxHistory,
		plays:      make(chan playRecord, playBuffer),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.wg.Add(1)
	go m.recordLoop()

	return m, nil
}

// Close flushes pending writes and closes the database.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.playsMu.Lock()
		m.closed = true
		close(m.plays)
		m.playsMu.Unlock()
		m.wg.Wait()

		m.saveMu.Lock()
		if m.saveTimer != nil {
			m.saveTimer.Stop()
		}
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			if serr := savePlayerState(m.db, *pending); serr != nil {
				m.log.Warn().Err(serr).Msg("flush player state")
			}
		}

		err = m.db.Close()
	})
	return err
}

// DB returns the underlying handle.
func (m *Manager) DB() *sql.DB {
	return m.db
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
