package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbutil "github.com/llehouerou/flux/internal/db"
	"github.com/llehouerou/flux/internal/playback"
	"github.com/llehouerou/flux/internal/playlist"
)

const (
	maxHistory     = 10000
	repeatWindow   = 10 * time.Second
	monthPeriod    = 30 * 24 * time.Hour
	defaultListLen = 20
)

var _ playback.Recorder = (*Manager)(nil)

// Period bounds history aggregates.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodMonth Period = "month"
)

// ParsePeriod parses "all" or "month".
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodAll, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// PlayRecord is one row of play history.
type PlayRecord struct {
	ID       string
	Path     string
	Title    string
	Artist   string
	Album    string
	PlayedAt time.Time
}

// SongCount is a TopSongs row.
type SongCount struct {
	Path   string
	Title  string
	Artist string
	Count  int
}

// ArtistCount is a TopArtists row.
type ArtistCount struct {
	Artist string
	Count  int
}

type playRecord struct {
	track playlist.Track
	at    time.Time
}

// RecordPlay queues a play for the history writer. It never blocks; when
// the queue is full the play is dropped.
func (m *Manager) RecordPlay(t playlist.Track) {
	rec := playRecord{track: t, at: m.now()}

	m.playsMu.RLock()
	defer m.playsMu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.plays <- rec:
	default:
		m.log.Warn().Str("path", t.Path).Msg("play history queue full, dropping")
	}
}

func (m *Manager) recordLoop() {
	defer m.wg.Done()
	for rec := range m.plays {
		if _, err := m.AddPlay(context.Background(), rec.track, rec.at); err != nil {
			m.log.Warn().Err(err).Str("path", rec.track.Path).Msg("record play")
		}
	}
}

// AddPlay inserts a play at the given time. A repeat of the most recent
// path within ten seconds is ignored and reported as false.
func (m *Manager) AddPlay(ctx context.Context, t playlist.Track, at time.Time) (bool, error) {
	added := false
	err := dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		var lastPath string
		var lastAt int64
		err := tx.QueryRowContext(ctx, `
			SELECT path, played_at FROM play_history
			ORDER BY played_at DESC, rowid DESC LIMIT 1
		`).Scan(&lastPath, &lastAt)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && lastPath == t.Path && at.Sub(dbutil.FromMillis(lastAt)) < repeatWindow {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO play_history (id, path, title, artist, album, played_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), t.Path, t.DisplayTitle(), t.DisplayArtist(),
			dbutil.NullString(t.Tags.Album, t.Tags.Album != ""), dbutil.Millis(at))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			DELETE FROM play_history WHERE id NOT IN (
				SELECT id FROM play_history ORDER BY played_at DESC, rowid DESC LIMIT ?
			)
		`, m.historyCap)
		if err != nil {
			return err
		}
		added = true
		return nil
	})
	return added, err
}

// RecentlyPlayed returns up to limit plays, newest first.
func (m *Manager) RecentlyPlayed(ctx context.Context, limit int) ([]PlayRecord, error) {
	if limit <= 0 {
		limit = defaultListLen
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, path, title, artist, album, played_at FROM play_history
		ORDER BY played_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayRecord
	for rows.Next() {
		var r PlayRecord
		var album sql.NullString
		var playedAt int64
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Artist, &album, &playedAt); err != nil {
			return nil, err
		}
		r.Album = dbutil.NullStringValue(album)
		r.PlayedAt = dbutil.FromMillis(playedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopSongs returns the most played paths in period.
func (m *Manager) TopSongs(ctx context.Context, period Period, limit int) ([]SongCount, error) {
	if limit <= 0 {
		limit = defaultListLen
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT path, title, artist, COUNT(*) AS plays, MAX(played_at) AS last
		FROM play_history
		WHERE played_at >= ?
		GROUP BY path
		ORDER BY plays DESC, last DESC
		LIMIT ?
	`, m.since(period), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SongCount
	for rows.Next() {
		var s SongCount
		var last int64
		if err := rows.Scan(&s.Path, &s.Title, &s.Artist, &s.Count, &last); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopArtists returns the most played artists in period.
func (m *Manager) TopArtists(ctx context.Context, period Period, limit int) ([]ArtistCount, error) {
	if limit <= 0 {
		limit = defaultListLen
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT artist, COUNT(*) AS plays, MAX(played_at) AS last
		FROM play_history
		WHERE played_at >= ?
		GROUP BY artist
		ORDER BY plays DESC, last DESC
		LIMIT ?
	`, m.since(period), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ArtistCount
	for rows.Next() {
		var a ArtistCount
		var last int64
		if err := rows.Scan(&a.Artist, &a.Count, &last); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// HistoryLen returns the number of stored plays.
func (m *Manager) HistoryLen(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM play_history`).Scan(&n)
	return n, err
}

func (m *Manager) since(p Period) int64 {
	if p == PeriodMonth {
		return dbutil.Millis(m.now().Add(-monthPeriod))
	}
	return 0
}
