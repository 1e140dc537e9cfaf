package state

import (
	"context"
	"database/sql"
	"errors"

	dbutil "github.com/llehouerou/flux/internal/db"
	"github.com/llehouerou/flux/internal/lyrics"
)

var _ lyrics.Store = (*Manager)(nil)

// LoadLyrics returns the cached lyrics entry for path.
func (m *Manager) LoadLyrics(ctx context.Context, path string) (lyrics.Entry, bool, error) {
	var (
		ref      string
		lrc      sql.NullString
		cachedAt int64
	)
	row := m.db.QueryRowContext(ctx, `
		SELECT lyrics_ref, lrc, cached_at FROM lyrics_cache WHERE path = ?
	`, path)
	err := row.Scan(&ref, &lrc, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return lyrics.Entry{}, false, nil
	}
	if err != nil {
		return lyrics.Entry{}, false, err
	}

	return lyrics.Entry{
		Path:     path,
		Ref:      ref,
		Result:   lyrics.Result{Text: lrc.String, Found: lrc.Valid},
		CachedAt: dbutil.FromMillis(cachedAt),
	}, true, nil
}

// SaveLyrics stores e, replacing any previous entry for its path.
// A missing result is stored as NULL lrc.
func (m *Manager) SaveLyrics(ctx context.Context, e lyrics.Entry) error {
	cachedAt := e.CachedAt
	if cachedAt.IsZero() {
		cachedAt = m.now()
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO lyrics_cache (path, lyrics_ref, lrc, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			lyrics_ref = excluded.lyrics_ref,
			lrc = excluded.lrc,
			cached_at = excluded.cached_at
	`, e.Path, e.Ref, dbutil.NullString(e.Result.Text, e.Result.Found), dbutil.Millis(cachedAt))
	return err
}

// DeleteLyrics removes the entry for path.
func (m *Manager) DeleteLyrics(ctx context.Context, path string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM lyrics_cache WHERE path = ?`, path)
	return err
}

// PruneLyrics removes entries whose path is not in keep or whose ref no
// longer matches.
func (m *Manager) PruneLyrics(ctx context.Context, keep map[string]string) error {
	return dbutil.WithTx(ctx, m.db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT path, lyrics_ref FROM lyrics_cache`)
		if err != nil {
			return err
		}
		var stale []string
		for rows.Next() {
			var p, ref string
			if err := rows.Scan(&p, &ref); err != nil {
				rows.Close()
				return err
			}
			if want, ok := keep[p]; !ok || want != ref {
				stale = append(stale, p)
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `DELETE FROM lyrics_cache WHERE path = ?`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range stale {
			if _, err := stmt.ExecContext(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
