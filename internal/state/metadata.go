package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	dbutil "github.com/llehouerou/flux/internal/db"
	"github.com/llehouerou/flux/internal/playlist"
)

// LoadTags returns the cached tags for path.
func (m *Manager) LoadTags(ctx context.Context, path string) (playlist.Tags, bool, error) {
	var raw string
	err := m.db.QueryRowContext(ctx, `SELECT tags_json FROM track_metadata WHERE path = ?`, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return playlist.Tags{}, false, nil
	}
	if err != nil {
		return playlist.Tags{}, false, err
	}
	var tags playlist.Tags
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return playlist.Tags{}, false, fmt.Errorf("decode tags for %s: %w", path, err)
	}
	return tags, true, nil
}

// AllTags returns every cached tag set keyed by path. Undecodable rows
// are skipped.
func (m *Manager) AllTags(ctx context.Context) (map[string]playlist.Tags, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT path, tags_json FROM track_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]playlist.Tags)
	for rows.Next() {
		var p, raw string
		if err := rows.Scan(&p, &raw); err != nil {
			return nil, err
		}
		var tags playlist.Tags
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			m.log.Debug().Err(err).Str("path", p).Msg("skip cached tags")
			continue
		}
		out[p] = tags
	}
	return out, rows.Err()
}

// SaveTags caches tags for path.
func (m *Manager) SaveTags(ctx context.Context, path string, tags playlist.Tags) error {
	raw, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO track_metadata (path, tags_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			tags_json = excluded.tags_json,
			updated_at = excluded.updated_at
	`, path, string(raw), dbutil.Millis(m.now()))
	return err
}
