package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/llehouerou/flux/internal/db"
)

// LastfmSession is a stored Last.fm link.
type LastfmSession struct {
	Username   string
	SessionKey string
	LinkedAt   time.Time
}

// GetLastfmSession returns the stored session, or nil if not linked.
func (m *Manager) GetLastfmSession(ctx context.Context) (*LastfmSession, error) {
	var s LastfmSession
	var linkedAt int64
	err := m.db.QueryRowContext(ctx, `
		SELECT username, session_key, linked_at FROM lastfm_session WHERE id = 1
	`).Scan(&s.Username, &s.SessionKey, &linkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil session means not linked
	}
	if err != nil {
		return nil, err
	}
	s.LinkedAt = dbutil.FromMillis(linkedAt)
	return &s, nil
}

// SaveLastfmSession stores the session after authentication.
func (m *Manager) SaveLastfmSession(ctx context.Context, username, sessionKey string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO lastfm_session (id, username, session_key, linked_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			session_key = excluded.session_key,
			linked_at = excluded.linked_at
	`, username, sessionKey, dbutil.Millis(m.now()))
	return err
}

// DeleteLastfmSession unlinks Last.fm.
func (m *Manager) DeleteLastfmSession(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM lastfm_session WHERE id = 1`)
	return err
}
