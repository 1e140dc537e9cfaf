package state

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/llehouerou/flux/internal/playback"
)

// PlayerState is the persisted mode state.
type PlayerState struct {
	Repeat  playback.RepeatMode
	Shuffle bool
}

// GetPlayerState returns the saved modes, or the zero value when none
// were saved.
func (m *Manager) GetPlayerState(ctx context.Context) (PlayerState, error) {
	var repeat int
	var shuffle bool
	err := m.db.QueryRowContext(ctx, `
		SELECT repeat_mode, shuffle FROM player_state WHERE id = 1
	`).Scan(&repeat, &shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{}, nil
	}
	if err != nil {
		return PlayerState{}, err
	}
	return PlayerState{Repeat: playback.RepeatMode(repeat), Shuffle: shuffle}, nil
}

// SavePlayerState schedules a save. Calls within the debounce window
// collapse into one write of the latest state.
func (m *Manager) SavePlayerState(ps PlayerState) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &ps

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			if err := savePlayerState(m.db, *pending); err != nil {
				m.log.Warn().Err(err).Msg("save player state")
			}
		}
	})
}

func savePlayerState(db *sql.DB, ps PlayerState) error {
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO player_state (id, repeat_mode, shuffle)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repeat_mode = excluded.repeat_mode,
			shuffle = excluded.shuffle
	`, int(ps.Repeat), ps.Shuffle)
	return err
}
