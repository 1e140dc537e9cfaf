// Package notify sends desktop notifications over D-Bus.
package notify

import (
	"sync"

	"github.com/llehouerou/flux/internal/playlist"
)

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// trackTimeout is how long a track announcement stays on screen, in ms.
const trackTimeout = 5000

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // summary, required
	Body       string  // optional, basic markup allowed
	Icon       string  // image path, file:// URI or icon name
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends n and returns its ID, or 0 when notifications are
	// unavailable.
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Tracks announces track changes, each announcement replacing the
// previous one.
type Tracks struct {
	n   Notifier
	art func(playlist.Track) string

	mu       sync.Mutex
	lastID   uint32
	lastPath string
}

// NewTracks creates a track announcer. art may be nil.
func NewTracks(n Notifier, art func(playlist.Track) string) *Tracks {
	return &Tracks{n: n, art: art}
}

// Announce shows t unless it is already the announced track.
func (t *Tracks) Announce(tr playlist.Track) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tr.Path == t.lastPath {
		return nil
	}

	n := Notification{
		Title:      tr.DisplayTitle(),
		Body:       trackBody(tr),
		Timeout:    trackTimeout,
		ReplacesID: t.lastID,
		Urgency:    UrgencyLow,
	}
	if t.art != nil {
		n.Icon = t.art(tr)
	}

	id, err := t.n.Notify(n)
	if err != nil {
		return err
	}
	t.lastID = id
	t.lastPath = tr.Path
	return nil
}

// Dismiss closes the current announcement.
func (t *Tracks) Dismiss() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastID == 0 {
		return nil
	}
	id := t.lastID
	t.lastID = 0
	t.lastPath = ""
	return t.n.Close(id)
}

func trackBody(tr playlist.Track) string {
	body := tr.DisplayArtist()
	if tr.Tags.Album != "" {
		body += " - " + tr.Tags.Album
	}
	return body
}
