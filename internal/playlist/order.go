package playlist

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// SortForLibrary orders tracks by artist, album, then title (falling back to
// path), case-insensitively. The sort is stable.
func SortForLibrary(tracks []Track) {
	sort.SliceStable(tracks, func(i, j int) bool {
		a, b := tracks[i], tracks[j]
		if c := compareFold(a.Tags.Artist, b.Tags.Artist); c != 0 {
			return c < 0
		}
		if c := compareFold(a.Tags.Album, b.Tags.Album); c != 0 {
			return c < 0
		}
		return compareFold(titleOrPath(a), titleOrPath(b)) < 0
	})
}

func titleOrPath(t Track) string {
	if t.Tags.Title != "" {
		return t.Tags.Title
	}
	return t.Path
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// FilterPlayable drops entries that are video assets rather than songs.
func FilterPlayable(tracks []Track) []Track {
	return lo.Filter(tracks, func(t Track, _ int) bool {
		return !strings.HasSuffix(strings.ToLower(t.Path), ".mp4")
	})
}

// NewArrivals returns tracks added after since, newest first.
func NewArrivals(tracks []Track, since time.Time) []Track {
	fresh := lo.Filter(tracks, func(t Track, _ int) bool {
		return !t.AddedAt.IsZero() && t.AddedAt.After(since)
	})
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].AddedAt.After(fresh[j].AddedAt)
	})
	return fresh
}

// FormatDuration formats a duration as MM:SS.
func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}
