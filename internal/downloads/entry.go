package downloads

import (
	"path"
	"regexp"
	"time"

	"github.com/llehouerou/flux/internal/playlist"
)

// Entry is one downloaded track in the persisted index.
// JSON names match the index written by the mobile client.
type Entry struct {
	SourcePath   string         `json:"originalPath"`
	LocalAudio   string         `json:"localAudioPath"`
	LocalLyrics  string         `json:"localLrcPath,omitempty"`
	Tags         *playlist.Tags `json:"tags,omitempty"`
	ArtistImage  string         `json:"artistImage,omitempty"`
	DownloadedAt int64          `json:"downloadedAt"` // unix milliseconds
}

// DownloadedTime returns DownloadedAt as a time.
func (e Entry) DownloadedTime() time.Time {
	return time.UnixMilli(e.DownloadedAt)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// sanitizeFilename keeps the basename of p with every character outside
// [a-zA-Z0-9.-] replaced by an underscore.
func sanitizeFilename(p string) string {
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return unsafeFilenameChars.ReplaceAllString(base, "_")
}
