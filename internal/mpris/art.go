package mpris

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/llehouerou/flux/internal/playlist"
)

// artExtensions maps picture MIME types to file extensions.
var artExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ArtCache writes embedded artwork to disk so the OS can load it by URI.
type ArtCache struct {
	Dir     string
	Resolve func(ref string) string // turns a relative picture URL into an absolute one
}

// ArtURL returns an artwork URI for t, or "" when it has none.
// Remote pictures are returned as URLs. Embedded pictures are written
// once under Dir, keyed by track path.
func (c ArtCache) ArtURL(t playlist.Track) string {
	pic := t.Tags.Picture
	if pic == nil {
		return ""
	}
	if pic.URL != "" {
		if c.Resolve != nil {
			return c.Resolve(pic.URL)
		}
		return pic.URL
	}
	if len(pic.Data) == 0 || c.Dir == "" {
		return ""
	}

	ext, ok := artExtensions[strings.ToLower(pic.MIMEType)]
	if !ok {
		ext = ".img"
	}
	h := fnv.New64a()
	h.Write([]byte(t.Path))
	path := filepath.Join(c.Dir, fmt.Sprintf("%x%s", h.Sum64(), ext))

	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			return ""
		}
		if err := os.WriteFile(path, pic.Data, 0o600); err != nil {
			return ""
		}
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func formatTrackID(path string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
