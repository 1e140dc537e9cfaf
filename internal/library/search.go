package library

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/llehouerou/flux/internal/playlist"
)

var (
	punctuationRe   = regexp.MustCompile(`[^\w\s]`)
	multipleSpaceRe = regexp.MustCompile(`\s+`)
)

// Normalize prepares text for comparison by:
// - Converting to lowercase
// - Replacing punctuation with spaces
// - Normalizing whitespace
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = multipleSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return s
}

// Search returns the tracks whose title, artist, album or path contain
// every word of query. An empty query matches everything.
func Search(tracks []playlist.Track, query string) []playlist.Track {
	words := strings.Fields(Normalize(query))
	if len(words) == 0 {
		return tracks
	}
	return lo.Filter(tracks, func(t playlist.Track, _ int) bool {
		hay := Normalize(strings.Join([]string{t.Tags.Title, t.Tags.Artist, t.Tags.Album, t.Path}, " "))
		return lo.EveryBy(words, func(w string) bool {
			return strings.Contains(hay, w)
		})
	})
}
