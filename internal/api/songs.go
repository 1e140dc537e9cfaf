package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/llehouerou/flux/internal/playlist"
)

const unknownAlbum = "Unknown Album"

// SongRecord is one entry of the backend song list. The backend sends tags
// either flat or nested under "tags"; flat fields win.
type SongRecord struct {
	Path        string          `json:"path"`
	Title       string          `json:"title,omitempty"`
	Artist      string          `json:"artist,omitempty"`
	Album       string          `json:"album,omitempty"`
	Year        json.RawMessage `json:"year,omitempty"`
	Genre       string          `json:"genre,omitempty"`
	Duration    float64         `json:"duration,omitempty"`
	Cover       json.RawMessage `json:"cover,omitempty"`
	Lyrics      string          `json:"lrc,omitempty"`
	Video       string          `json:"video,omitempty"`
	ArtistImage string          `json:"artistImage,omitempty"`
	Date        int64           `json:"date,omitempty"` // unix milliseconds
	Tags        *nestedTags     `json:"tags,omitempty"`
}

type nestedTags struct {
	Title    string          `json:"title,omitempty"`
	Artist   string          `json:"artist,omitempty"`
	Album    string          `json:"album,omitempty"`
	Year     json.RawMessage `json:"year,omitempty"`
	Genre    string          `json:"genre,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Picture  json.RawMessage `json:"picture,omitempty"`
}

type coverObject struct {
	MIME   string `json:"mime"`
	Format string `json:"format"`
	Data   string `json:"data"`
}

func decodeSongs(body []byte) ([]SongRecord, error) {
	var songs []SongRecord
	if err := json.Unmarshal(body, &songs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return songs, nil
}

// Track converts the record into a playlist track.
func (r SongRecord) Track() playlist.Track {
	nested := nestedTags{}
	if r.Tags != nil {
		nested = *r.Tags
	}

	tags := playlist.Tags{
		Title:    firstNonEmpty(r.Title, nested.Title),
		Artist:   firstNonEmpty(r.Artist, nested.Artist),
		Album:    firstNonEmpty(r.Album, nested.Album, unknownAlbum),
		Year:     firstNonEmpty(rawString(r.Year), rawString(nested.Year)),
		Genre:    firstNonEmpty(r.Genre, nested.Genre),
		Duration: seconds(r.Duration),
		Picture:  parseCover(r.Cover),
	}
	if tags.Duration == 0 {
		tags.Duration = seconds(nested.Duration)
	}
	if tags.Picture == nil {
		tags.Picture = parseCover(nested.Picture)
	}

	t := playlist.Track{
		Path:        r.Path,
		Tags:        tags,
		Loaded:      tags.Title != "" || tags.Artist != "",
		LyricsRef:   r.Lyrics,
		VideoRef:    r.Video,
		ArtistImage: r.ArtistImage,
	}
	if r.Date > 0 {
		t.AddedAt = time.UnixMilli(r.Date)
	}
	return t
}

// Tracks converts records into tracks, skipping records without a path.
func Tracks(records []SongRecord) []playlist.Track {
	tracks := make([]playlist.Track, 0, len(records))
	for _, r := range records {
		if r.Path == "" {
			continue
		}
		tracks = append(tracks, r.Track())
	}
	return tracks
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// rawString accepts both "2001" and 2001.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// parseCover accepts a URL string, a data URI or a {mime, data} object
// with base64 data.
func parseCover(raw json.RawMessage) *playlist.Picture {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "data:") {
			return parseDataURI(s)
		}
		return &playlist.Picture{URL: s}
	}

	var obj coverObject
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Data == "" {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(obj.Data)
	if err != nil {
		return nil
	}
	return &playlist.Picture{MIMEType: firstNonEmpty(obj.MIME, obj.Format), Data: data}
}

func parseDataURI(s string) *playlist.Picture {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return &playlist.Picture{MIMEType: mime, Data: []byte(payload)}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return &playlist.Picture{MIMEType: mime, Data: data}
}
