package lyrics

import (
	"bufio"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line represents a single timestamped lyric line.
type Line struct {
	Time time.Duration
	Text string
}

// Lyrics contains parsed lyrics with optional metadata.
type Lyrics struct {
	Lines  []Line
	Title  string
	Artist string
	Album  string
}

// IsSynced returns true if any line carries a timestamp.
func (l *Lyrics) IsSynced() bool {
	for _, line := range l.Lines {
		if line.Time > 0 {
			return true
		}
	}
	return false
}

// LineAt returns the index of the lyric line at the given playback position.
// Returns -1 if no line is active yet or if lyrics are unsynced.
func (l *Lyrics) LineAt(pos time.Duration) int {
	if len(l.Lines) == 0 || !l.IsSynced() {
		return -1
	}

	idx := sort.Search(len(l.Lines), func(i int) bool {
		return l.Lines[i].Time > pos
	})
	return idx - 1
}

var (
	// [mm:ss], [mm:ss.x], [mm:ss.xx], [mm:ss.xxx] and the [mm:ss:xx] variant
	timestampRe = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

	// [ar:Artist Name]
	metadataRe = regexp.MustCompile(`^\[([a-z]+):(.+)\]$`)
)

const bom = "\uFEFF"

// Parse parses LRC text. See ParseLRC.
func Parse(text string) *Lyrics {
	l, err := ParseLRC(strings.NewReader(text))
	if err != nil {
		return &Lyrics{}
	}
	return l
}

// ParseLRC parses LRC format lyrics from a reader. Lines without any
// timestamp are kept as unsynced text only when the whole input has no
// timestamp at all, so plain text lyrics still display.
func ParseLRC(r io.Reader) (*Lyrics, error) {
	lyrics := &Lyrics{}
	var plain []string

	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if meta := metadataRe.FindStringSubmatch(line); meta != nil {
			switch strings.ToLower(meta[1]) {
			case "ar":
				lyrics.Artist = strings.TrimSpace(meta[2])
			case "ti":
				lyrics.Title = strings.TrimSpace(meta[2])
			case "al":
				lyrics.Album = strings.TrimSpace(meta[2])
			}
			continue
		}

		// [00:12.34][00:45.67]Text repeats Text at both times.
		matches := timestampRe.FindAllStringSubmatchIndex(line, -1)
		if len(matches) == 0 || matches[0][0] != 0 {
			plain = append(plain, line)
			continue
		}

		text := strings.TrimSpace(line[matches[len(matches)-1][1]:])
		for _, m := range matches {
			ts, ok := parseTimestamp(line[m[0]:m[1]])
			if !ok {
				continue
			}
			// Empty text is kept: it marks instrumental breaks.
			lyrics.Lines = append(lyrics.Lines, Line{Time: ts, Text: text})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lyrics.Lines) == 0 {
		for _, text := range plain {
			lyrics.Lines = append(lyrics.Lines, Line{Text: text})
		}
		return lyrics, nil
	}

	sort.SliceStable(lyrics.Lines, func(i, j int) bool {
		return lyrics.Lines[i].Time < lyrics.Lines[j].Time
	})
	return lyrics, nil
}

func parseTimestamp(s string) (time.Duration, bool) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	minutes, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}

	var frac time.Duration
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, false
		}
		switch len(m[3]) {
		case 1:
			frac = time.Duration(n) * 100 * time.Millisecond
		case 2:
			frac = time.Duration(n) * 10 * time.Millisecond
		default:
			frac = time.Duration(n) * time.Millisecond
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second + frac, true
}
