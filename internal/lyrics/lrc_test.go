package lyrics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineTimes(l *Lyrics) []time.Duration {
	out := make([]time.Duration, len(l.Lines))
	for i, line := range l.Lines {
		out[i] = line.Time
	}
	return out
}

func lineTexts(l *Lyrics) []string {
	out := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		out[i] = line.Text
	}
	return out
}

func TestParseLRC_HeaderAndLines(t *testing.T) {
	in := "[ar:Some Band]\n[ti:A Song]\n[al:The Record]\n[length:03:20]\n" +
		"[00:12.34]First line\n[00:15.67]Second line\n[00:20.00]Third line"

	l, err := ParseLRC(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "Some Band", l.Artist)
	assert.Equal(t, "A Song", l.Title)
	assert.Equal(t, "The Record", l.Album)
	assert.Equal(t, []string{"First line", "Second line", "Third line"}, lineTexts(l))
	assert.Equal(t, []time.Duration{
		12*time.Second + 340*time.Millisecond,
		15*time.Second + 670*time.Millisecond,
		20 * time.Second,
	}, lineTimes(l))
	assert.True(t, l.IsSynced())
}

func TestParseLRC_Timestamps(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"[00:10]x", 10 * time.Second},
		{"[00:20.5]x", 20*time.Second + 500*time.Millisecond},
		{"[00:30.50]x", 30*time.Second + 500*time.Millisecond},
		{"[00:40.500]x", 40*time.Second + 500*time.Millisecond},
		{"[01:00:00]x", time.Minute},
		{"[100:01.00]x", 100*time.Minute + time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			l := Parse(tt.in)
			require.Len(t, l.Lines, 1)
			assert.Equal(t, tt.want, l.Lines[0].Time)
		})
	}
}

func TestParseLRC_RepeatedTimestampsSorted(t *testing.T) {
	l := Parse("[02:30.00][00:30.00]Chorus\n[01:00.00]Verse\n[01:30.00]Chorus again")

	assert.Equal(t, []time.Duration{30 * time.Second, time.Minute, 90 * time.Second, 150 * time.Second}, lineTimes(l))
	assert.Equal(t, []string{"Chorus", "Verse", "Chorus again", "Chorus"}, lineTexts(l))
}

func TestParseLRC_BOMAndBlankLines(t *testing.T) {
	l := Parse("\uFEFF[ti:Song]\n\n[00:01.00]Hello\n\n[00:02.00]World\n")

	assert.Equal(t, "Song", l.Title)
	assert.Equal(t, []string{"Hello", "World"}, lineTexts(l))
}

func TestParseLRC_InstrumentalBreakKept(t *testing.T) {
	l := Parse("[00:01.00]Verse\n[00:05.00]\n[00:09.00]Verse again")

	assert.Equal(t, []string{"Verse", "", "Verse again"}, lineTexts(l))
}

func TestParseLRC_PlainText(t *testing.T) {
	l := Parse("First line\nSecond line\n")

	assert.Equal(t, []string{"First line", "Second line"}, lineTexts(l))
	assert.False(t, l.IsSynced())
	assert.Equal(t, -1, l.LineAt(time.Minute))
}

func TestParseLRC_UntimedLinesDroppedFromSyncedText(t *testing.T) {
	l := Parse("credits line\n[00:01.00]Verse")

	assert.Equal(t, []string{"Verse"}, lineTexts(l))
}

func TestParse_Empty(t *testing.T) {
	l := Parse("")

	assert.Empty(t, l.Lines)
	assert.Equal(t, -1, l.LineAt(10*time.Second))
}

func TestLyrics_LineAt(t *testing.T) {
	l := &Lyrics{Lines: []Line{
		{Time: 10 * time.Second, Text: "First"},
		{Time: 20 * time.Second, Text: "Second"},
		{Time: 30 * time.Second, Text: "Third"},
	}}

	tests := []struct {
		pos  time.Duration
		want int
	}{
		{0, -1},
		{5 * time.Second, -1},
		{10 * time.Second, 0},
		{15 * time.Second, 0},
		{20 * time.Second, 1},
		{29 * time.Second, 1},
		{30 * time.Second, 2},
		{time.Hour, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.LineAt(tt.pos), "LineAt(%v)", tt.pos)
	}
}
