package library

import (
	"testing"

	"github.com/llehouerou/flux/internal/playlist"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Abbey Road", "abbey road"},
		{"THRILLER", "thriller"},
		{"Abbey Road: Remaster", "abbey road remaster"},
		{"What's Going On", "what s going on"},
		{"Hello-World", "hello world"},
		{"  Thriller  ", "thriller"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	tracks := []playlist.Track{
		{Path: "/1.mp3", Tags: playlist.Tags{Title: "Come Together", Artist: "The Beatles", Album: "Abbey Road"}},
		{Path: "/2.mp3", Tags: playlist.Tags{Title: "Billie Jean", Artist: "Michael Jackson", Album: "Thriller"}},
		{Path: "/3.mp3", Tags: playlist.Tags{Title: "Something", Artist: "The Beatles", Album: "Abbey Road"}},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"/1.mp3", "/2.mp3", "/3.mp3"}},
		{"beatles", []string{"/1.mp3", "/3.mp3"}},
		{"abbey something", []string{"/3.mp3"}},
		{"BILLIE-jean", []string{"/2.mp3"}},
		{"nothing here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := playlist.Paths(Search(tracks, tt.query))
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Search(%q)[%d] = %q, want %q", tt.query, i, got[i], tt.want[i])
				}
			}
		})
	}
}
