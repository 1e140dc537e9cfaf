package api

import (
	"encoding/json"
	"testing"
)

func TestParseCover(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantURL  string
		wantMIME string
		wantData string
		wantNil  bool
	}{
		{name: "null", raw: `null`, wantNil: true},
		{name: "empty string", raw: `""`, wantNil: true},
		{name: "url", raw: `"/covers/a.jpg"`, wantURL: "/covers/a.jpg"},
		{name: "data uri", raw: `"data:image/png;base64,aGk="`, wantMIME: "image/png", wantData: "hi"},
		{name: "object", raw: `{"format": "image/jpeg", "data": "aGk="}`, wantMIME: "image/jpeg", wantData: "hi"},
		{name: "bad base64", raw: `{"mime": "image/jpeg", "data": "!!"}`, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCover(json.RawMessage(tt.raw))
			if tt.wantNil {
				if got != nil {
					t.Errorf("parseCover(%s) = %+v, want nil", tt.raw, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("parseCover(%s) = nil", tt.raw)
			}
			if got.URL != tt.wantURL || got.MIMEType != tt.wantMIME || string(got.Data) != tt.wantData {
				t.Errorf("parseCover(%s) = %+v", tt.raw, got)
			}
		})
	}
}

func TestSongRecord_Track_YearAsNumber(t *testing.T) {
	var r SongRecord
	if err := json.Unmarshal([]byte(`{"path": "/a.mp3", "year": 2001}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got := r.Track().Tags.Year; got != "2001" {
		t.Errorf("Year = %q, want 2001", got)
	}
}

func TestTracks_SkipsEmptyPaths(t *testing.T) {
	got := Tracks([]SongRecord{{Path: ""}, {Path: "/a.mp3"}})

	if len(got) != 1 || got[0].Path != "/a.mp3" {
		t.Errorf("Tracks() = %+v", got)
	}
}
