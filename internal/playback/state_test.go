// internal/playback/state_test.go
package playback

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StatePlaying, "Playing"},
		{StatePaused, "Paused"},
		{State(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_IsActive(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateStopped, false},
		{StatePlaying, true},
		{StatePaused, true},
	}
	for _, tt := range tests {
		if got := tt.state.IsActive(); got != tt.want {
			t.Errorf("%v.IsActive() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRepeatMode_String(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want string
	}{
		{RepeatOff, "Off"},
		{RepeatAll, "All"},
		{RepeatOne, "One"},
		{RepeatMode(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestRepeatMode_Next_Cycles(t *testing.T) {
	mode := RepeatOff
	want := []RepeatMode{RepeatAll, RepeatOne, RepeatOff}
	for i, w := range want {
		mode = mode.Next()
		if mode != w {
			t.Errorf("step %d: Next() = %v, want %v", i, mode, w)
		}
	}
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RepeatMode
		wantErr bool
	}{
		{"off", RepeatOff, false},
		{"ALL", RepeatAll, false},
		{" one ", RepeatOne, false},
		{"", RepeatOff, false},
		{"radio", RepeatOff, true},
	}
	for _, tt := range tests {
		got, err := ParseRepeatMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRepeatMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseRepeatMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
