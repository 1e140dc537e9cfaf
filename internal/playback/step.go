package playback

import "github.com/llehouerou/flux/internal/playlist"

// Action tells the audio output what to do after a navigation call.
type Action int

const (
	// ActionNone means nothing changed.
	ActionNone Action = iota
	// ActionPlay means load and play Step.Track.
	ActionPlay
	// ActionRestart means seek the current track to zero and keep playing.
	ActionRestart
	// ActionStop means stop output.
	ActionStop
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionPlay:
		return "Play"
	case ActionRestart:
		return "Restart"
	case ActionStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Step is the outcome of a navigation operation.
// Track is set for ActionPlay and ActionRestart.
type Step struct {
	Action Action
	Track  *playlist.Track
}

func playStep(t playlist.Track) Step {
	return Step{Action: ActionPlay, Track: &t}
}
