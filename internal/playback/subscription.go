package playback

import "time"

// subscriberBuffer is the per-channel buffer. Events beyond it are dropped
// for that subscriber only.
const subscriberBuffer = 16

// Subscription delivers engine events. The event channels are never
// closed; Done is closed when the engine shuts down.
type Subscription struct {
	StateChanged    <-chan StateChange
	TrackChanged    <-chan TrackChange
	PositionChanged <-chan PositionChange
	DurationChanged <-chan DurationChange
	QueueChanged    <-chan QueueChange
	ModeChanged     <-chan ModeChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state    chan StateChange
	track    chan TrackChange
	position chan PositionChange
	duration chan DurationChange
	queue    chan QueueChange
	mode     chan ModeChange
	errs     chan ErrorEvent
	done     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:    make(chan StateChange, subscriberBuffer),
		track:    make(chan TrackChange, subscriberBuffer),
		position: make(chan PositionChange, subscriberBuffer),
		duration: make(chan DurationChange, subscriberBuffer),
		queue:    make(chan QueueChange, subscriberBuffer),
		mode:     make(chan ModeChange, subscriberBuffer),
		errs:     make(chan ErrorEvent, subscriberBuffer),
		done:     make(chan struct{}),
	}
	s.StateChanged, s.TrackChanged, s.PositionChanged = s.state, s.track, s.position
	s.QueueChanged, s.ModeChanged, s.Error = s.queue, s.mode, s.errs
	s.DurationChanged = s.duration
	s.Done = s.done
	return s
}

// offer delivers v without blocking the engine.
func offer[T any](ch chan<- T, v T) {
	select {
	case ch <- v:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) close() { close(s.done) }

func (s *Subscription) sendState(e StateChange) { offer(s.state, e) }
func (s *Subscription) sendTrack(e TrackChange) { offer(s.track, e) }
func (s *Subscription) sendQueue(e QueueChange) { offer(s.queue, e) }
func (s *Subscription) sendMode(e ModeChange)   { offer(s.mode, e) }
func (s *Subscription) sendError(e ErrorEvent)  { offer(s.errs, e) }

func (s *Subscription) sendPosition(pos time.Duration) {
	offer(s.position, PositionChange{Position: pos})
}

func (s *Subscription) sendDuration(d time.Duration) {
	offer(s.duration, DurationChange{Duration: d})
}
