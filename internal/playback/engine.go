// Package playback implements the play queue state machine: current track,
// shuffle and repeat modes, the "play next" insertion queue, an optional
// playlist context and the consecutive error breaker.
//
// The engine never touches audio. Navigation methods return a Step telling
// the audio output what to do, and position/duration flow back in through
// SetPosition and SetDuration.
package playback

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/llehouerou/flux/internal/playlist"
)

const (
	// DefaultLookahead is the number of base-list tracks shown after the
	// insertion queue by DisplayQueue.
	DefaultLookahead = 50

	restartThreshold = 3 * time.Second
)

// ErrTooManyErrors is reported in the ErrorEvent sent when the error
// breaker stops playback.
var ErrTooManyErrors = errors.New("too many consecutive playback errors")

// Recorder receives a play record each time current is set.
// RecordPlay is called with the engine lock held and must not block.
type Recorder interface {
	RecordPlay(t playlist.Track)
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Current        *playlist.Track
	IsPlaying      bool
	Shuffle        bool
	Repeat         RepeatMode
	VideoMode      bool
	InsertionQueue []playlist.Track
	Context        []playlist.Track // nil when the global library governs
	ShuffledOrder  []playlist.Track
	History        []playlist.Track
	UpNext         []playlist.Track
	Position       time.Duration
	Duration       time.Duration
}

// State returns the playback state implied by the snapshot.
func (s Snapshot) State() State {
	return stateOf(s.Current, s.IsPlaying)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock sets the time source used by the error breaker.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecorder sets the play record sink.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "playback").Logger() }
}

// WithHistorySize overrides the session history capacity.
func WithHistorySize(n int) Option {
	return func(e *Engine) { e.history = playlist.NewHistory(n) }
}

// Engine is the playback queue state machine.
type Engine struct {
	mu sync.Mutex

	library  []playlist.Track
	context  []playlist.Track
	shuffled []playlist.Track
	current  *playlist.Track

	// anchor is the path of the last track chosen from the base list.
	// While current came from the insertion queue, Advance resumes after
	// the anchor.
	anchor    string
	fromQueue bool

	playing bool
	shuffle bool
	video   bool
	repeat  RepeatMode

	queue   *playlist.InsertionQueue
	history *playlist.History

	position time.Duration
	duration time.Duration

	breaker  errorBreaker
	rng      *rand.Rand
	now      func() time.Time
	recorder Recorder
	log      zerolog.Logger

	subs   []*Subscription
	closed bool
}

// New creates an engine with an empty library.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:   playlist.NewQueue(),
		history: playlist.NewHistory(playlist.DefaultHistorySize),
		breaker: newErrorBreaker(),
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(e.now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	return e
}

// PlayTrack makes track current and starts playing. A non-empty context
// becomes the authoritative list for navigation; without one the global
// library governs.
func (e *Engine) PlayTrack(track playlist.Track, context ...playlist.Track) Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ctx []playlist.Track
	if len(context) > 0 {
		ctx = playlist.Clone(context)
	}
	prevBase := e.baseLocked()
	e.context = ctx
	if e.shuffle && !playlist.SamePaths(prevBase, e.baseLocked()) {
		e.reshuffleLocked()
	}

	e.setCurrentLocked(track, false)
	e.setPlayingLocked(true)
	return playStep(track)
}

// InsertNext makes track the immediate next track.
func (e *Engine) InsertNext(track playlist.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.PushFront(track)
	e.emitQueueLocked()
}

// RemoveQueued drops the insertion queue entry at index.
func (e *Engine) RemoveQueued(index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.queue.RemoveAt(index) {
		return false
	}
	e.emitQueueLocked()
	return true
}

// ClearQueue empties the insertion queue.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.IsEmpty() {
		return
	}
	e.queue.Clear()
	e.emitQueueLocked()
}

// Advance moves to the next track: the insertion queue first, then the
// successor of current in the target list, wrapping at the end. After the
// queue drains, navigation resumes after the last base-list track. Repeat
// mode is not consulted.
func (e *Engine) Advance() Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.advanceLocked()
}

func (e *Engine) advanceLocked() Step {
	if next, ok := e.queue.PopFront(); ok {
		e.emitQueueLocked()
		e.setCurrentLocked(next, true)
		e.setPlayingLocked(true)
		return playStep(next)
	}

	target := e.targetLocked()
	if len(target) == 0 {
		e.log.Warn().Msg("advance: no tracks to play")
		return Step{}
	}

	next := target[0]
	if idx := e.navIndexLocked(target); idx >= 0 {
		next = target[(idx+1)%len(target)]
	}
	e.setCurrentLocked(next, false)
	e.setPlayingLocked(true)
	return playStep(next)
}

// Reverse restarts current when more than three seconds have played,
// otherwise moves to the predecessor of current, wrapping at the start.
// When current is not in the target list the last element is chosen. The
// insertion queue is never consulted. Without a current track it does
// nothing.
func (e *Engine) Reverse() Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Step{}
	}
	if e.position > restartThreshold {
		return e.restartLocked()
	}

	target := e.targetLocked()
	if len(target) == 0 {
		e.log.Warn().Msg("reverse: no tracks to play")
		return Step{}
	}

	n := len(target)
	prev := target[n-1]
	if i := e.currentIndexLocked(target); i >= 0 {
		prev = target[(i-1+n)%n]
	}
	e.setCurrentLocked(prev, false)
	e.setPlayingLocked(true)
	return playStep(prev)
}

// OnTrackEnded handles the end of the current track.
func (e *Engine) OnTrackEnded() Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.repeat == RepeatOne && e.current != nil {
		e.setPlayingLocked(true)
		return e.restartLocked()
	}
	return e.advanceLocked()
}

// OnPlaybackError skips to the next track unless errors keep coming, in
// which case playback stops.
func (e *Engine) OnPlaybackError(err error) Step {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := ""
	if e.current != nil {
		path = e.current.Path
	}
	e.log.Warn().Err(err).Str("path", path).Msg("playback error")

	if e.breaker.record(e.now()) {
		e.setPlayingLocked(false)
		e.emitErrorLocked(ErrorEvent{Operation: "playback", Path: path, Err: ErrTooManyErrors})
		e.log.Error().Str("path", path).Msg("stopping after consecutive playback errors")
		return Step{Action: ActionStop}
	}
	return e.advanceLocked()
}

// DisplayQueue returns the insertion queue followed by up to lookahead
// tracks after current in the ordered list. When current is not in that
// list only the insertion queue is returned.
func (e *Engine) DisplayQueue(lookahead int) []playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.displayQueueLocked(lookahead)
}

func (e *Engine) displayQueueLocked(lookahead int) []playlist.Track {
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	result := e.queue.Tracks()

	ordered := e.baseLocked()
	if e.shuffle {
		ordered = e.shuffled
	}
	idx := e.currentIndexLocked(ordered)
	if idx < 0 {
		return result
	}
	end := min(idx+1+lookahead, len(ordered))
	return append(result, ordered[idx+1:end]...)
}

// SetLibrary replaces the global library. Tag copies held for current and
// for the shuffled order are refreshed by path.
func (e *Engine) SetLibrary(tracks []playlist.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.library
	e.library = playlist.Clone(tracks)

	if e.context == nil && e.shuffle && !playlist.SamePaths(prev, e.library) {
		e.reshuffleLocked()
	} else if len(e.shuffled) > 0 {
		byPath := lo.KeyBy(e.library, func(t playlist.Track) string { return t.Path })
		for i := range e.shuffled {
			if t, ok := byPath[e.shuffled[i].Path]; ok {
				e.shuffled[i] = t
			}
		}
	}

	if e.current != nil {
		if i := playlist.IndexOf(e.library, e.current.Path); i >= 0 {
			t := e.library[i]
			e.current = &t
		}
	}
}

// SetShuffle enables or disables shuffle. Enabling computes a new
// permutation of the active base list; disabling clears it.
func (e *Engine) SetShuffle(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setShuffleLocked(enabled)
}

// ToggleShuffle flips shuffle and returns the new value.
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setShuffleLocked(!e.shuffle)
	return e.shuffle
}

func (e *Engine) setShuffleLocked(enabled bool) {
	if e.shuffle == enabled {
		return
	}
	e.shuffle = enabled
	if enabled {
		e.reshuffleLocked()
	} else {
		e.shuffled = nil
	}
	e.emitModeLocked()
}

// Shuffle reports whether shuffle is on.
func (e *Engine) Shuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shuffle
}

// SetRepeatMode sets the repeat mode.
func (e *Engine) SetRepeatMode(mode RepeatMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.repeat == mode {
		return
	}
	e.repeat = mode
	e.emitModeLocked()
}

// CycleRepeatMode advances off -> all -> one -> off and returns the new mode.
func (e *Engine) CycleRepeatMode() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repeat = e.repeat.Next()
	e.emitModeLocked()
	return e.repeat
}

// RepeatMode returns the repeat mode.
func (e *Engine) RepeatMode() RepeatMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repeat
}

// SetPlaying sets the playing flag.
func (e *Engine) SetPlaying(playing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPlayingLocked(playing)
}

// TogglePlay flips the playing flag and returns the new value.
// It does nothing without a current track.
func (e *Engine) TogglePlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return false
	}
	e.setPlayingLocked(!e.playing)
	return e.playing
}

// SetVideoMode switches between audio and video rendering of current.
func (e *Engine) SetVideoMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.video = enabled
}

// SetPosition records the playback position reported by the audio output.
func (e *Engine) SetPosition(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	for _, sub := range e.subs {
		sub.sendPosition(position)
	}
}

// SetDuration records the duration reported by the audio output.
func (e *Engine) SetDuration(duration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.duration == duration {
		return
	}
	e.duration = duration
	for _, sub := range e.subs {
		sub.sendDuration(duration)
	}
}

// Current returns a copy of the current track, or nil.
func (e *Engine) Current() *playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	t := *e.current
	return &t
}

// State returns the playback state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return stateOf(e.current, e.playing)
}

// History returns the session history, most recent first.
func (e *Engine) History() []playlist.Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Tracks()
}

// RestoreHistory replaces the session history, most recent first.
func (e *Engine) RestoreHistory(tracks []playlist.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Restore(tracks)
}

// Snapshot returns a copy of the engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var cur *playlist.Track
	if e.current != nil {
		t := *e.current
		cur = &t
	}
	return Snapshot{
		Current:        cur,
		IsPlaying:      e.playing,
		Shuffle:        e.shuffle,
		Repeat:         e.repeat,
		VideoMode:      e.video,
		InsertionQueue: e.queue.Tracks(),
		Context:        playlist.Clone(e.context),
		ShuffledOrder:  playlist.Clone(e.shuffled),
		History:        e.history.Tracks(),
		UpNext:         e.displayQueueLocked(DefaultLookahead),
		Position:       e.position,
		Duration:       e.duration,
	}
}

// Subscribe returns a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub := newSubscription()
	if e.closed {
		sub.close()
		return sub
	}
	e.subs = append(e.subs, sub)
	return sub
}

// Close signals every subscriber to stop.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	return nil
}

func (e *Engine) baseLocked() []playlist.Track {
	if e.context != nil {
		return e.context
	}
	return e.library
}

func (e *Engine) targetLocked() []playlist.Track {
	if e.shuffle && len(e.shuffled) > 0 {
		return e.shuffled
	}
	return e.baseLocked()
}

func (e *Engine) currentIndexLocked(list []playlist.Track) int {
	if e.current == nil {
		return -1
	}
	return playlist.IndexOf(list, e.current.Path)
}

// anchorIndexLocked returns the anchor index in list while current came
// from the insertion queue, or -1.
func (e *Engine) anchorIndexLocked(list []playlist.Track) int {
	if !e.fromQueue || e.anchor == "" {
		return -1
	}
	return playlist.IndexOf(list, e.anchor)
}

// navIndexLocked returns the position navigation continues from.
func (e *Engine) navIndexLocked(list []playlist.Track) int {
	if i := e.anchorIndexLocked(list); i >= 0 {
		return i
	}
	return e.currentIndexLocked(list)
}

func (e *Engine) reshuffleLocked() {
	e.shuffled = playlist.Clone(e.baseLocked())
	e.rng.Shuffle(len(e.shuffled), func(i, j int) {
		e.shuffled[i], e.shuffled[j] = e.shuffled[j], e.shuffled[i]
	})
}

func (e *Engine) setCurrentLocked(t playlist.Track, queued bool) {
	prev := e.current
	cur := t
	e.current = &cur
	e.fromQueue = queued
	if !queued {
		e.anchor = t.Path
	}
	e.position = 0
	e.duration = t.Tags.Duration
	e.history.Push(t)
	if e.recorder != nil {
		e.recorder.RecordPlay(t)
	}

	for _, sub := range e.subs {
		c := cur
		sub.sendTrack(TrackChange{Previous: prev, Current: &c})
	}
}

func (e *Engine) restartLocked() Step {
	e.position = 0
	for _, sub := range e.subs {
		sub.sendPosition(0)
	}
	t := *e.current
	return Step{Action: ActionRestart, Track: &t}
}

func (e *Engine) setPlayingLocked(playing bool) {
	prev := stateOf(e.current, e.playing)
	e.playing = playing
	cur := stateOf(e.current, e.playing)
	if prev == cur {
		return
	}
	for _, sub := range e.subs {
		sub.sendState(StateChange{Previous: prev, Current: cur})
	}
}

func (e *Engine) emitQueueLocked() {
	for _, sub := range e.subs {
		sub.sendQueue(QueueChange{Tracks: e.queue.Tracks()})
	}
}

func (e *Engine) emitModeLocked() {
	for _, sub := range e.subs {
		sub.sendMode(ModeChange{RepeatMode: e.repeat, Shuffle: e.shuffle})
	}
}

func (e *Engine) emitErrorLocked(ev ErrorEvent) {
	for _, sub := range e.subs {
		sub.sendError(ev)
	}
}

func stateOf(current *playlist.Track, playing bool) State {
	switch {
	case current == nil:
		return StateStopped
	case playing:
		return StatePlaying
	default:
		return StatePaused
	}
}
