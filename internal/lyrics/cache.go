// Package lyrics resolves, caches and parses lyrics.
//
// Cache resolves lyrics through an ordered tier chain: memory, the
// persistent store, the lyrics file of a downloaded track, the offline gate
// and finally the network. Entries are keyed by (path, lyrics ref) so a
// changed ref upstream is a miss rather than stale text.
package lyrics

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/llehouerou/flux/internal/playlist"
)

// DefaultMemoryEntries is the default capacity of the memory tier.
const DefaultMemoryEntries = 512

// Result is resolved lyrics text. Found is false when the track has no
// lyrics; that answer is cached like any other.
type Result struct {
	Text  string
	Found bool
}

// Missing is the "no lyrics" result.
var Missing = Result{}

// Found returns a result holding text.
func Found(text string) Result {
	return Result{Text: text, Found: true}
}

type stage struct {
	tier     Tier
	remember bool // write hits to memory
	persist  bool // write hits to the store
}

// Cache is the multi-tier lyrics cache.
type Cache struct {
	mem     *lru.Cache[string, Entry]
	store   Store
	local   LocalSource
	fetcher Fetcher
	stages  []stage

	group    singleflight.Group
	mu       sync.Mutex
	inflight map[string]int
	wg       sync.WaitGroup

	memSize int
	now     func() time.Time
	log     zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore sets the persistent tier.
func WithStore(s Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithLocal sets the downloaded-lyrics tier.
func WithLocal(l LocalSource) Option {
	return func(c *Cache) { c.local = l }
}

// WithMemoryEntries sets the memory tier capacity.
func WithMemoryEntries(n int) Option {
	return func(c *Cache) { c.memSize = n }
}

// WithClock sets the time source for CachedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.log = l.With().Str("component", "lyrics").Logger() }
}

// New creates a cache. A nil fetcher disables the network tier.
func New(fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		inflight: make(map[string]int),
		memSize:  DefaultMemoryEntries,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.memSize <= 0 {
		c.memSize = DefaultMemoryEntries
	}
	// Only fails for a non-positive size.
	c.mem, _ = lru.New[string, Entry](c.memSize)

	c.stages = []stage{{tier: memoryTier{c.mem}}}
	if c.store != nil {
		c.stages = append(c.stages, stage{tier: storeTier{c.store}, remember: true})
	}
	if c.local != nil {
		c.stages = append(c.stages, stage{tier: localTier{c.local}, remember: true, persist: true})
	}
	c.stages = append(c.stages, stage{tier: offlineTier{}, remember: true})
	if c.fetcher != nil {
		c.stages = append(c.stages, stage{
			tier:     networkTier{fetcher: c.fetcher, log: c.log},
			remember: true,
			persist:  true,
		})
	}
	return c
}

// Tiers returns the tier names in resolution order.
func (c *Cache) Tiers() []string {
	names := make([]string, len(c.stages))
	for i, st := range c.stages {
		names[i] = st.tier.Name()
	}
	return names
}

// Get resolves lyrics for path. Concurrent calls for the same path and ref
// share one resolution. An empty ref resolves to a cached Missing without
// any lookup.
func (c *Cache) Get(ctx context.Context, path, ref string, offline bool) Result {
	c.begin(path)
	defer c.end(path)
	return c.get(ctx, path, ref, offline)
}

func (c *Cache) get(ctx context.Context, path, ref string, offline bool) Result {
	if ref == "" {
		c.remember(path, ref, Missing)
		return Missing
	}
	if r, ok := c.GetSync(path, ref); ok {
		return r
	}

	v, _, _ := c.group.Do(path+"\x00"+ref, func() (any, error) {
		return c.resolve(ctx, Query{Path: path, Ref: ref, Offline: offline}), nil
	})
	r, _ := v.(Result)
	return r
}

func (c *Cache) resolve(ctx context.Context, q Query) Result {
	for _, st := range c.stages {
		out, err := st.tier.Lookup(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return Missing
			}
			c.log.Warn().Err(err).
				Str("tier", st.tier.Name()).
				Str("path", q.Path).
				Msg("lyrics tier failed")
			continue
		}
		if !out.Hit {
			continue
		}

		if st.remember {
			c.remember(q.Path, q.Ref, out.Result)
		}
		if st.persist && c.store != nil {
			e := Entry{Path: q.Path, Ref: q.Ref, Result: out.Result, CachedAt: c.now()}
			if err := c.store.SaveLyrics(ctx, e); err != nil {
				c.log.Warn().Err(err).Str("path", q.Path).Msg("persist lyrics")
			}
		}
		c.log.Debug().
			Str("tier", st.tier.Name()).
			Str("path", q.Path).
			Bool("found", out.Result.Found).
			Msg("lyrics resolved")
		return out.Result
	}
	return Missing
}

// GetSync returns the memory tier entry for path. It reports false on a
// miss or when the cached ref differs from ref.
func (c *Cache) GetSync(path, ref string) (Result, bool) {
	e, ok := c.mem.Get(path)
	if !ok || e.Ref != ref {
		return Missing, false
	}
	return e.Result, true
}

// Prefetch resolves lyrics for tracks in the background, skipping tracks
// already fresh in memory or being resolved.
func (c *Cache) Prefetch(ctx context.Context, tracks []playlist.Track, offline bool) {
	for _, t := range tracks {
		if _, ok := c.GetSync(t.Path, t.LyricsRef); ok {
			continue
		}
		if !c.tryBegin(t.Path) {
			continue
		}
		c.wg.Add(1)
		go func(t playlist.Track) {
			defer c.wg.Done()
			defer c.end(t.Path)
			c.get(ctx, t.Path, t.LyricsRef, offline)
		}(t)
	}
}

// Wait blocks until background prefetches finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

// Invalidate drops path from memory and the persistent store.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	c.mem.Remove(path)
	if c.store == nil {
		return
	}
	if err := c.store.DeleteLyrics(ctx, path); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("delete persisted lyrics")
	}
}

// Clear empties the memory tier.
func (c *Cache) Clear() {
	c.mem.Purge()
}

// SyncWithSongList purges entries whose track vanished from tracks or
// whose lyrics ref changed. It returns the number of memory entries
// dropped.
func (c *Cache) SyncWithSongList(ctx context.Context, tracks []playlist.Track) (int, error) {
	keep := make(map[string]string, len(tracks))
	for _, t := range tracks {
		keep[t.Path] = t.LyricsRef
	}

	removed := 0
	for _, path := range c.mem.Keys() {
		e, ok := c.mem.Peek(path)
		if !ok {
			continue
		}
		if ref, ok := keep[path]; !ok || ref != e.Ref {
			c.mem.Remove(path)
			removed++
		}
	}

	if c.store == nil {
		return removed, nil
	}
	return removed, c.store.PruneLyrics(ctx, keep)
}

func (c *Cache) remember(path, ref string, r Result) {
	c.mem.Add(path, Entry{Path: path, Ref: ref, Result: r, CachedAt: c.now()})
}

func (c *Cache) begin(path string) {
	c.mu.Lock()
	c.inflight[path]++
	c.mu.Unlock()
}

func (c *Cache) tryBegin(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[path] > 0 {
		return false
	}
	c.inflight[path]++
	return true
}

func (c *Cache) end(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[path] <= 1 {
		delete(c.inflight, path)
		return
	}
	c.inflight[path]--
}

type memoryTier struct {
	mem *lru.Cache[string, Entry]
}

func (memoryTier) Name() string { return "memory" }

func (t memoryTier) Lookup(_ context.Context, q Query) (Outcome, error) {
	e, ok := t.mem.Get(q.Path)
	if !ok || e.Ref != q.Ref {
		return miss, nil
	}
	return hit(e.Result), nil
}
