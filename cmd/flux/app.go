package main

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/llehouerou/flux/internal/api"
	"github.com/llehouerou/flux/internal/config"
	"github.com/llehouerou/flux/internal/connectivity"
	"github.com/llehouerou/flux/internal/downloads"
	"github.com/llehouerou/flux/internal/errmsg"
	"github.com/llehouerou/flux/internal/library"
	"github.com/llehouerou/flux/internal/logging"
	"github.com/llehouerou/flux/internal/lyrics"
	"github.com/llehouerou/flux/internal/playlist"
	"github.com/llehouerou/flux/internal/state"
)

// app holds the services shared by every command.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	client    *api.Client
	state     *state.Manager
	downloads *downloads.Store // nil when local downloads are disabled
	lyrics    *lyrics.Cache
	library   *library.Provider
	conn      *connectivity.Monitor

	closers []io.Closer
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpConfigLoad, err))
	}

	logCfg := cfg.GetLogConfig()
	if verbose {
		logCfg.Level = zerolog.LevelDebugValue
	}
	logger, logCloser, err := logging.Setup(logCfg, os.Stderr)
	if err != nil {
		return nil, errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}

	a := &app{
		cfg:     cfg,
		log:     logger,
		client:  api.New(cfg.APIBase, api.WithLogger(logger)),
		closers: []io.Closer{logCloser},
	}

	st, err := state.Open(state.WithLogger(logger))
	if err != nil {
		_ = a.Close()
		return nil, errors.New(errmsg.Format(errmsg.OpInitialize, err))
	}
	a.state = st
	a.closers = append(a.closers, st)

	if cfg.DownloadsEnabled() {
		a.downloads = downloads.New(
			downloads.DirFS{Root: cfg.DownloadsDir()},
			a.client,
			downloads.WithLogger(logger),
		)
		a.downloads.Init()
	}

	a.lyrics = lyrics.New(a.client, a.lyricsOptions(ctx)...)

	libOpts := []library.Option{library.WithTagCache(st), library.WithLogger(logger)}
	if a.downloads != nil {
		libOpts = append(libOpts, library.WithDownloads(a.downloads))
	}
	a.library = library.New(a.client, libOpts...)

	offline := forceOffline || !cfg.HasAPIBase()
	if !cfg.HasAPIBase() {
		logger.Info().Msg("no api_base configured, running offline")
	}
	a.conn = connectivity.New(connectivity.WithOffline(offline), connectivity.WithLogger(logger))

	return a, nil
}

func (a *app) lyricsOptions(ctx context.Context) []lyrics.Option {
	lc := a.cfg.GetLyricsConfig()
	opts := []lyrics.Option{
		lyrics.WithMemoryEntries(lc.MemoryEntries),
		lyrics.WithLogger(a.log),
	}
	if a.downloads != nil {
		opts = append(opts, lyrics.WithLocal(a.downloads))
	}

	var store lyrics.Store = a.state
	if a.cfg.HasRedis() {
		rdb, err := lyrics.DialRedis(ctx, lc.RedisAddr)
		if err != nil {
			a.log.Warn().Err(err).Str("addr", lc.RedisAddr).Msg("redis unavailable, caching lyrics locally")
		} else {
			store = lyrics.NewRedisStore(rdb, a.cfg.RedisTTL())
			a.closers = append(a.closers, rdb)
		}
	}
	return append(opts, lyrics.WithStore(store))
}

func (a *app) offline() bool {
	return a.conn.Offline()
}

// lookup returns the library track at path, or a bare track when the
// library does not list it.
func (a *app) lookup(ctx context.Context, paths []string) []playlist.Track {
	res, err := a.library.Load(ctx, a.offline())
	if err != nil {
		a.log.Debug().Err(err).Msg("library unavailable for lookup")
	}
	tracks := make([]playlist.Track, 0, len(paths))
	for _, p := range paths {
		if i := playlist.IndexOf(res.Tracks, p); i >= 0 {
			tracks = append(tracks, res.Tracks[i])
			continue
		}
		tracks = append(tracks, playlist.Track{Path: p})
	}
	return tracks
}

// Close releases everything in reverse order of creation.
func (a *app) Close() error {
	if a.lyrics != nil {
		a.lyrics.Wait()
	}
	var errs []error
	for _, c := range slices.Backward(a.closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
