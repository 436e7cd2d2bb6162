// Package session wires the gateway, store and prompter into the curation workflow.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/blacklist"
	"github.com/toozej/spotseed/internal/playlist"
	"github.com/toozej/spotseed/internal/recommend"
	"github.com/toozej/spotseed/internal/seed"
	"github.com/toozej/spotseed/internal/types"
	"github.com/toozej/spotseed/pkg/config"
)

// Options are the per-run choices made on the command line.
type Options struct {
	Basis      seed.Basis
	SeedCount  int
	Input      string
	Limit      int
	Tunes      []string
	Preserve   bool
	Name       string
	Play       bool
	Device     string
	Preset     string
	SavePreset string
}

// Outcome summarizes a completed run.
type Outcome struct {
	Request  *types.RecommendationRequest
	Tracks   *recommend.Result
	Playlist *playlist.Result
	Warnings []string
}

// Session holds everything one invocation needs; nothing in the workflow is global.
type Session struct {
	Spotify  types.SpotifyService
	Store    types.ConfigStore
	Prompter types.Prompter
	Logger   *logrus.Logger

	defaultLimit    int
	playlistPrefix  string
	maxEmptyBatches int
}

// New creates a session using the run defaults in cfg.
func New(spotify types.SpotifyService, store types.ConfigStore, prompter types.Prompter, cfg config.StoreConfig, logger *logrus.Logger) *Session {
	limit := cfg.DefaultLimit
	if limit < 1 || limit > types.MaxLimit {
		limit = 20
	}
	return &Session{
		Spotify:         spotify,
		Store:           store,
		Prompter:        prompter,
		Logger:          logger,
		defaultLimit:    limit,
		playlistPrefix:  cfg.PlaylistPrefix,
		maxEmptyBatches: cfg.MaxEmptyBatches,
	}
}

// Blacklist returns a blacklist manager bound to the session.
func (s *Session) Blacklist() *blacklist.Manager {
	return blacklist.NewManager(s.Spotify, s.Store, s.Logger)
}

// Generate runs one curation: seeds, tuning, filtered recommendations and
// playlist reconciliation. The preset is saved only after the playlist is written.
func (s *Session) Generate(ctx context.Context, opts Options) (*Outcome, error) {
	req, err := s.request(ctx, opts)
	if err != nil {
		return nil, err
	}

	warnings, err := seed.ApplyTunes(req, opts.Tunes, s.Logger)
	if err != nil {
		return nil, err
	}

	if opts.Name != "" {
		req.PlaylistName = opts.Name
	}
	if opts.Play {
		req.AutoPlay = true
	}
	if opts.Device != "" {
		device, err := s.ResolveDevice(ctx, opts.Device)
		if err != nil {
			return nil, err
		}
		req.PlaybackDevice = &device
	}

	_, filter, err := s.Blacklist().Load(ctx)
	if err != nil {
		return nil, err
	}

	tracks, err := recommend.NewRecommender(s.Spotify, s.maxEmptyBatches, s.Logger).Collect(ctx, req, filter)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, tracks.Warnings...)

	pl, err := playlist.NewReconciler(s.Spotify, s.Store, s.playlistPrefix, s.Logger).Reconcile(ctx, req, tracks.URIs, opts.Preserve)
	if err != nil {
		return nil, err
	}

	if opts.SavePreset != "" {
		if err := s.Store.SavePreset(ctx, opts.SavePreset, req.Snapshot()); err != nil {
			return nil, err
		}
		s.Logger.WithFields(logrus.Fields{
			"component": "session",
			"operation": "save_preset",
			"preset":    opts.SavePreset,
		}).Info("Saved preset")
	}

	return &Outcome{
		Request:  req,
		Tracks:   tracks,
		Playlist: pl,
		Warnings: warnings,
	}, nil
}

// request builds the run's request from a preset or from a seed basis.
func (s *Session) request(ctx context.Context, opts Options) (*types.RecommendationRequest, error) {
	if opts.Preset != "" {
		presets, err := s.Store.Presets(ctx)
		if err != nil {
			return nil, err
		}
		preset, ok := presets[opts.Preset]
		if !ok {
			return nil, &types.ValidationError{Field: "preset", Value: opts.Preset, Reason: "no preset with that name"}
		}
		req, err := preset.Restore()
		if err != nil {
			return nil, err
		}
		if opts.Limit > 0 {
			if err := req.SetLimit(opts.Limit); err != nil {
				return nil, err
			}
		}
		if err := seed.CreateSeed(req); err != nil {
			return nil, err
		}
		return req, nil
	}

	if opts.Basis == "" {
		return nil, &types.ValidationError{Field: "basis", Reason: "choose a seed basis or a preset"}
	}

	limit := opts.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	req, err := types.NewRecommendationRequest(limit)
	if err != nil {
		return nil, err
	}

	n := opts.SeedCount
	if n == 0 {
		n = types.MaxSeeds
	}
	if err := seed.NewBuilder(s.Spotify, s.Prompter, s.Logger).Build(ctx, req, opts.Basis, n, opts.Input); err != nil {
		return nil, err
	}
	return req, nil
}

// ResolveDevice looks up a saved device by name.
func (s *Session) ResolveDevice(ctx context.Context, name string) (types.Device, error) {
	devices, err := s.Store.Devices(ctx)
	if err != nil {
		return types.Device{}, err
	}
	device, ok := devices[name]
	if !ok {
		return types.Device{}, &types.ValidationError{Field: "device", Value: name, Reason: "no saved device with that name"}
	}
	return device, nil
}

// SaveDevice asks the operator to pick one of the live devices and stores it under name.
func (s *Session) SaveDevice(ctx context.Context, name string) (types.Device, error) {
	if strings.TrimSpace(name) == "" {
		return types.Device{}, &types.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	devices, err := s.Spotify.GetDevices(ctx)
	if err != nil {
		return types.Device{}, err
	}
	if len(devices) == 0 {
		return types.Device{}, &types.ValidationError{Field: "device", Reason: "no devices are online, open Spotify on the target device first"}
	}

	var b strings.Builder
	b.WriteString("Available devices:\n")
	for i, d := range devices {
		fmt.Fprintf(&b, "  %d. %s (%s)\n", i+1, d.Name, d.Type)
	}
	b.WriteString("Select a device: ")

	answer, err := s.Prompter.Prompt(ctx, b.String())
	if err != nil {
		return types.Device{}, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || idx < 1 || idx > len(devices) {
		return types.Device{}, &types.ValidationError{Field: "device", Value: answer, Reason: fmt.Sprintf("expected a number between 1 and %d", len(devices))}
	}

	device := devices[idx-1]
	if err := s.Store.SaveDevice(ctx, name, device); err != nil {
		return types.Device{}, err
	}
	return device, nil
}

// PlaySaved starts playback of a saved playlist, on a saved device when deviceName is set.
func (s *Session) PlaySaved(ctx context.Context, name, deviceName string) (types.Playlist, error) {
	playlists, err := s.Store.Playlists(ctx)
	if err != nil {
		return types.Playlist{}, err
	}
	pl, ok := playlists[name]
	if !ok {
		return types.Playlist{}, &types.ValidationError{Field: "playlist", Value: name, Reason: "no saved playlist with that name"}
	}

	deviceID := ""
	if deviceName != "" {
		device, err := s.ResolveDevice(ctx, deviceName)
		if err != nil {
			return types.Playlist{}, err
		}
		deviceID = device.ID
	}

	if err := s.Spotify.StartPlayback(ctx, deviceID, pl.URI); err != nil {
		return types.Playlist{}, err
	}
	return pl, nil
}

// SavePlaylist stores a playlist URI under name.
func (s *Session) SavePlaylist(ctx context.Context, name, uri string) (types.Playlist, error) {
	kind, id, err := types.ParseURI(uri)
	if err != nil {
		return types.Playlist{}, err
	}
	if kind != types.KindPlaylist {
		return types.Playlist{}, &types.ValidationError{Field: "uri", Value: uri, Reason: "not a playlist URI"}
	}

	pl := types.Playlist{ID: id, Name: name, URI: uri}
	if err := s.Store.SavePlaylist(ctx, name, pl); err != nil {
		return types.Playlist{}, err
	}
	return pl, nil
}

// ToggleLike saves or removes the currently playing track from the library.
func (s *Session) ToggleLike(ctx context.Context, like bool) (*types.Item, error) {
	item, err := s.Spotify.GetCurrentTrack(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &types.ValidationError{Field: "current", Reason: "nothing is playing"}
	}

	if like {
		err = s.Spotify.LikeTracks(ctx, []string{item.URI})
	} else {
		err = s.Spotify.UnlikeTracks(ctx, []string{item.URI})
	}
	if err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "toggle_like",
		"uri":       item.URI,
		"like":      like,
	}).Info("Updated library")
	return item, nil
}
