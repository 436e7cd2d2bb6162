package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/spotseed/internal/mocks"
	"github.com/toozej/spotseed/internal/playlist"
	"github.com/toozej/spotseed/internal/seed"
	"github.com/toozej/spotseed/internal/types"
	"github.com/toozej/spotseed/pkg/config"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// account returns a gateway double with one top artist, a genre list and
// an endless supply of recommendations.
func account() *mocks.SpotifyService {
	next := 0
	return &mocks.SpotifyService{
		GetTopItemsFunc: func(context.Context, types.ItemKind, int) ([]types.Item, error) {
			return []types.Item{{ID: "a1", Name: "Band", URI: "spotify:artist:a1", Kind: types.KindArtist, Genres: []string{"metal"}}}, nil
		},
		GetGenreSeedsFunc: func(context.Context) ([]string, error) {
			return []string{"jazz", "metal"}, nil
		},
		GetRecommendationsFunc: func(_ context.Context, params map[string]string) ([]types.CandidateTrack, error) {
			var out []types.CandidateTrack
			for range 2 {
				next++
				id := "t" + strings.Repeat("x", next)
				out = append(out, types.CandidateTrack{URI: "spotify:track:" + id, ArtistURIs: []string{"spotify:artist:a1"}})
			}
			return out, nil
		},
		CreatePlaylistFunc: func(_ context.Context, name, _ string) (*types.Playlist, error) {
			return &types.Playlist{ID: "p1", Name: name, URI: "spotify:playlist:p1"}, nil
		},
		AddTracksToPlaylistFunc:   func(context.Context, string, []string) error { return nil },
		ReplacePlaylistTracksFunc: func(context.Context, string, []string) error { return nil },
		UpdatePlaylistDetailsFunc: func(context.Context, string, string, string) error { return nil },
		CheckPlaylistUsableFunc:   func(context.Context, string) (bool, error) { return true, nil },
		UploadPlaylistImageFunc:   func(context.Context, string, []byte) error { return nil },
		StartPlaybackFunc:         func(context.Context, string, string) error { return nil },
	}
}

func newSession(sp *mocks.SpotifyService, store *mocks.Store, prompter types.Prompter) *Session {
	return New(sp, store, prompter, config.StoreConfig{DefaultLimit: 2, PlaylistPrefix: "spotseed", MaxEmptyBatches: 3}, quietLogger())
}

func TestGenerate_TopGenres(t *testing.T) {
	sp := account()
	store := mocks.NewStore()

	out, err := newSession(sp, store, &mocks.Prompter{}).Generate(context.Background(), Options{
		Basis:     seed.BasisTopGenres,
		SeedCount: 1,
		Tunes:     []string{"max_tempo=215"},
	})
	require.NoError(t, err)

	assert.Equal(t, "metal", out.Request.Params["seed_genres"])
	assert.Equal(t, "215", out.Request.Params["max_tempo"])
	assert.Len(t, out.Tracks.URIs, 2)
	assert.Equal(t, playlist.OutcomeCreated, out.Playlist.Outcome)
	assert.Equal(t, "p1", out.Request.PlaylistID)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "215")
}

func TestGenerate_SecondRunReusesPlaylist(t *testing.T) {
	sp := account()
	store := mocks.NewStore()
	s := newSession(sp, store, &mocks.Prompter{})

	_, err := s.Generate(context.Background(), Options{Basis: seed.BasisTopGenres, SeedCount: 1})
	require.NoError(t, err)
	out, err := s.Generate(context.Background(), Options{Basis: seed.BasisTopGenres, SeedCount: 1})
	require.NoError(t, err)

	assert.Equal(t, playlist.OutcomeReused, out.Playlist.Outcome)
	assert.Equal(t, 1, sp.CallCount("CreatePlaylist"))
}

func TestGenerate_PresetRoundTrip(t *testing.T) {
	sp := account()
	store := mocks.NewStore()
	s := newSession(sp, store, &mocks.Prompter{})

	_, err := s.Generate(context.Background(), Options{
		Basis:      seed.BasisTopGenres,
		SeedCount:  1,
		Tunes:      []string{"min_energy=0.4"},
		Name:       "Gym",
		SavePreset: "gym",
	})
	require.NoError(t, err)

	presets, err := store.Presets(context.Background())
	require.NoError(t, err)
	require.Contains(t, presets, "gym")
	assert.Equal(t, "Gym", presets["gym"].PlaylistName)

	out, err := s.Generate(context.Background(), Options{Preset: "gym", Limit: 4})
	require.NoError(t, err)

	assert.Equal(t, 1, sp.CallCount("GetTopItems"))
	assert.Equal(t, "0.4", out.Request.Params["min_energy"])
	assert.Equal(t, "metal", out.Request.Params["seed_genres"])
	assert.Equal(t, 4, out.Request.LimitOriginal)
	assert.Len(t, out.Tracks.URIs, 4)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{name: "no basis", opts: Options{}, field: "basis"},
		{name: "unknown preset", opts: Options{Preset: "missing"}, field: "preset"},
		{name: "unknown device", opts: Options{Basis: seed.BasisTopGenres, SeedCount: 1, Device: "attic"}, field: "device"},
		{name: "bad limit", opts: Options{Basis: seed.BasisTopGenres, Limit: 101}, field: "limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := account()
			_, err := newSession(sp, mocks.NewStore(), &mocks.Prompter{}).Generate(context.Background(), tt.opts)

			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, sp.CallCount("CreatePlaylist"))
		})
	}
}

func TestGenerate_InvalidTuneWritesNothing(t *testing.T) {
	sp := account()
	store := mocks.NewStore()

	_, err := newSession(sp, store, &mocks.Prompter{}).Generate(context.Background(), Options{
		Basis:      seed.BasisTopGenres,
		SeedCount:  1,
		Tunes:      []string{"min_tempo=100", "max_tempo=300"},
		SavePreset: "x",
	})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
	assert.Equal(t, 0, sp.CallCount("GetRecommendations"))

	presets, _ := store.Presets(context.Background())
	assert.Empty(t, presets)
}

func TestGenerate_PlaysOnSavedDevice(t *testing.T) {
	sp := account()
	var played string
	sp.StartPlaybackFunc = func(_ context.Context, deviceID, uri string) error {
		played = deviceID + "|" + uri
		return nil
	}
	store := mocks.NewStore()
	require.NoError(t, store.SaveDevice(context.Background(), "kitchen", types.Device{ID: "d1", Name: "Kitchen Speaker"}))

	_, err := newSession(sp, store, &mocks.Prompter{}).Generate(context.Background(), Options{
		Basis:     seed.BasisTopGenres,
		SeedCount: 1,
		Play:      true,
		Device:    "kitchen",
	})
	require.NoError(t, err)
	assert.Equal(t, "d1|spotify:playlist:p1", played)
}

func TestGenerate_CancelledDuringSelection(t *testing.T) {
	sp := account()
	sp.GetTopItemsFunc = func(context.Context, types.ItemKind, int) ([]types.Item, error) {
		return []types.Item{{ID: "t1", Name: "Song", URI: "spotify:track:t1", Kind: types.KindTrack}}, nil
	}
	store := mocks.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSession(sp, store, &mocks.Prompter{Answers: []string{"1"}}).Generate(ctx, Options{
		Basis:      seed.BasisCustomTracks,
		SavePreset: "never",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, ok, _ := store.DefaultPlaylist(context.Background())
	assert.False(t, ok)
	presets, _ := store.Presets(context.Background())
	assert.Empty(t, presets)
}

func TestSaveDevice(t *testing.T) {
	sp := &mocks.SpotifyService{
		GetDevicesFunc: func(context.Context) ([]types.Device, error) {
			return []types.Device{{ID: "d1", Name: "Laptop", Type: "Computer"}, {ID: "d2", Name: "Kitchen", Type: "Speaker"}}, nil
		},
	}
	store := mocks.NewStore()
	prompter := &mocks.Prompter{Answers: []string{"2"}}

	device, err := newSession(sp, store, prompter).SaveDevice(context.Background(), "kitchen")
	require.NoError(t, err)
	assert.Equal(t, "d2", device.ID)
	require.Len(t, prompter.Messages, 1)
	assert.Contains(t, prompter.Messages[0], "2. Kitchen (Speaker)")

	devices, err := store.Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d2", devices["kitchen"].ID)

	_, err = newSession(sp, store, &mocks.Prompter{Answers: []string{"9"}}).SaveDevice(context.Background(), "other")
	assert.True(t, types.IsValidation(err))
}

func TestSaveDevice_NoDevices(t *testing.T) {
	sp := &mocks.SpotifyService{
		GetDevicesFunc: func(context.Context) ([]types.Device, error) { return nil, nil },
	}
	_, err := newSession(sp, mocks.NewStore(), &mocks.Prompter{}).SaveDevice(context.Background(), "x")
	assert.True(t, types.IsValidation(err))
}

func TestSavedPlaylists(t *testing.T) {
	sp := account()
	var played string
	sp.StartPlaybackFunc = func(_ context.Context, deviceID, uri string) error {
		played = deviceID + "|" + uri
		return nil
	}
	store := mocks.NewStore()
	s := newSession(sp, store, &mocks.Prompter{})

	_, err := s.SavePlaylist(context.Background(), "chill", "spotify:track:t1")
	assert.True(t, types.IsValidation(err))

	_, err = s.SavePlaylist(context.Background(), "chill", "spotify:playlist:abc")
	require.NoError(t, err)

	pl, err := s.PlaySaved(context.Background(), "chill", "")
	require.NoError(t, err)
	assert.Equal(t, "abc", pl.ID)
	assert.Equal(t, "|spotify:playlist:abc", played)

	_, err = s.PlaySaved(context.Background(), "missing", "")
	assert.True(t, types.IsValidation(err))
}

func TestToggleLike(t *testing.T) {
	var liked, unliked []string
	sp := &mocks.SpotifyService{
		GetCurrentTrackFunc: func(context.Context) (*types.Item, error) {
			return &types.Item{ID: "t1", Name: "Song", URI: "spotify:track:t1"}, nil
		},
		LikeTracksFunc:   func(_ context.Context, uris []string) error { liked = uris; return nil },
		UnlikeTracksFunc: func(_ context.Context, uris []string) error { unliked = uris; return nil },
	}
	s := newSession(sp, mocks.NewStore(), &mocks.Prompter{})

	_, err := s.ToggleLike(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:t1"}, liked)

	_, err = s.ToggleLike(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:t1"}, unliked)

	sp.GetCurrentTrackFunc = func(context.Context) (*types.Item, error) { return nil, nil }
	_, err = s.ToggleLike(context.Background(), true)
	assert.True(t, types.IsValidation(err))
}

func TestTerminalPrompter(t *testing.T) {
	var out strings.Builder
	p := NewTerminalPrompter(strings.NewReader("1 2\r\nlast"), &out)

	got, err := p.Prompt(context.Background(), "pick: ")
	require.NoError(t, err)
	assert.Equal(t, "1 2", got)

	got, err = p.Prompt(context.Background(), "again: ")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = p.Prompt(context.Background(), "eof: ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "pick: again: eof: ", out.String())
}

func TestTerminalPrompter_Cancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewTerminalPrompter(r, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Prompt(ctx, "waiting: ")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
