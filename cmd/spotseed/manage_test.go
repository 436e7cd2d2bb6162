package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/spotseed/internal/mocks"
	"github.com/toozej/spotseed/internal/types"
)

func TestBlacklistRows(t *testing.T) {
	bl := types.NewBlacklist()
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:track:t2", Name: "Song", Artists: []string{"A", "B"}}))
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:track:t1", Name: "Other"}))
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:artist:a1", Name: "Band"}))

	assert.Equal(t, [][]string{
		{"artist", "Band", "spotify:artist:a1"},
		{"track", "Other", "spotify:track:t1"},
		{"track", "Song by A & B", "spotify:track:t2"},
	}, blacklistRows(bl))
}

func TestPresetRows(t *testing.T) {
	presets := map[string]types.Preset{
		"gym": {
			Limit:   30,
			BasedOn: "top genres",
			Seeds:   []types.Seed{{Name: "metal", Type: types.SeedKindGenre}, {Name: "punk", Type: types.SeedKindGenre}},
			Params:  map[string]string{"limit": "30", "seed_genres": "metal,punk", "min_tempo": "150", "max_energy": "0.9"},
		},
	}

	assert.Equal(t, [][]string{
		{"gym", "top genres", "metal, punk", "30", "max_energy=0.9 min_tempo=150"},
	}, presetRows(presets))
}

func TestPlaylistRows(t *testing.T) {
	playlists := map[string]types.Playlist{
		"chill": {URI: "spotify:playlist:c"},
		"focus": {URI: "spotify:playlist:f"},
	}
	def := types.Playlist{Name: "spotseed 2024-01-01 10:00", URI: "spotify:playlist:d"}

	rows := playlistRows(playlists, def, true)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"(default) spotseed 2024-01-01 10:00", "spotify:playlist:d"}, rows[0])
	assert.Equal(t, "chill", rows[1][0])

	assert.Len(t, playlistRows(playlists, types.Playlist{}, false), 2)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"Name", "URI"}, [][]string{{"chill", "spotify:playlist:c"}})
	assert.Contains(t, buf.String(), "NAME")
	assert.Contains(t, buf.String(), "spotify:playlist:c")
}

func TestPrinters(t *testing.T) {
	sp := &mocks.SpotifyService{
		GetTopItemsFunc: func(_ context.Context, kind types.ItemKind, _ int) ([]types.Item, error) {
			if kind == types.KindArtist {
				return []types.Item{{Name: "Band", URI: "spotify:artist:a1", Kind: types.KindArtist, Genres: []string{"metal", "doom"}}}, nil
			}
			return []types.Item{{Name: "Song", URI: "spotify:track:t1", Kind: types.KindTrack, Artists: []string{"Band"}}}, nil
		},
		GetGenreSeedsFunc: func(context.Context) ([]string, error) { return []string{"metal"}, nil },
		GetDevicesFunc: func(context.Context) ([]types.Device, error) {
			return []types.Device{{ID: "d1", Name: "Laptop", Type: "Computer", Active: true}}, nil
		},
	}

	tests := []struct {
		printer string
		want    []string
	}{
		{printer: "top-artists", want: []string{"Band", "metal, doom"}},
		{printer: "top-tracks", want: []string{"Song", "spotify:track:t1"}},
		{printer: "top-genres", want: []string{"metal"}},
		{printer: "genre-seeds", want: []string{"metal"}},
		{printer: "devices", want: []string{"Laptop", "true"}},
		{printer: "attributes", want: []string{"tempo", "danceability"}},
	}

	for _, tt := range tests {
		t.Run(tt.printer, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, printers[tt.printer].run(context.Background(), sp, &buf, 10))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "validation", err: &types.ValidationError{Field: "limit", Value: "0", Reason: "must be between 1 and 100"}, want: "usage error: "},
		{name: "cancelled", err: context.Canceled, want: "cancelled"},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printError(&buf, tt.err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
