package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/spotseed/internal/types"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	s, err := Open(context.Background(), path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_EmptySectionsAreNotErrors(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "spotseed.db"))
	ctx := context.Background()

	bl, err := s.Blacklist(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, bl.Len())

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.Empty(t, presets)

	_, ok, err := s.DefaultPlaylist(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := s.RemovePreset(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_Blacklist(t *testing.T) {
	tests := []struct {
		name    string
		entry   types.BlacklistEntry
		wantErr bool
		tracks  int
		artists int
	}{
		{
			name:   "track entry",
			entry:  types.BlacklistEntry{URI: "spotify:track:t1", Name: "Song", Artists: []string{"Band"}},
			tracks: 1,
		},
		{
			name:    "artist entry",
			entry:   types.BlacklistEntry{URI: "spotify:artist:a1", Name: "Band"},
			artists: 1,
		},
		{
			name:    "playlist rejected",
			entry:   types.BlacklistEntry{URI: "spotify:playlist:p1", Name: "Mix"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t, filepath.Join(t.TempDir(), "spotseed.db"))
			ctx := context.Background()

			err := s.AddBlacklistEntry(ctx, tt.entry)
			if tt.wantErr {
				assert.True(t, types.IsValidation(err))
				return
			}
			require.NoError(t, err)

			bl, err := s.Blacklist(ctx)
			require.NoError(t, err)
			assert.Len(t, bl.Tracks, tt.tracks)
			assert.Len(t, bl.Artists, tt.artists)

			removed, err := s.RemoveBlacklistEntry(ctx, tt.entry.URI)
			require.NoError(t, err)
			assert.True(t, removed)

			bl, err = s.Blacklist(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, bl.Len())
		})
	}
}

func TestStore_BlacklistArtistsRoundTrip(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "spotseed.db"))
	ctx := context.Background()

	entry := types.BlacklistEntry{URI: "spotify:track:t1", Name: "Song", Artists: []string{"A", "B"}}
	require.NoError(t, s.AddBlacklistEntry(ctx, entry))
	require.NoError(t, s.AddBlacklistEntry(ctx, entry))

	bl, err := s.Blacklist(ctx)
	require.NoError(t, err)
	assert.Equal(t, entry, bl.Tracks["spotify:track:t1"])
}

func TestStore_Presets(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "spotseed.db"))
	ctx := context.Background()

	preset := types.Preset{
		Version:  types.PresetVersion,
		Limit:    25,
		BasedOn:  "top genres",
		SeedType: types.SeedGenres,
		Seeds:    []types.Seed{{Name: "metal", Type: types.SeedKindGenre}},
		Params:   map[string]string{"limit": "25", "seed_genres": "metal", "max_tempo": "180"},
		AutoPlay: true,
	}
	require.NoError(t, s.SavePreset(ctx, "gym", preset))

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.Preset{"gym": preset}, presets)

	preset.Limit = 30
	require.NoError(t, s.SavePreset(ctx, "gym", preset))
	presets, err = s.Presets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, presets["gym"].Limit)

	assert.True(t, types.IsValidation(s.SavePreset(ctx, "", preset)))
}

func TestStore_DevicesAndPlaylists(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "spotseed.db"))
	ctx := context.Background()

	device := types.Device{ID: "d1", Name: "Kitchen", Type: "Speaker"}
	require.NoError(t, s.SaveDevice(ctx, "kitchen", device))
	devices, err := s.Devices(ctx)
	require.NoError(t, err)
	assert.Equal(t, device, devices["kitchen"])

	playlist := types.Playlist{ID: "p1", Name: "Morning", URI: "spotify:playlist:p1"}
	require.NoError(t, s.SavePlaylist(ctx, "morning", playlist))
	playlists, err := s.Playlists(ctx)
	require.NoError(t, err)
	assert.Equal(t, playlist, playlists["morning"])

	removed, err := s.RemoveDevice(ctx, "kitchen")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemovePlaylist(ctx, "morning")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestStore_DefaultPlaylistPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spotseed.db")
	ctx := context.Background()

	first := openTestStore(t, path)
	require.NoError(t, first.SetDefaultPlaylist(ctx, types.Playlist{ID: "p1", Name: "one", URI: "spotify:playlist:p1"}))
	require.NoError(t, first.SetDefaultPlaylist(ctx, types.Playlist{ID: "p2", Name: "two", URI: "spotify:playlist:p2"}))
	require.NoError(t, first.Close())

	second := openTestStore(t, path)
	p, ok, err := second.DefaultPlaylist(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p2", p.ID)

	var version int
	require.NoError(t, second.db.QueryRow(`SELECT version FROM schema_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}
