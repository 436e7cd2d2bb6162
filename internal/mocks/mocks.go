// Package mocks provides hand-written test doubles for the service interfaces.
package mocks

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/toozej/spotseed/internal/types"
)

// ErrNotImplemented is returned by mock methods without a configured func.
var ErrNotImplemented = errors.New("not implemented in mock")

// SpotifyService is a mock types.SpotifyService; each method delegates to
// the matching func field when set.
type SpotifyService struct {
	GetTopItemsFunc           func(ctx context.Context, kind types.ItemKind, limit int) ([]types.Item, error)
	GetSavedTracksFunc        func(ctx context.Context, limit int) ([]types.Item, error)
	GetGenreSeedsFunc         func(ctx context.Context) ([]string, error)
	GetRecommendationsFunc    func(ctx context.Context, params map[string]string) ([]types.CandidateTrack, error)
	GetEntityFunc             func(ctx context.Context, uri string, kind types.ItemKind) (*types.Item, error)
	CreatePlaylistFunc        func(ctx context.Context, name, description string) (*types.Playlist, error)
	AddTracksToPlaylistFunc   func(ctx context.Context, playlistID string, uris []string) error
	ReplacePlaylistTracksFunc func(ctx context.Context, playlistID string, uris []string) error
	UpdatePlaylistDetailsFunc func(ctx context.Context, playlistID, name, description string) error
	CheckPlaylistUsableFunc   func(ctx context.Context, playlistID string) (bool, error)
	UploadPlaylistImageFunc   func(ctx context.Context, playlistID string, jpeg []byte) error
	StartPlaybackFunc         func(ctx context.Context, deviceID, playlistURI string) error
	GetDevicesFunc            func(ctx context.Context) ([]types.Device, error)
	GetCurrentTrackFunc       func(ctx context.Context) (*types.Item, error)
	LikeTracksFunc            func(ctx context.Context, uris []string) error
	UnlikeTracksFunc          func(ctx context.Context, uris []string) error

	mu    sync.Mutex
	Calls []string
}

func (m *SpotifyService) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

// CallCount returns how many times the named method ran.
func (m *SpotifyService) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *SpotifyService) GetTopItems(ctx context.Context, kind types.ItemKind, limit int) ([]types.Item, error) {
	m.record("GetTopItems")
	if m.GetTopItemsFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetTopItemsFunc(ctx, kind, limit)
}

func (m *SpotifyService) GetSavedTracks(ctx context.Context, limit int) ([]types.Item, error) {
	m.record("GetSavedTracks")
	if m.GetSavedTracksFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetSavedTracksFunc(ctx, limit)
}

func (m *SpotifyService) GetGenreSeeds(ctx context.Context) ([]string, error) {
	m.record("GetGenreSeeds")
	if m.GetGenreSeedsFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetGenreSeedsFunc(ctx)
}

func (m *SpotifyService) GetRecommendations(ctx context.Context, params map[string]string) ([]types.CandidateTrack, error) {
	m.record("GetRecommendations")
	if m.GetRecommendationsFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetRecommendationsFunc(ctx, maps.Clone(params))
}

func (m *SpotifyService) GetEntity(ctx context.Context, uri string, kind types.ItemKind) (*types.Item, error) {
	m.record("GetEntity")
	if m.GetEntityFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetEntityFunc(ctx, uri, kind)
}

func (m *SpotifyService) CreatePlaylist(ctx context.Context, name, description string) (*types.Playlist, error) {
	m.record("CreatePlaylist")
	if m.CreatePlaylistFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.CreatePlaylistFunc(ctx, name, description)
}

func (m *SpotifyService) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	m.record("AddTracksToPlaylist")
	if m.AddTracksToPlaylistFunc == nil {
		return ErrNotImplemented
	}
	return m.AddTracksToPlaylistFunc(ctx, playlistID, uris)
}

func (m *SpotifyService) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	m.record("ReplacePlaylistTracks")
	if m.ReplacePlaylistTracksFunc == nil {
		return ErrNotImplemented
	}
	return m.ReplacePlaylistTracksFunc(ctx, playlistID, uris)
}

func (m *SpotifyService) UpdatePlaylistDetails(ctx context.Context, playlistID, name, description string) error {
	m.record("UpdatePlaylistDetails")
	if m.UpdatePlaylistDetailsFunc == nil {
		return ErrNotImplemented
	}
	return m.UpdatePlaylistDetailsFunc(ctx, playlistID, name, description)
}

func (m *SpotifyService) CheckPlaylistUsable(ctx context.Context, playlistID string) (bool, error) {
	m.record("CheckPlaylistUsable")
	if m.CheckPlaylistUsableFunc == nil {
		return false, ErrNotImplemented
	}
	return m.CheckPlaylistUsableFunc(ctx, playlistID)
}

func (m *SpotifyService) UploadPlaylistImage(ctx context.Context, playlistID string, jpeg []byte) error {
	m.record("UploadPlaylistImage")
	if m.UploadPlaylistImageFunc == nil {
		return ErrNotImplemented
	}
	return m.UploadPlaylistImageFunc(ctx, playlistID, jpeg)
}

func (m *SpotifyService) StartPlayback(ctx context.Context, deviceID, playlistURI string) error {
	m.record("StartPlayback")
	if m.StartPlaybackFunc == nil {
		return ErrNotImplemented
	}
	return m.StartPlaybackFunc(ctx, deviceID, playlistURI)
}

func (m *SpotifyService) GetDevices(ctx context.Context) ([]types.Device, error) {
	m.record("GetDevices")
	if m.GetDevicesFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetDevicesFunc(ctx)
}

func (m *SpotifyService) GetCurrentTrack(ctx context.Context) (*types.Item, error) {
	m.record("GetCurrentTrack")
	if m.GetCurrentTrackFunc == nil {
		return nil, ErrNotImplemented
	}
	return m.GetCurrentTrackFunc(ctx)
}

func (m *SpotifyService) LikeTracks(ctx context.Context, uris []string) error {
	m.record("LikeTracks")
	if m.LikeTracksFunc == nil {
		return ErrNotImplemented
	}
	return m.LikeTracksFunc(ctx, uris)
}

func (m *SpotifyService) UnlikeTracks(ctx context.Context, uris []string) error {
	m.record("UnlikeTracks")
	if m.UnlikeTracksFunc == nil {
		return ErrNotImplemented
	}
	return m.UnlikeTracksFunc(ctx, uris)
}

// Store is an in-memory types.ConfigStore.
type Store struct {
	mu        sync.Mutex
	blacklist *types.Blacklist
	presets   map[string]types.Preset
	devices   map[string]types.Device
	playlists map[string]types.Playlist
	def       *types.Playlist
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		blacklist: types.NewBlacklist(),
		presets:   make(map[string]types.Preset),
		devices:   make(map[string]types.Device),
		playlists: make(map[string]types.Playlist),
	}
}

func (s *Store) Blacklist(_ context.Context) (*types.Blacklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &types.Blacklist{Tracks: maps.Clone(s.blacklist.Tracks), Artists: maps.Clone(s.blacklist.Artists)}, nil
}

func (s *Store) AddBlacklistEntry(_ context.Context, entry types.BlacklistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklist.Add(entry)
}

func (s *Store) RemoveBlacklistEntry(_ context.Context, uri string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blacklist.Tracks[uri]; ok {
		delete(s.blacklist.Tracks, uri)
		return true, nil
	}
	if _, ok := s.blacklist.Artists[uri]; ok {
		delete(s.blacklist.Artists, uri)
		return true, nil
	}
	return false, nil
}

func (s *Store) Presets(_ context.Context) (map[string]types.Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.presets), nil
}

func (s *Store) SavePreset(_ context.Context, name string, preset types.Preset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[name] = preset
	return nil
}

func (s *Store) RemovePreset(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.presets[name]
	delete(s.presets, name)
	return ok, nil
}

func (s *Store) Devices(_ context.Context) (map[string]types.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.devices), nil
}

func (s *Store) SaveDevice(_ context.Context, name string, device types.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[name] = device
	return nil
}

func (s *Store) RemoveDevice(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.devices[name]
	delete(s.devices, name)
	return ok, nil
}

func (s *Store) Playlists(_ context.Context) (map[string]types.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.playlists), nil
}

func (s *Store) SavePlaylist(_ context.Context, name string, playlist types.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists[name] = playlist
	return nil
}

func (s *Store) RemovePlaylist(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.playlists[name]
	delete(s.playlists, name)
	return ok, nil
}

func (s *Store) DefaultPlaylist(_ context.Context) (types.Playlist, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.def == nil {
		return types.Playlist{}, false, nil
	}
	return *s.def, true, nil
}

func (s *Store) SetDefaultPlaylist(_ context.Context, playlist types.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = &playlist
	return nil
}

// Prompter replays scripted answers and records the messages it was shown.
type Prompter struct {
	Answers  []string
	Messages []string
}

func (p *Prompter) Prompt(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.Messages = append(p.Messages, message)
	if len(p.Answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	answer := p.Answers[0]
	p.Answers = p.Answers[1:]
	return answer, nil
}

var (
	_ types.SpotifyService = (*SpotifyService)(nil)
	_ types.ConfigStore    = (*Store)(nil)
	_ types.Prompter       = (*Prompter)(nil)
)
