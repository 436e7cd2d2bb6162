package spotify

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"github.com/toozej/spotseed/internal/types"
	"github.com/toozej/spotseed/pkg/config"
)

const genreSeedsKey = "genre-seeds"

// Service implements the types.SpotifyService and types.Authenticator interfaces
type Service struct {
	client   *Client
	logger   *logrus.Logger
	entities *lru.Cache[string, types.Item]
	genres   *lru.Cache[string, []string]
}

// NewService creates a new Spotify service backed by an authenticated client
func NewService(ctx context.Context, cfg config.SpotifyConfig, logger *logrus.Logger) (*Service, error) {
	logger.WithFields(logrus.Fields{
		"client_id":     cfg.ClientID,
		"client_secret": cfg.ClientSecret != "",
		"redirect_url":  cfg.RedirectURL,
	}).Debug("Creating Spotify service with config")

	client, err := NewClient(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify client: %w", err)
	}
	return newServiceWithClient(client, cfg.EntityCacheSize, logger)
}

func newServiceWithClient(client *Client, cacheSize int, logger *logrus.Logger) (*Service, error) {
	if cacheSize < 1 {
		cacheSize = 256
	}
	entities, err := lru.New[string, types.Item](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity cache: %w", err)
	}
	genres, err := lru.New[string, []string](1)
	if err != nil {
		return nil, fmt.Errorf("failed to create genre cache: %w", err)
	}
	return &Service{client: client, logger: logger, entities: entities, genres: genres}, nil
}

// GetAuthURL returns the URL for user authentication
func (s *Service) GetAuthURL() string {
	return s.client.GetAuthURL()
}

// IsAuthenticated returns whether the user is authenticated
func (s *Service) IsAuthenticated() bool {
	return s.client.IsAuthenticated()
}

// CompleteAuth completes the authentication process
func (s *Service) CompleteAuth(ctx context.Context, code, state string) error {
	return s.client.CompleteAuth(ctx, code, state)
}

func (s *Service) log(operation string) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"component": "spotify_service",
		"operation": operation,
	})
}

// GetTopItems returns the user's top artists or tracks.
func (s *Service) GetTopItems(ctx context.Context, kind types.ItemKind, limit int) ([]types.Item, error) {
	entry := s.log("get_top_items").WithFields(logrus.Fields{"kind": kind, "limit": limit})
	entry.Debug("Retrieving top items")

	var items []types.Item
	switch kind {
	case types.KindArtist:
		artists, err := s.client.TopArtists(ctx, limit)
		if err != nil {
			entry.WithError(err).Error("Failed to retrieve top artists")
			return nil, err
		}
		items = lo.Map(artists, func(a spotify.FullArtist, _ int) types.Item { return artistItem(a) })
	case types.KindTrack:
		tracks, err := s.client.TopTracks(ctx, limit)
		if err != nil {
			entry.WithError(err).Error("Failed to retrieve top tracks")
			return nil, err
		}
		items = lo.Map(tracks, func(t spotify.FullTrack, _ int) types.Item { return trackItem(t) })
	default:
		return nil, &types.ValidationError{Field: "kind", Value: string(kind), Reason: "top items are artists or tracks"}
	}

	entry.WithField("item_count", len(items)).Debug("Retrieved top items")
	return items, nil
}

// GetSavedTracks returns the most recently saved library tracks.
func (s *Service) GetSavedTracks(ctx context.Context, limit int) ([]types.Item, error) {
	entry := s.log("get_saved_tracks").WithField("limit", limit)

	saved, err := s.client.SavedTracks(ctx, limit)
	if err != nil {
		entry.WithError(err).Error("Failed to retrieve saved tracks")
		return nil, err
	}

	items := lo.Map(saved, func(t spotify.SavedTrack, _ int) types.Item { return trackItem(t.FullTrack) })
	entry.WithField("item_count", len(items)).Debug("Retrieved saved tracks")
	return items, nil
}

// GetGenreSeeds returns the genres the recommendation endpoint accepts.
// The list is fetched once per process.
func (s *Service) GetGenreSeeds(ctx context.Context) ([]string, error) {
	if genres, ok := s.genres.Get(genreSeedsKey); ok {
		return genres, nil
	}

	genres, err := s.client.GenreSeeds(ctx)
	if err != nil {
		s.log("get_genre_seeds").WithError(err).Error("Failed to retrieve genre seeds")
		return nil, err
	}
	s.genres.Add(genreSeedsKey, genres)
	return genres, nil
}

// GetRecommendations performs one recommendation call with the given query parameters.
func (s *Service) GetRecommendations(ctx context.Context, params map[string]string) ([]types.CandidateTrack, error) {
	entry := s.log("get_recommendations").WithField("params", params)

	args, err := parseRecommendationParams(params)
	if err != nil {
		entry.WithError(err).Error("Invalid recommendation parameters")
		return nil, err
	}

	tracks, err := s.client.Recommendations(ctx, args.seeds, args.attrs, args.limit)
	if err != nil {
		entry.WithError(err).Error("Failed to retrieve recommendations")
		return nil, err
	}

	candidates := lo.Map(tracks, func(t spotify.SimpleTrack, _ int) types.CandidateTrack {
		return types.CandidateTrack{
			URI:         string(t.URI),
			Name:        t.Name,
			ArtistURIs:  lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return string(a.URI) }),
			ArtistNames: lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return a.Name }),
		}
	})

	entry.WithField("track_count", len(candidates)).Debug("Retrieved recommendations")
	return candidates, nil
}

// GetEntity looks up a single artist or track by URI.
func (s *Service) GetEntity(ctx context.Context, uri string, kind types.ItemKind) (*types.Item, error) {
	if item, ok := s.entities.Get(uri); ok {
		return &item, nil
	}

	uriKind, id, err := types.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if uriKind != kind {
		return nil, &types.ValidationError{Field: "uri", Value: uri, Reason: fmt.Sprintf("expected a %s URI", kind)}
	}

	entry := s.log("get_entity").WithFields(logrus.Fields{"uri": uri, "kind": kind})

	var item types.Item
	switch kind {
	case types.KindArtist:
		artist, err := s.client.Artist(ctx, id)
		if err != nil {
			entry.WithError(err).Error("Failed to look up artist")
			return nil, err
		}
		item = artistItem(*artist)
	case types.KindTrack:
		track, err := s.client.Track(ctx, id)
		if err != nil {
			entry.WithError(err).Error("Failed to look up track")
			return nil, err
		}
		item = trackItem(*track)
	default:
		return nil, &types.ValidationError{Field: "kind", Value: string(kind), Reason: "lookups are artists or tracks"}
	}

	s.entities.Add(uri, item)
	return &item, nil
}

// CreatePlaylist creates a new public playlist for the current user.
func (s *Service) CreatePlaylist(ctx context.Context, name, description string) (*types.Playlist, error) {
	entry := s.log("create_playlist").WithField("playlist_name", name)

	created, err := s.client.CreatePlaylist(ctx, name, description)
	if err != nil {
		entry.WithError(err).Error("Failed to create playlist")
		return nil, err
	}

	entry.WithField("playlist_id", created.ID).Info("Created playlist")
	return &types.Playlist{ID: string(created.ID), Name: created.Name, URI: string(created.URI)}, nil
}

// AddTracksToPlaylist appends tracks to the end of a playlist.
func (s *Service) AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error {
	ids, err := trackIDs(uris)
	if err != nil {
		return err
	}
	if err := s.client.AddTracks(ctx, playlistID, ids); err != nil {
		s.log("add_tracks").WithField("playlist_id", playlistID).WithError(err).Error("Failed to add tracks")
		return err
	}
	return nil
}

// ReplacePlaylistTracks overwrites a playlist's items.
func (s *Service) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error {
	ids, err := trackIDs(uris)
	if err != nil {
		return err
	}
	if err := s.client.ReplaceTracks(ctx, playlistID, ids); err != nil {
		s.log("replace_tracks").WithField("playlist_id", playlistID).WithError(err).Error("Failed to replace tracks")
		return err
	}
	return nil
}

// UpdatePlaylistDetails renames a playlist and rewrites its description.
func (s *Service) UpdatePlaylistDetails(ctx context.Context, playlistID, name, description string) error {
	if err := s.client.ChangeDetails(ctx, playlistID, name, description); err != nil {
		s.log("update_playlist").WithField("playlist_id", playlistID).WithError(err).Error("Failed to update playlist details")
		return err
	}
	return nil
}

// CheckPlaylistUsable reports whether a playlist still exists, is followed
// by the current user, and is public.
func (s *Service) CheckPlaylistUsable(ctx context.Context, playlistID string) (bool, error) {
	entry := s.log("check_playlist").WithField("playlist_id", playlistID)

	playlist, followed, err := s.client.Playlist(ctx, playlistID)
	if err != nil {
		entry.WithError(err).Error("Failed to check playlist")
		return false, err
	}

	usable := playlist != nil && followed && playlist.IsPublic
	entry.WithFields(logrus.Fields{
		"exists":   playlist != nil,
		"followed": followed,
		"usable":   usable,
	}).Debug("Checked playlist")
	return usable, nil
}

// UploadPlaylistImage sets a JPEG cover image.
func (s *Service) UploadPlaylistImage(ctx context.Context, playlistID string, jpeg []byte) error {
	if err := s.client.SetImage(ctx, playlistID, jpeg); err != nil {
		s.log("upload_image").WithField("playlist_id", playlistID).WithError(err).Error("Failed to upload playlist image")
		return err
	}
	return nil
}

// StartPlayback plays a playlist, on deviceID when it is non-empty.
func (s *Service) StartPlayback(ctx context.Context, deviceID, playlistURI string) error {
	entry := s.log("start_playback").WithFields(logrus.Fields{"device_id": deviceID, "playlist_uri": playlistURI})
	if err := s.client.Play(ctx, deviceID, playlistURI); err != nil {
		entry.WithError(err).Error("Failed to start playback")
		return err
	}
	entry.Info("Started playback")
	return nil
}

// GetDevices lists the user's available playback devices.
func (s *Service) GetDevices(ctx context.Context) ([]types.Device, error) {
	devices, err := s.client.Devices(ctx)
	if err != nil {
		s.log("get_devices").WithError(err).Error("Failed to list devices")
		return nil, err
	}
	return lo.Map(devices, func(d spotify.PlayerDevice, _ int) types.Device {
		return types.Device{ID: string(d.ID), Name: d.Name, Type: d.Type, Active: d.Active}
	}), nil
}

// GetCurrentTrack returns the currently playing track, or nil.
func (s *Service) GetCurrentTrack(ctx context.Context) (*types.Item, error) {
	track, err := s.client.CurrentlyPlaying(ctx)
	if err != nil {
		s.log("get_current_track").WithError(err).Error("Failed to read playback state")
		return nil, err
	}
	if track == nil {
		return nil, nil
	}
	item := trackItem(*track)
	return &item, nil
}

// LikeTracks saves tracks to the user's library.
func (s *Service) LikeTracks(ctx context.Context, uris []string) error {
	ids, err := trackIDs(uris)
	if err != nil {
		return err
	}
	return s.client.SaveTracks(ctx, ids)
}

// UnlikeTracks removes tracks from the user's library.
func (s *Service) UnlikeTracks(ctx context.Context, uris []string) error {
	ids, err := trackIDs(uris)
	if err != nil {
		return err
	}
	return s.client.UnsaveTracks(ctx, ids)
}

func artistItem(a spotify.FullArtist) types.Item {
	return types.Item{
		ID:     string(a.ID),
		Name:   a.Name,
		URI:    string(a.URI),
		Kind:   types.KindArtist,
		Genres: a.Genres,
	}
}

func trackItem(t spotify.FullTrack) types.Item {
	return types.Item{
		ID:         string(t.ID),
		Name:       t.Name,
		URI:        string(t.URI),
		Kind:       types.KindTrack,
		Artists:    lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return a.Name }),
		ArtistURIs: lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return string(a.URI) }),
	}
}

func trackIDs(uris []string) ([]spotify.ID, error) {
	ids := make([]spotify.ID, 0, len(uris))
	for _, uri := range uris {
		kind, id, err := types.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		if kind != types.KindTrack {
			return nil, &types.ValidationError{Field: "uri", Value: uri, Reason: "expected a track URI"}
		}
		ids = append(ids, spotify.ID(id))
	}
	return ids, nil
}
