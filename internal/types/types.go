package types

import (
	"context"
	"fmt"
	"strings"
)

// MaxSeeds is the recommendation endpoint's ceiling on combined seeds.
const MaxSeeds = 5

// MaxLimit is the largest result count a single recommendation request accepts.
const MaxLimit = 100

// SpotifyService defines the Spotify API operations the curation workflow needs.
type SpotifyService interface {
	GetTopItems(ctx context.Context, kind ItemKind, limit int) ([]Item, error)
	GetSavedTracks(ctx context.Context, limit int) ([]Item, error)
	GetGenreSeeds(ctx context.Context) ([]string, error)
	GetRecommendations(ctx context.Context, params map[string]string) ([]CandidateTrack, error)
	GetEntity(ctx context.Context, uri string, kind ItemKind) (*Item, error)
	CreatePlaylist(ctx context.Context, name, description string) (*Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, uris []string) error
	ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) error
	UpdatePlaylistDetails(ctx context.Context, playlistID, name, description string) error
	CheckPlaylistUsable(ctx context.Context, playlistID string) (bool, error)
	UploadPlaylistImage(ctx context.Context, playlistID string, jpeg []byte) error
	StartPlayback(ctx context.Context, deviceID, playlistURI string) error
	GetDevices(ctx context.Context) ([]Device, error)
	GetCurrentTrack(ctx context.Context) (*Item, error)
	LikeTracks(ctx context.Context, uris []string) error
	UnlikeTracks(ctx context.Context, uris []string) error
}

// Authenticator covers the interactive OAuth flow.
type Authenticator interface {
	GetAuthURL() string
	IsAuthenticated() bool
	CompleteAuth(ctx context.Context, code, state string) error
}

// ConfigStore persists user-maintained state between invocations.
// Missing sections and keys are reported as empty results, never as errors.
type ConfigStore interface {
	Blacklist(ctx context.Context) (*Blacklist, error)
	AddBlacklistEntry(ctx context.Context, entry BlacklistEntry) error
	RemoveBlacklistEntry(ctx context.Context, uri string) (bool, error)

	Presets(ctx context.Context) (map[string]Preset, error)
	SavePreset(ctx context.Context, name string, preset Preset) error
	RemovePreset(ctx context.Context, name string) (bool, error)

	Devices(ctx context.Context) (map[string]Device, error)
	SaveDevice(ctx context.Context, name string, device Device) error
	RemoveDevice(ctx context.Context, name string) (bool, error)

	Playlists(ctx context.Context) (map[string]Playlist, error)
	SavePlaylist(ctx context.Context, name string, playlist Playlist) error
	RemovePlaylist(ctx context.Context, name string) (bool, error)

	DefaultPlaylist(ctx context.Context) (Playlist, bool, error)
	SetDefaultPlaylist(ctx context.Context, playlist Playlist) error
}

// Prompter reads one line of operator input after showing a message.
type Prompter interface {
	Prompt(ctx context.Context, message string) (string, error)
}

// ItemKind is the entity type embedded in a Spotify URI.
type ItemKind string

const (
	KindArtist   ItemKind = "artist"
	KindTrack    ItemKind = "track"
	KindPlaylist ItemKind = "playlist"
)

// ParseURI splits a "spotify:<kind>:<id>" URI.
func ParseURI(uri string) (ItemKind, string, error) {
	parts := strings.Split(uri, ":")
	if len(parts) != 3 || parts[0] != "spotify" || parts[2] == "" {
		return "", "", &ValidationError{Field: "uri", Value: uri, Reason: "expected spotify:<type>:<id>"}
	}
	return ItemKind(parts[1]), parts[2], nil
}

// BuildURI is the inverse of ParseURI.
func BuildURI(kind ItemKind, id string) string {
	return fmt.Sprintf("spotify:%s:%s", kind, id)
}

// Core data models

// Item is an artist or track as returned by the top, saved and lookup endpoints.
type Item struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Kind       ItemKind `json:"kind"`
	Artists    []string `json:"artists,omitempty"`
	ArtistURIs []string `json:"artist_uris,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// CandidateTrack is one recommendation before blacklist filtering.
type CandidateTrack struct {
	URI         string   `json:"uri"`
	Name        string   `json:"name"`
	ArtistURIs  []string `json:"artist_uris"`
	ArtistNames []string `json:"artist_names"`
}

// Playlist identifies a Spotify playlist.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Device is a Spotify Connect playback target.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

// BlacklistEntry excludes a track or an artist from future recommendations.
type BlacklistEntry struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []string `json:"artists,omitempty"`
}

// Kind returns the partition the entry belongs to.
func (e BlacklistEntry) Kind() ItemKind {
	kind, _, err := ParseURI(e.URI)
	if err != nil {
		return ""
	}
	return kind
}

// Blacklist holds the two independent partitions keyed by URI.
type Blacklist struct {
	Tracks  map[string]BlacklistEntry `json:"tracks"`
	Artists map[string]BlacklistEntry `json:"artists"`
}

// NewBlacklist returns an empty blacklist.
func NewBlacklist() *Blacklist {
	return &Blacklist{
		Tracks:  make(map[string]BlacklistEntry),
		Artists: make(map[string]BlacklistEntry),
	}
}

// Add stores the entry in the partition matching its URI type tag.
func (b *Blacklist) Add(entry BlacklistEntry) error {
	switch entry.Kind() {
	case KindTrack:
		b.Tracks[entry.URI] = entry
	case KindArtist:
		b.Artists[entry.URI] = entry
	default:
		return &ValidationError{Field: "uri", Value: entry.URI, Reason: "only track and artist URIs can be blacklisted"}
	}
	return nil
}

// Len returns the combined size of both partitions.
func (b *Blacklist) Len() int {
	return len(b.Tracks) + len(b.Artists)
}
