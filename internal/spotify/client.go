package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/toozej/spotseed/internal/types"
	"github.com/toozej/spotseed/pkg/config"
)

// refreshWindow is how close to expiry a token is refreshed before a call.
const refreshWindow = 30 * time.Second

// maxTracksPerRequest is the playlist endpoints' per-call item ceiling.
const maxTracksPerRequest = 100

// Client wraps the Spotify client with authentication and token persistence
type Client struct {
	client     *spotify.Client
	config     config.SpotifyConfig
	logger     *logrus.Logger
	token      *oauth2.Token
	tokenMu    sync.RWMutex
	auth       *spotifyauth.Authenticator
	isUserAuth bool
	authURL    string
	state      string
	tokenFile  string
	userID     string
}

// TokenData represents the stored token information
type TokenData struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// NewClient creates a new Spotify client with user authentication flow
func NewClient(ctx context.Context, cfg config.SpotifyConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, config.ErrMissingSpotifyClientID
	}
	if cfg.ClientSecret == "" {
		return nil, config.ErrMissingSpotifyClientSecret
	}
	if cfg.RedirectURL == "" {
		return nil, config.ErrMissingRedirectURL
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserTopRead,
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserLibraryModify,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistModifyPrivate,
			spotifyauth.ScopePlaylistModifyPublic,
			spotifyauth.ScopeImageUpload,
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
		),
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)

	state := uuid.NewString()
	authURL := auth.AuthURL(state)

	logger.WithFields(logrus.Fields{
		"client_id":    cfg.ClientID,
		"redirect_url": cfg.RedirectURL,
	}).Debug("Generated Spotify auth URL")

	tokenFile, err := cfg.GetTokenFilePath()
	if err != nil {
		logger.WithError(err).Warn("Could not determine token file path, authentication will be required each time")
	}

	client := &Client{
		config:    cfg,
		logger:    logger,
		auth:      auth,
		authURL:   authURL,
		state:     state,
		tokenFile: tokenFile,
	}

	if tokenFile != "" {
		if client.loadToken() {
			logger.WithField("token_file", tokenFile).Debug("Loaded existing Spotify authentication token")

			if client.validateStoredToken(ctx) {
				logger.Debug("Existing token is valid, skipping authentication")
				return client, nil
			}
			logger.Info("Existing token is invalid or expired, re-authentication required")
		} else {
			logger.WithField("token_file", tokenFile).Debug("No existing token found")
		}
	}

	return client, nil
}

// newClientWithHTTP builds an authenticated client against an arbitrary API base URL.
func newClientWithHTTP(httpClient *http.Client, baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		client:     spotify.New(httpClient, spotify.WithBaseURL(baseURL)),
		logger:     logger,
		token:      &oauth2.Token{AccessToken: "test", Expiry: time.Now().Add(24 * time.Hour)},
		isUserAuth: true,
		userID:     "test-user",
	}
}

// GetAuthURL returns the URL for user authentication
func (c *Client) GetAuthURL() string {
	return c.authURL
}

// IsAuthenticated returns whether the user is authenticated
func (c *Client) IsAuthenticated() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.isUserAuth && c.client != nil
}

// CompleteAuth completes the authentication process with the authorization code
func (c *Client) CompleteAuth(ctx context.Context, code, state string) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if state != c.state {
		return fmt.Errorf("invalid state parameter")
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.token = token
	c.isUserAuth = true
	c.client = spotify.New(c.auth.Client(ctx, token))

	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return apiError("verify authentication", http.StatusOK, err)
	}
	c.userID = user.ID

	c.logger.WithFields(logrus.Fields{
		"user_id":           user.ID,
		"user_display_name": user.DisplayName,
	}).Info("Authentication verified successfully")

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Failed to save authentication token, will require re-authentication next time")
	} else {
		c.logger.WithField("token_file", c.tokenFile).Info("Authentication token saved")
	}

	return nil
}

// RefreshToken refreshes the access token when it is within refreshWindow of expiry
func (c *Client) RefreshToken(ctx context.Context) error {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if !c.isUserAuth {
		return types.ErrNotAuthenticated
	}

	if c.token != nil && time.Until(c.token.Expiry) > refreshWindow {
		return nil
	}

	c.logger.Debug("Refreshing Spotify access token")

	newToken, err := c.auth.RefreshToken(ctx, c.token)
	if err != nil {
		return fmt.Errorf("failed to refresh token: %w", err)
	}

	c.token = newToken
	c.client = spotify.New(c.auth.Client(ctx, newToken))

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Failed to save refreshed token")
	} else {
		c.logger.Debug("Refreshed token saved successfully")
	}

	return nil
}

// api returns a ready client, refreshing the token first when needed.
func (c *Client) api(ctx context.Context) (*spotify.Client, error) {
	if !c.IsAuthenticated() {
		return nil, types.ErrNotAuthenticated
	}
	if err := c.RefreshToken(ctx); err != nil {
		return nil, err
	}
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.client, nil
}

// TopArtists returns the user's top artists.
func (c *Client) TopArtists(ctx context.Context, limit int) ([]spotify.FullArtist, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	page, err := api.CurrentUsersTopArtists(ctx, spotify.Limit(limit), spotify.Timerange(spotify.MediumTermRange))
	if err != nil {
		return nil, apiError("get top artists", http.StatusOK, err)
	}
	return page.Artists, nil
}

// TopTracks returns the user's top tracks.
func (c *Client) TopTracks(ctx context.Context, limit int) ([]spotify.FullTrack, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	page, err := api.CurrentUsersTopTracks(ctx, spotify.Limit(limit), spotify.Timerange(spotify.MediumTermRange))
	if err != nil {
		return nil, apiError("get top tracks", http.StatusOK, err)
	}
	return page.Tracks, nil
}

// SavedTracks returns the most recently saved library tracks.
func (c *Client) SavedTracks(ctx context.Context, limit int) ([]spotify.SavedTrack, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	page, err := api.CurrentUsersTracks(ctx, spotify.Limit(limit))
	if err != nil {
		return nil, apiError("get saved tracks", http.StatusOK, err)
	}
	return page.Tracks, nil
}

// GenreSeeds returns the genres accepted as recommendation seeds.
func (c *Client) GenreSeeds(ctx context.Context) ([]string, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	genres, err := api.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, apiError("get genre seeds", http.StatusOK, err)
	}
	return genres, nil
}

// Recommendations requests recommendations for seeds tuned by attrs.
func (c *Client) Recommendations(ctx context.Context, seeds spotify.Seeds, attrs *spotify.TrackAttributes, limit int) ([]spotify.SimpleTrack, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := api.GetRecommendations(ctx, seeds, attrs, spotify.Limit(limit))
	if err != nil {
		return nil, apiError("get recommendations", http.StatusOK, err)
	}
	return recs.Tracks, nil
}

// Artist looks up a single artist.
func (c *Client) Artist(ctx context.Context, id string) (*spotify.FullArtist, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	artist, err := api.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return nil, apiError("get artist", http.StatusOK, err)
	}
	return artist, nil
}

// Track looks up a single track.
func (c *Client) Track(ctx context.Context, id string) (*spotify.FullTrack, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	track, err := api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return nil, apiError("get track", http.StatusOK, err)
	}
	return track, nil
}

// currentUserID caches the authenticated user's ID.
func (c *Client) currentUserID(ctx context.Context, api *spotify.Client) (string, error) {
	c.tokenMu.RLock()
	id := c.userID
	c.tokenMu.RUnlock()
	if id != "" {
		return id, nil
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return "", apiError("get current user", http.StatusOK, err)
	}

	c.tokenMu.Lock()
	c.userID = user.ID
	c.tokenMu.Unlock()
	return user.ID, nil
}

// CreatePlaylist creates a public playlist owned by the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*spotify.FullPlaylist, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	userID, err := c.currentUserID(ctx, api)
	if err != nil {
		return nil, err
	}
	playlist, err := api.CreatePlaylistForUser(ctx, userID, name, description, true, false)
	if err != nil {
		return nil, apiError("create playlist", http.StatusCreated, err)
	}
	return playlist, nil
}

// AddTracks appends tracks to a playlist in batches.
func (c *Client) AddTracks(ctx context.Context, playlistID string, ids []spotify.ID) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	for _, batch := range lo.Chunk(ids, maxTracksPerRequest) {
		if _, err := api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return apiError("add playlist tracks", http.StatusCreated, err)
		}
	}
	return nil
}

// ReplaceTracks overwrites a playlist's items.
func (c *Client) ReplaceTracks(ctx context.Context, playlistID string, ids []spotify.ID) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	batches := lo.Chunk(ids, maxTracksPerRequest)
	if len(batches) == 0 {
		batches = [][]spotify.ID{nil}
	}
	if err := api.ReplacePlaylistTracks(ctx, spotify.ID(playlistID), batches[0]...); err != nil {
		return apiError("replace playlist tracks", http.StatusCreated, err)
	}
	for _, batch := range batches[1:] {
		if _, err := api.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...); err != nil {
			return apiError("add playlist tracks", http.StatusCreated, err)
		}
	}
	return nil
}

// ChangeDetails updates a playlist's name and description and keeps it public.
func (c *Client) ChangeDetails(ctx context.Context, playlistID, name, description string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	if err := api.ChangePlaylistNameAccessAndDescription(ctx, spotify.ID(playlistID), name, description, true); err != nil {
		return apiError("update playlist details", http.StatusOK, err)
	}
	return nil
}

// Playlist fetches a playlist and whether the current user still follows it.
// A missing playlist returns (nil, false, nil).
func (c *Client) Playlist(ctx context.Context, playlistID string) (*spotify.FullPlaylist, bool, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, false, err
	}
	playlist, err := api.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, apiError("get playlist", http.StatusOK, err)
	}

	userID, err := c.currentUserID(ctx, api)
	if err != nil {
		return nil, false, err
	}
	follows, err := api.UserFollowsPlaylist(ctx, spotify.ID(playlistID), userID)
	if err != nil {
		return nil, false, apiError("check playlist followers", http.StatusOK, err)
	}
	return playlist, len(follows) > 0 && follows[0], nil
}

// SetImage uploads a JPEG playlist cover.
func (c *Client) SetImage(ctx context.Context, playlistID string, jpeg []byte) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	if err := api.SetPlaylistImage(ctx, spotify.ID(playlistID), bytes.NewReader(jpeg)); err != nil {
		return apiError("upload playlist image", http.StatusAccepted, err)
	}
	return nil
}

// Play starts playback of a context URI, optionally on a specific device.
func (c *Client) Play(ctx context.Context, deviceID, contextURI string) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	uri := spotify.URI(contextURI)
	opts := &spotify.PlayOptions{PlaybackContext: &uri}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	if err := api.PlayOpt(ctx, opts); err != nil {
		return apiError("start playback", http.StatusNoContent, err)
	}
	return nil
}

// Devices lists the user's Spotify Connect devices.
func (c *Client) Devices(ctx context.Context) ([]spotify.PlayerDevice, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	devices, err := api.PlayerDevices(ctx)
	if err != nil {
		return nil, apiError("get devices", http.StatusOK, err)
	}
	return devices, nil
}

// CurrentlyPlaying returns the playing track, or nil when nothing plays.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*spotify.FullTrack, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	current, err := api.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, apiError("get currently playing", http.StatusOK, err)
	}
	if current == nil || current.Item == nil {
		return nil, nil
	}
	return current.Item, nil
}

// SaveTracks adds tracks to the user's library.
func (c *Client) SaveTracks(ctx context.Context, ids []spotify.ID) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	if err := api.AddTracksToLibrary(ctx, ids...); err != nil {
		return apiError("like tracks", http.StatusOK, err)
	}
	return nil
}

// UnsaveTracks removes tracks from the user's library.
func (c *Client) UnsaveTracks(ctx context.Context, ids []spotify.ID) error {
	api, err := c.api(ctx)
	if err != nil {
		return err
	}
	if err := api.RemoveTracksFromLibrary(ctx, ids...); err != nil {
		return apiError("unlike tracks", http.StatusOK, err)
	}
	return nil
}

// loadToken attempts to load a stored token from disk
func (c *Client) loadToken() bool {
	if c.tokenFile == "" {
		return false
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Debug("Failed to read token file")
		}
		return false
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		c.logger.WithError(err).Debug("Failed to parse token file")
		return false
	}

	c.token = &oauth2.Token{
		AccessToken:  tokenData.AccessToken,
		RefreshToken: tokenData.RefreshToken,
		TokenType:    tokenData.TokenType,
		Expiry:       tokenData.Expiry,
	}

	return true
}

// saveTokenUnsafe saves the current token to disk without acquiring locks
// This should only be called when the caller already holds the appropriate lock
func (c *Client) saveTokenUnsafe() error {
	if c.tokenFile == "" || c.token == nil {
		return nil
	}

	tokenData := TokenData{
		AccessToken:  c.token.AccessToken,
		RefreshToken: c.token.RefreshToken,
		TokenType:    c.token.TokenType,
		Expiry:       c.token.Expiry,
	}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	// Write to temporary file first, then rename for atomic operation
	tempFile := c.tokenFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tempFile, c.tokenFile); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename token file: %w", err)
	}

	return nil
}

// validateStoredToken checks the stored token with a test API call, refreshing it first if it is stale
func (c *Client) validateStoredToken(ctx context.Context) bool {
	if c.token == nil {
		return false
	}

	token := c.token
	if time.Until(token.Expiry) <= refreshWindow && token.RefreshToken != "" {
		refreshed, err := c.auth.RefreshToken(ctx, token)
		if err != nil {
			c.logger.WithError(err).Debug("Stored token refresh failed")
			return false
		}
		token = refreshed
	}

	testClient := spotify.New(c.auth.Client(ctx, token))
	user, err := testClient.CurrentUser(ctx)
	if err != nil {
		c.logger.WithError(err).Debug("Stored token validation failed")
		return false
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.token = token
	c.client = testClient
	c.isUserAuth = true
	c.userID = user.ID
	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Debug("Failed to persist validated token")
	}
	return true
}
