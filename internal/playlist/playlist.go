// Package playlist lands a collected track list in exactly one playlist.
package playlist

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/toozej/spotseed/internal/cover"
	"github.com/toozej/spotseed/internal/types"
)

// maxDescriptionRunes is the playlist description limit.
const maxDescriptionRunes = 300

// Outcome records which path a reconciliation took.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeReused  Outcome = "reused"
)

// Result describes the playlist a run wrote to.
type Result struct {
	Playlist    types.Playlist
	Outcome     Outcome
	Description string
	Played      bool
}

// Reconciler implements the reuse-or-create playlist state machine
type Reconciler struct {
	spotify types.SpotifyService
	store   types.ConfigStore
	logger  *log.Logger
	prefix  string
	now     func() time.Time
}

// NewReconciler creates a new playlist reconciler; prefix starts generated names.
func NewReconciler(spotify types.SpotifyService, store types.ConfigStore, prefix string, logger *log.Logger) *Reconciler {
	if prefix == "" {
		prefix = "spotseed"
	}
	return &Reconciler{
		spotify: spotify,
		store:   store,
		logger:  logger,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Reconcile writes uris to the cached default playlist when it is still
// usable, or to a new playlist otherwise (always when preserve is set).
// The cover is then replaced and, if requested, playback starts.
func (r *Reconciler) Reconcile(ctx context.Context, req *types.RecommendationRequest, uris []string, preserve bool) (*Result, error) {
	name := req.PlaylistName
	if name == "" {
		name = fmt.Sprintf("%s %s", r.prefix, r.now().Format("2006-01-02 15:04"))
	}
	result := &Result{Description: Describe(req)}

	entry := r.logger.WithFields(log.Fields{
		"component":   "playlist_reconciler",
		"operation":   "reconcile",
		"track_count": len(uris),
		"preserve":    preserve,
	})

	existing, reuse, err := r.reusable(ctx, preserve)
	if err != nil {
		return nil, err
	}

	if reuse {
		if err := r.spotify.ReplacePlaylistTracks(ctx, existing.ID, uris); err != nil {
			return nil, err
		}
		if err := r.spotify.UpdatePlaylistDetails(ctx, existing.ID, name, result.Description); err != nil {
			return nil, err
		}
		existing.Name = name
		if existing.URI == "" {
			existing.URI = types.BuildURI(types.KindPlaylist, existing.ID)
		}
		if err := r.store.SetDefaultPlaylist(ctx, existing); err != nil {
			return nil, err
		}
		result.Playlist = existing
		result.Outcome = OutcomeReused
	} else {
		created, err := r.spotify.CreatePlaylist(ctx, name, result.Description)
		if err != nil {
			return nil, err
		}
		if err := r.store.SetDefaultPlaylist(ctx, *created); err != nil {
			return nil, err
		}
		if err := r.spotify.AddTracksToPlaylist(ctx, created.ID, uris); err != nil {
			return nil, err
		}
		result.Playlist = *created
		result.Outcome = OutcomeCreated
	}
	req.PlaylistID = result.Playlist.ID

	entry = entry.WithFields(log.Fields{
		"playlist_id": result.Playlist.ID,
		"outcome":     result.Outcome,
	})
	entry.Info("Playlist updated")

	image, err := cover.Generate(uris)
	if err != nil {
		return nil, err
	}
	if err := r.spotify.UploadPlaylistImage(ctx, result.Playlist.ID, image); err != nil {
		return nil, err
	}

	if req.AutoPlay {
		deviceID := ""
		if req.PlaybackDevice != nil {
			deviceID = req.PlaybackDevice.ID
		}
		if err := r.spotify.StartPlayback(ctx, deviceID, result.Playlist.URI); err != nil {
			return nil, err
		}
		result.Played = true
	}

	return result, nil
}

// reusable returns the cached default playlist and whether it may be reused.
func (r *Reconciler) reusable(ctx context.Context, preserve bool) (types.Playlist, bool, error) {
	if preserve {
		return types.Playlist{}, false, nil
	}

	cached, ok, err := r.store.DefaultPlaylist(ctx)
	if err != nil || !ok {
		return types.Playlist{}, false, err
	}

	usable, err := r.spotify.CheckPlaylistUsable(ctx, cached.ID)
	if err != nil {
		return types.Playlist{}, false, err
	}
	if !usable {
		r.logger.WithFields(log.Fields{
			"component":   "playlist_reconciler",
			"operation":   "check_default",
			"playlist_id": cached.ID,
		}).Info("Cached playlist was deleted or made private, creating a new one")
	}
	return cached, usable, nil
}

// Describe summarizes the seeds and tuning of req for a playlist description.
func Describe(req *types.RecommendationRequest) string {
	title := cases.Title(language.English)

	seeds := req.Seeds.Entries()
	names := make([]string, len(seeds))
	for i, s := range seeds {
		if s.Type == types.SeedKindGenre {
			names[i] = title.String(s.Name)
		} else {
			names[i] = s.String()
		}
	}

	var b strings.Builder
	b.WriteString("Based on ")
	if req.BasedOn != "" {
		b.WriteString(req.BasedOn)
		b.WriteString(": ")
	}
	b.WriteString(strings.Join(names, ", "))

	var tunes []string
	for k, v := range req.Params {
		if k == "limit" || strings.HasPrefix(k, "seed_") {
			continue
		}
		tunes = append(tunes, k+"="+v)
	}
	if len(tunes) > 0 {
		sort.Strings(tunes)
		b.WriteString(" | ")
		b.WriteString(strings.Join(tunes, " "))
	}

	return truncate(b.String(), maxDescriptionRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}
