// Package blacklist maintains the user's blacklist and tests recommendation
// candidates against it.
package blacklist

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bloom/v3"
	mapset "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/types"
)

const falsePositiveRate = 0.001

// Filter answers membership questions for one loaded blacklist.
type Filter struct {
	trackBloom *bloom.BloomFilter
	tracks     map[string]struct{}
	artists    mapset.Set[string]
}

// NewFilter indexes bl. A nil blacklist rejects nothing.
func NewFilter(bl *types.Blacklist) *Filter {
	if bl == nil {
		bl = types.NewBlacklist()
	}

	capacity := uint(len(bl.Tracks))
	if capacity == 0 {
		capacity = 1
	}

	f := &Filter{
		trackBloom: bloom.NewWithEstimates(capacity, falsePositiveRate),
		tracks:     make(map[string]struct{}, len(bl.Tracks)),
		artists:    mapset.NewThreadUnsafeSet[string](),
	}
	for uri := range bl.Tracks {
		f.tracks[uri] = struct{}{}
		f.trackBloom.AddString(uri)
	}
	for uri := range bl.Artists {
		f.artists.Add(uri)
	}
	return f
}

// Rejects reports whether candidate is blacklisted, and why.
// The bloom filter only short-circuits misses; the exact track map decides.
func (f *Filter) Rejects(candidate types.CandidateTrack) (bool, string) {
	if f.trackBloom.TestString(candidate.URI) {
		if _, ok := f.tracks[candidate.URI]; ok {
			return true, "track blacklisted"
		}
	}

	if f.artists.Cardinality() == 0 || len(candidate.ArtistURIs) == 0 {
		return false, ""
	}
	overlap := f.artists.Intersect(mapset.NewThreadUnsafeSet(candidate.ArtistURIs...))
	if overlap.Cardinality() > 0 {
		return true, fmt.Sprintf("artist blacklisted: %v", overlap.ToSlice())
	}
	return false, ""
}

// Manager edits the persisted blacklist, resolving display names through the gateway.
type Manager struct {
	spotify types.SpotifyService
	store   types.ConfigStore
	logger  *log.Logger
}

// NewManager creates a new blacklist manager
func NewManager(spotify types.SpotifyService, store types.ConfigStore, logger *log.Logger) *Manager {
	return &Manager{
		spotify: spotify,
		store:   store,
		logger:  logger,
	}
}

// Add blacklists each URI after looking up its name.
func (m *Manager) Add(ctx context.Context, uris []string) ([]types.BlacklistEntry, error) {
	added := make([]types.BlacklistEntry, 0, len(uris))
	for _, uri := range uris {
		kind, _, err := types.ParseURI(uri)
		if err != nil {
			return added, err
		}
		if kind != types.KindTrack && kind != types.KindArtist {
			return added, &types.ValidationError{Field: "uri", Value: uri, Reason: "only tracks and artists can be blacklisted"}
		}

		item, err := m.spotify.GetEntity(ctx, uri, kind)
		if err != nil {
			return added, err
		}

		entry := entryFor(*item)
		if err := m.store.AddBlacklistEntry(ctx, entry); err != nil {
			return added, err
		}
		added = append(added, entry)

		m.logger.WithFields(log.Fields{
			"component": "blacklist",
			"operation": "add",
			"uri":       entry.URI,
			"name":      entry.Name,
		}).Info("Added to blacklist")
	}
	return added, nil
}

// AddCurrent blacklists the currently playing track.
func (m *Manager) AddCurrent(ctx context.Context) (*types.BlacklistEntry, error) {
	item, err := m.spotify.GetCurrentTrack(ctx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &types.ValidationError{Field: "current", Reason: "nothing is playing"}
	}

	entry := entryFor(*item)
	if err := m.store.AddBlacklistEntry(ctx, entry); err != nil {
		return nil, err
	}

	m.logger.WithFields(log.Fields{
		"component": "blacklist",
		"operation": "add_current",
		"uri":       entry.URI,
		"name":      entry.Name,
	}).Info("Added currently playing track to blacklist")
	return &entry, nil
}

// Remove deletes URIs from the blacklist, returning those that were not present.
func (m *Manager) Remove(ctx context.Context, uris []string) ([]string, error) {
	var missing []string
	for _, uri := range uris {
		removed, err := m.store.RemoveBlacklistEntry(ctx, uri)
		if err != nil {
			return missing, err
		}
		if !removed {
			missing = append(missing, uri)
			m.logger.WithFields(log.Fields{
				"component": "blacklist",
				"operation": "remove",
				"uri":       uri,
			}).Warn("URI was not blacklisted")
		}
	}
	return missing, nil
}

// Load returns the stored blacklist and its filter.
func (m *Manager) Load(ctx context.Context) (*types.Blacklist, *Filter, error) {
	bl, err := m.store.Blacklist(ctx)
	if err != nil {
		return nil, nil, err
	}
	return bl, NewFilter(bl), nil
}

func entryFor(item types.Item) types.BlacklistEntry {
	entry := types.BlacklistEntry{URI: item.URI, Name: item.Name}
	if item.Kind == types.KindTrack {
		entry.Artists = item.Artists
	}
	return entry
}
