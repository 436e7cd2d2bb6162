package types

import (
	"fmt"
	"strconv"
)

// SeedType selects how seeds are turned into request parameters.
type SeedType string

const (
	SeedGenres  SeedType = "genres"
	SeedArtists SeedType = "artists"
	SeedTracks  SeedType = "tracks"
	SeedCustom  SeedType = "custom"
)

// Seed type tags carried by individual seeds.
const (
	SeedKindGenre  = "genre"
	SeedKindArtist = "artist"
	SeedKindTrack  = "track"
)

// Seed describes one recommendation seed.
type Seed struct {
	Name    string   `json:"name"`
	ID      string   `json:"id,omitempty"`
	Type    string   `json:"type"`
	Artists []string `json:"artists,omitempty"`
}

// String renders the seed for prompts and descriptions.
func (s Seed) String() string {
	if len(s.Artists) > 0 {
		return fmt.Sprintf("%s by %s", s.Name, joinNames(s.Artists))
	}
	return s.Name
}

// Tag returns the per-seed type tag a homogeneous seed type requires,
// or "" for custom requests.
func (t SeedType) Tag() string {
	switch t {
	case SeedGenres:
		return SeedKindGenre
	case SeedArtists:
		return SeedKindArtist
	case SeedTracks:
		return SeedKindTrack
	}
	return ""
}

// SeedSet is an ordered mapping from a monotonically increasing key to a seed.
type SeedSet struct {
	next    int
	keys    []int
	entries map[int]Seed
}

// NewSeedSet returns an empty seed set.
func NewSeedSet() *SeedSet {
	return &SeedSet{entries: make(map[int]Seed)}
}

// Len returns the number of seeds.
func (s *SeedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Entries returns the seeds in insertion order.
func (s *SeedSet) Entries() []Seed {
	if s == nil {
		return nil
	}
	out := make([]Seed, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entries[k])
	}
	return out
}

func (s *SeedSet) add(seed Seed) (int, error) {
	if len(s.keys) >= MaxSeeds {
		return 0, fmt.Errorf("%w: at most %d seeds", ErrTooManySeeds, MaxSeeds)
	}
	key := s.next
	s.next++
	s.keys = append(s.keys, key)
	s.entries[key] = seed
	return key, nil
}

// RecommendationRequest is the mutable state of one curation run.
type RecommendationRequest struct {
	Limit          int
	LimitOriginal  int
	BasedOn        string
	SeedType       SeedType
	Seeds          *SeedSet
	Params         map[string]string
	PlaylistName   string
	PlaylistID     string
	AutoPlay       bool
	PlaybackDevice *Device
}

// NewRecommendationRequest initializes a request for limit tracks.
func NewRecommendationRequest(limit int) (*RecommendationRequest, error) {
	if limit < 1 || limit > MaxLimit {
		return nil, &ValidationError{Field: "limit", Value: strconv.Itoa(limit), Reason: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
	}
	return &RecommendationRequest{
		Limit:         limit,
		LimitOriginal: limit,
		Seeds:         NewSeedSet(),
		Params:        map[string]string{"limit": strconv.Itoa(limit)},
	}, nil
}

// SetLimit applies an explicit user override of the target count.
func (r *RecommendationRequest) SetLimit(limit int) error {
	if limit < 1 || limit > MaxLimit {
		return &ValidationError{Field: "limit", Value: strconv.Itoa(limit), Reason: fmt.Sprintf("must be between 1 and %d", MaxLimit)}
	}
	r.Limit = limit
	r.LimitOriginal = limit
	r.Params["limit"] = strconv.Itoa(limit)
	return nil
}

// AddSeed appends a seed, enforcing the seed ceiling and type homogeneity.
func (r *RecommendationRequest) AddSeed(seed Seed) (int, error) {
	if r.Seeds == nil {
		r.Seeds = NewSeedSet()
	}
	if r.SeedType != SeedCustom {
		if want := r.SeedType.Tag(); seed.Type != want {
			return 0, fmt.Errorf("%w: %q seed in a %s request", ErrSeedTypeMismatch, seed.Type, r.SeedType)
		}
	}
	return r.Seeds.add(seed)
}

// Preset is a named snapshot of a request.
type Preset struct {
	Version        int               `json:"version"`
	Limit          int               `json:"limit"`
	BasedOn        string            `json:"based_on"`
	SeedType       SeedType          `json:"seed_type"`
	Seeds          []Seed            `json:"seeds"`
	Params         map[string]string `json:"params"`
	PlaylistName   string            `json:"playlist_name,omitempty"`
	AutoPlay       bool              `json:"auto_play"`
	PlaybackDevice *Device           `json:"playback_device,omitempty"`
}

// PresetVersion is the current preset document version.
const PresetVersion = 1

// Snapshot captures the request as a preset.
func (r *RecommendationRequest) Snapshot() Preset {
	params := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	return Preset{
		Version:        PresetVersion,
		Limit:          r.LimitOriginal,
		BasedOn:        r.BasedOn,
		SeedType:       r.SeedType,
		Seeds:          r.Seeds.Entries(),
		Params:         params,
		PlaylistName:   r.PlaylistName,
		AutoPlay:       r.AutoPlay,
		PlaybackDevice: r.PlaybackDevice,
	}
}

// Restore rebuilds a request from a preset. The playlist ID is never restored.
func (p Preset) Restore() (*RecommendationRequest, error) {
	req, err := NewRecommendationRequest(p.Limit)
	if err != nil {
		return nil, err
	}
	req.BasedOn = p.BasedOn
	req.SeedType = p.SeedType
	req.PlaylistName = p.PlaylistName
	req.AutoPlay = p.AutoPlay
	req.PlaybackDevice = p.PlaybackDevice
	for _, seed := range p.Seeds {
		if _, err := req.AddSeed(seed); err != nil {
			return nil, fmt.Errorf("invalid preset: %w", err)
		}
	}
	for k, v := range p.Params {
		req.Params[k] = v
	}
	req.Params["limit"] = strconv.Itoa(req.LimitOriginal)
	return req, nil
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := names[0]
	for _, n := range names[1 : len(names)-1] {
		out += ", " + n
	}
	return out + " & " + names[len(names)-1]
}
