// Package seed turns one user-chosen basis into recommendation seeds and
// request parameters.
package seed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/search"
	"github.com/toozej/spotseed/internal/types"
)

// TopPoolSize is how many top or saved items are fetched for genre counting
// and custom selection.
const TopPoolSize = 50

// DefaultSelectionAttempts bounds the interactive selection loop.
const DefaultSelectionAttempts = 3

// Basis selects where seeds come from.
type Basis string

const (
	BasisTopGenres         Basis = "top-genres"
	BasisTopArtists        Basis = "top-artists"
	BasisTopTracks         Basis = "top-tracks"
	BasisCustomGenres      Basis = "custom-genres"
	BasisCustomArtists     Basis = "custom-artists"
	BasisCustomTracks      Basis = "custom-tracks"
	BasisSavedTracks       Basis = "saved-tracks"
	BasisCustomSavedTracks Basis = "custom-saved-tracks"
	BasisMixed             Basis = "seed"
)

// Bases lists every basis in flag order.
var Bases = []Basis{
	BasisTopGenres, BasisTopArtists, BasisTopTracks,
	BasisCustomGenres, BasisCustomArtists, BasisCustomTracks,
	BasisSavedTracks, BasisCustomSavedTracks, BasisMixed,
}

// Label is the human-readable basis used in playlist descriptions.
func (b Basis) Label() string {
	switch b {
	case BasisMixed:
		return "custom seed"
	case BasisSavedTracks:
		return "recently saved tracks"
	case BasisCustomSavedTracks:
		return "custom recently saved tracks"
	}
	return strings.ReplaceAll(string(b), "-", " ")
}

// Builder populates a RecommendationRequest's seeds from one basis.
type Builder struct {
	spotify   types.SpotifyService
	prompter  types.Prompter
	suggester *search.GenreSuggester
	logger    *logrus.Logger
	attempts  int
}

// NewBuilder creates a new seed builder
func NewBuilder(spotify types.SpotifyService, prompter types.Prompter, logger *logrus.Logger) *Builder {
	return &Builder{
		spotify:   spotify,
		prompter:  prompter,
		suggester: search.NewGenreSuggester(logger),
		logger:    logger,
		attempts:  DefaultSelectionAttempts,
	}
}

// Build fills req from basis. n is the seed count for the top/saved bases;
// input is the free-form token string for BasisMixed.
func (b *Builder) Build(ctx context.Context, req *types.RecommendationRequest, basis Basis, n int, input string) error {
	req.BasedOn = basis.Label()

	var err error
	switch basis {
	case BasisTopGenres:
		err = b.topGenres(ctx, req, n)
	case BasisTopArtists:
		err = b.topItems(ctx, req, types.KindArtist, n)
	case BasisTopTracks:
		err = b.topItems(ctx, req, types.KindTrack, n)
	case BasisSavedTracks:
		err = b.savedTracks(ctx, req, n)
	case BasisCustomGenres, BasisCustomArtists, BasisCustomTracks, BasisCustomSavedTracks:
		err = b.custom(ctx, req, basis)
	case BasisMixed:
		err = b.mixed(ctx, req, input)
	default:
		err = &types.ValidationError{Field: "basis", Value: string(basis), Reason: "unknown seed basis"}
	}
	if err != nil {
		return err
	}

	if err := CreateSeed(req); err != nil {
		return err
	}

	b.logger.WithFields(logrus.Fields{
		"component":  "seed_builder",
		"operation":  "build",
		"basis":      basis,
		"seed_type":  req.SeedType,
		"seed_count": req.Seeds.Len(),
		"seeds":      lo.Map(req.Seeds.Entries(), func(s types.Seed, _ int) string { return s.String() }),
	}).Info("Built recommendation seeds")
	return nil
}

func validateCount(n int) error {
	if n < 1 || n > types.MaxSeeds {
		return &types.ValidationError{Field: "seeds", Value: strconv.Itoa(n), Reason: fmt.Sprintf("seed count must be between 1 and %d", types.MaxSeeds)}
	}
	return nil
}

func (b *Builder) topGenres(ctx context.Context, req *types.RecommendationRequest, n int) error {
	if err := validateCount(n); err != nil {
		return err
	}
	req.SeedType = types.SeedGenres

	genres, err := b.rankedGenres(ctx)
	if err != nil {
		return err
	}
	if len(genres) == 0 {
		return fmt.Errorf("%w: none of your top artists' genres are valid seeds", types.ErrNoSeeds)
	}

	for _, g := range lo.Slice(genres, 0, n) {
		if _, err := req.AddSeed(types.Seed{Name: g, Type: types.SeedKindGenre}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) rankedGenres(ctx context.Context) ([]string, error) {
	artists, err := b.spotify.GetTopItems(ctx, types.KindArtist, TopPoolSize)
	if err != nil {
		return nil, err
	}
	valid, err := b.spotify.GetGenreSeeds(ctx)
	if err != nil {
		return nil, err
	}
	return RankGenres(artists, valid), nil
}

func (b *Builder) topItems(ctx context.Context, req *types.RecommendationRequest, kind types.ItemKind, n int) error {
	if err := validateCount(n); err != nil {
		return err
	}
	req.SeedType = seedTypeForKind(kind)

	items, err := b.spotify.GetTopItems(ctx, kind, n)
	if err != nil {
		return err
	}
	return addItems(req, lo.Slice(items, 0, n))
}

func (b *Builder) savedTracks(ctx context.Context, req *types.RecommendationRequest, n int) error {
	if err := validateCount(n); err != nil {
		return err
	}
	req.SeedType = types.SeedTracks

	items, err := b.spotify.GetSavedTracks(ctx, n)
	if err != nil {
		return err
	}
	return addItems(req, lo.Slice(items, 0, n))
}

func addItems(req *types.RecommendationRequest, items []types.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no %s found", types.ErrNoSeeds, req.BasedOn)
	}
	for _, item := range items {
		if _, err := req.AddSeed(seedFromItem(item)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) custom(ctx context.Context, req *types.RecommendationRequest, basis Basis) error {
	var candidates []types.Seed

	switch basis {
	case BasisCustomGenres:
		req.SeedType = types.SeedGenres
		genres, err := b.rankedGenres(ctx)
		if err != nil {
			return err
		}
		candidates = lo.Map(genres, func(g string, _ int) types.Seed {
			return types.Seed{Name: g, Type: types.SeedKindGenre}
		})
	case BasisCustomArtists, BasisCustomTracks:
		kind := types.KindArtist
		if basis == BasisCustomTracks {
			kind = types.KindTrack
		}
		req.SeedType = seedTypeForKind(kind)
		items, err := b.spotify.GetTopItems(ctx, kind, TopPoolSize)
		if err != nil {
			return err
		}
		candidates = lo.Map(items, func(item types.Item, _ int) types.Seed { return seedFromItem(item) })
	case BasisCustomSavedTracks:
		req.SeedType = types.SeedTracks
		items, err := b.spotify.GetSavedTracks(ctx, TopPoolSize)
		if err != nil {
			return err
		}
		candidates = lo.Map(items, func(item types.Item, _ int) types.Seed { return seedFromItem(item) })
	}

	if len(candidates) == 0 {
		return fmt.Errorf("%w: no candidates to choose from for %s", types.ErrNoSeeds, basis.Label())
	}

	chosen, err := b.selectSeeds(ctx, candidates)
	if err != nil {
		return err
	}
	for _, s := range chosen {
		if _, err := req.AddSeed(s); err != nil {
			return err
		}
	}
	return nil
}

// selectSeeds asks the operator for 1-5 indices, re-prompting with the
// reason on invalid input, at most b.attempts times.
func (b *Builder) selectSeeds(ctx context.Context, candidates []types.Seed) ([]types.Seed, error) {
	var listing strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&listing, "%3d. %s\n", i+1, c)
	}
	base := listing.String() + fmt.Sprintf("Select 1-%d seeds by number, separated by spaces: ", types.MaxSeeds)

	message := base
	var lastErr *types.ValidationError
	for attempt := 1; attempt <= b.attempts; attempt++ {
		answer, err := b.prompter.Prompt(ctx, message)
		if err != nil {
			return nil, err
		}

		indices, vErr := ParseSelection(answer, len(candidates))
		if vErr == nil {
			return lo.Map(indices, func(i int, _ int) types.Seed { return candidates[i] }), nil
		}

		lastErr = vErr
		b.logger.WithFields(logrus.Fields{
			"component": "seed_builder",
			"operation": "select",
			"attempt":   attempt,
			"input":     answer,
		}).Warn(vErr.Reason)
		message = fmt.Sprintf("%s\n%s", vErr.Reason, base)
	}

	return nil, errors.Join(types.ErrSelectionAborted, lastErr)
}

// ParseSelection converts a space-separated list of 1-based indices into
// distinct 0-based indices, preserving input order.
func ParseSelection(input string, size int) ([]int, *types.ValidationError) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, &types.ValidationError{Field: "selection", Value: input, Reason: "select at least one seed"}
	}

	var indices []int
	seen := make(map[int]bool)
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, &types.ValidationError{Field: "selection", Value: input, Reason: fmt.Sprintf("%q is not a number", f)}
		}
		if n < 1 || n > size {
			return nil, &types.ValidationError{Field: "selection", Value: input, Reason: fmt.Sprintf("%d is out of range 1-%d", n, size)}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n-1)
	}

	if len(indices) > types.MaxSeeds {
		return nil, &types.ValidationError{Field: "selection", Value: input, Reason: fmt.Sprintf("select at most %d seeds", types.MaxSeeds)}
	}
	return indices, nil
}

// mixed classifies each whitespace-separated token as a genre, an artist or
// track URI, or invalid. Invalid tokens are skipped with a suggestion; zero
// surviving seeds is ErrNoSeeds.
func (b *Builder) mixed(ctx context.Context, req *types.RecommendationRequest, input string) error {
	req.SeedType = types.SeedCustom

	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return fmt.Errorf("%w: seed input is empty", types.ErrNoSeeds)
	}
	if len(tokens) > types.MaxSeeds {
		return &types.ValidationError{Field: "seed", Value: input, Reason: fmt.Sprintf("at most %d seeds are allowed, got %d", types.MaxSeeds, len(tokens))}
	}

	var known map[string]bool
	var validGenres []string
	seen := mapset.NewThreadUnsafeSet[string]()

	for _, token := range tokens {
		entry := b.logger.WithFields(logrus.Fields{
			"component": "seed_builder",
			"operation": "mixed_seed",
			"token":     token,
		})

		if strings.HasPrefix(token, "spotify:") {
			if !seen.Add(token) {
				entry.Debug("Skipping repeated seed")
				continue
			}
			kind, _, err := types.ParseURI(token)
			if err != nil || (kind != types.KindArtist && kind != types.KindTrack) {
				entry.Warn("Skipping unrecognized URI, only artist and track URIs are seeds")
				continue
			}
			item, err := b.spotify.GetEntity(ctx, token, kind)
			if err != nil {
				return err
			}
			if _, err := req.AddSeed(seedFromItem(*item)); err != nil {
				return err
			}
			continue
		}

		if known == nil {
			var err error
			known, validGenres, err = b.knownGenres(ctx)
			if err != nil {
				return err
			}
		}

		genre := strings.ToLower(token)
		if !seen.Add(genre) {
			entry.Debug("Skipping repeated seed")
			continue
		}
		if !known[genre] {
			suggestions := search.Genres(b.suggester.Suggest(genre, validGenres))
			if len(suggestions) > 0 {
				entry.WithField("suggestions", suggestions).Warnf("Skipping unknown genre, did you mean %s?", strings.Join(suggestions, ", "))
			} else {
				entry.Warn("Skipping unknown genre")
			}
			continue
		}
		if _, err := req.AddSeed(types.Seed{Name: genre, Type: types.SeedKindGenre}); err != nil {
			return err
		}
	}

	if req.Seeds.Len() == 0 {
		return fmt.Errorf("%w: none of %q is a genre, artist URI or track URI", types.ErrNoSeeds, input)
	}
	return nil
}

// knownGenres returns the union of the user's top-artist genres and the
// platform genre seeds, plus the platform list for suggestions.
func (b *Builder) knownGenres(ctx context.Context) (map[string]bool, []string, error) {
	artists, err := b.spotify.GetTopItems(ctx, types.KindArtist, TopPoolSize)
	if err != nil {
		return nil, nil, err
	}
	valid, err := b.spotify.GetGenreSeeds(ctx)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[string]bool, len(valid))
	for _, g := range valid {
		known[strings.ToLower(g)] = true
	}
	for _, a := range artists {
		for _, g := range a.Genres {
			known[strings.ToLower(g)] = true
		}
	}
	return known, valid, nil
}

// RankGenres counts the genres of artists that are valid seeds and returns
// them most frequent first. Ties keep first-encountered order.
func RankGenres(artists []types.Item, valid []string) []string {
	allowed := lo.SliceToMap(valid, func(g string) (string, bool) { return g, true })

	counts := make(map[string]int)
	var order []string
	for _, a := range artists {
		for _, g := range a.Genres {
			if !allowed[g] {
				continue
			}
			if counts[g] == 0 {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	slices.SortStableFunc(order, func(a, b string) int { return counts[b] - counts[a] })
	return order
}

func seedFromItem(item types.Item) types.Seed {
	s := types.Seed{Name: item.Name, ID: item.ID, Type: string(item.Kind)}
	if item.Kind == types.KindTrack {
		s.Artists = item.Artists
	}
	return s
}

func seedTypeForKind(kind types.ItemKind) types.SeedType {
	if kind == types.KindArtist {
		return types.SeedArtists
	}
	return types.SeedTracks
}
