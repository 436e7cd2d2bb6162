package seed

import (
	"strings"

	"github.com/samber/lo"

	"github.com/toozej/spotseed/internal/types"
)

var seedParams = map[string]string{
	types.SeedKindGenre:  "seed_genres",
	types.SeedKindArtist: "seed_artists",
	types.SeedKindTrack:  "seed_tracks",
}

// CreateSeed writes the seed parameters for req's seeds into req.Params.
// Genre seeds contribute names; artist and track seeds contribute IDs.
// Custom requests are partitioned by each seed's own type.
func CreateSeed(req *types.RecommendationRequest) error {
	for _, param := range seedParams {
		delete(req.Params, param)
	}

	seeds := req.Seeds.Entries()
	if len(seeds) == 0 {
		return types.ErrNoSeeds
	}
	if len(seeds) > types.MaxSeeds {
		return types.ErrTooManySeeds
	}

	if req.SeedType != types.SeedCustom {
		for _, s := range seeds {
			if s.Type != req.SeedType.Tag() {
				return types.ErrSeedTypeMismatch
			}
		}
	}

	for kind, param := range seedParams {
		values := lo.FilterMap(seeds, func(s types.Seed, _ int) (string, bool) {
			if s.Type != kind {
				return "", false
			}
			if kind == types.SeedKindGenre {
				return s.Name, true
			}
			return s.ID, true
		})
		if len(values) > 0 {
			req.Params[param] = strings.Join(values, ",")
		}
	}
	return nil
}
