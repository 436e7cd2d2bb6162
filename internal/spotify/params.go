package spotify

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/toozej/spotseed/internal/types"
)

type floatSetter func(*spotify.TrackAttributes, float64) *spotify.TrackAttributes

type intSetter func(*spotify.TrackAttributes, int) *spotify.TrackAttributes

func fromInt(set intSetter) floatSetter {
	return func(ta *spotify.TrackAttributes, v float64) *spotify.TrackAttributes {
		return set(ta, int(v))
	}
}

// attributeSetters maps a tune parameter name to its track attribute.
var attributeSetters = map[string]floatSetter{
	"min_acousticness":    (*spotify.TrackAttributes).MinAcousticness,
	"max_acousticness":    (*spotify.TrackAttributes).MaxAcousticness,
	"target_acousticness": (*spotify.TrackAttributes).TargetAcousticness,

	"min_danceability":    (*spotify.TrackAttributes).MinDanceability,
	"max_danceability":    (*spotify.TrackAttributes).MaxDanceability,
	"target_danceability": (*spotify.TrackAttributes).TargetDanceability,

	"min_duration_ms":    fromInt((*spotify.TrackAttributes).MinDuration),
	"max_duration_ms":    fromInt((*spotify.TrackAttributes).MaxDuration),
	"target_duration_ms": fromInt((*spotify.TrackAttributes).TargetDuration),

	"min_energy":    (*spotify.TrackAttributes).MinEnergy,
	"max_energy":    (*spotify.TrackAttributes).MaxEnergy,
	"target_energy": (*spotify.TrackAttributes).TargetEnergy,

	"min_instrumentalness":    (*spotify.TrackAttributes).MinInstrumentalness,
	"max_instrumentalness":    (*spotify.TrackAttributes).MaxInstrumentalness,
	"target_instrumentalness": (*spotify.TrackAttributes).TargetInstrumentalness,

	"min_key":    fromInt((*spotify.TrackAttributes).MinKey),
	"max_key":    fromInt((*spotify.TrackAttributes).MaxKey),
	"target_key": fromInt((*spotify.TrackAttributes).TargetKey),

	"min_liveness":    (*spotify.TrackAttributes).MinLiveness,
	"max_liveness":    (*spotify.TrackAttributes).MaxLiveness,
	"target_liveness": (*spotify.TrackAttributes).TargetLiveness,

	"min_loudness":    (*spotify.TrackAttributes).MinLoudness,
	"max_loudness":    (*spotify.TrackAttributes).MaxLoudness,
	"target_loudness": (*spotify.TrackAttributes).TargetLoudness,

	"min_mode":    fromInt((*spotify.TrackAttributes).MinMode),
	"max_mode":    fromInt((*spotify.TrackAttributes).MaxMode),
	"target_mode": fromInt((*spotify.TrackAttributes).TargetMode),

	"min_popularity":    fromInt((*spotify.TrackAttributes).MinPopularity),
	"max_popularity":    fromInt((*spotify.TrackAttributes).MaxPopularity),
	"target_popularity": fromInt((*spotify.TrackAttributes).TargetPopularity),

	"min_speechiness":    (*spotify.TrackAttributes).MinSpeechiness,
	"max_speechiness":    (*spotify.TrackAttributes).MaxSpeechiness,
	"target_speechiness": (*spotify.TrackAttributes).TargetSpeechiness,

	"min_tempo":    (*spotify.TrackAttributes).MinTempo,
	"max_tempo":    (*spotify.TrackAttributes).MaxTempo,
	"target_tempo": (*spotify.TrackAttributes).TargetTempo,

	"min_time_signature":    fromInt((*spotify.TrackAttributes).MinTimeSignature),
	"max_time_signature":    fromInt((*spotify.TrackAttributes).MaxTimeSignature),
	"target_time_signature": fromInt((*spotify.TrackAttributes).TargetTimeSignature),

	"min_valence":    (*spotify.TrackAttributes).MinValence,
	"max_valence":    (*spotify.TrackAttributes).MaxValence,
	"target_valence": (*spotify.TrackAttributes).TargetValence,
}

// recommendationArgs is a request parameter map in client-library form.
type recommendationArgs struct {
	seeds spotify.Seeds
	attrs *spotify.TrackAttributes
	limit int
}

// parseRecommendationParams converts the flat parameter map built by the
// seed and tune stages. Unknown keys are rejected.
func parseRecommendationParams(params map[string]string) (recommendationArgs, error) {
	args := recommendationArgs{attrs: spotify.NewTrackAttributes()}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := params[key]
		switch key {
		case "seed_genres":
			args.seeds.Genres = splitList(value)
		case "seed_artists":
			args.seeds.Artists = toIDs(splitList(value))
		case "seed_tracks":
			args.seeds.Tracks = toIDs(splitList(value))
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > types.MaxLimit {
				return args, &types.ValidationError{Field: key, Value: value, Reason: "must be an integer between 1 and 100"}
			}
			args.limit = n
		default:
			set, ok := attributeSetters[key]
			if !ok {
				return args, &types.ValidationError{Field: key, Value: value, Reason: "unknown recommendation parameter"}
			}
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return args, &types.ValidationError{Field: key, Value: value, Reason: "must be numeric"}
			}
			args.attrs = set(args.attrs, f)
		}
	}

	seedCount := len(args.seeds.Genres) + len(args.seeds.Artists) + len(args.seeds.Tracks)
	if seedCount == 0 {
		return args, types.ErrNoSeeds
	}
	if seedCount > types.MaxSeeds {
		return args, types.ErrTooManySeeds
	}
	if args.limit == 0 {
		args.limit = 20
	}
	return args, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toIDs(ids []string) []spotify.ID {
	out := make([]spotify.ID, len(ids))
	for i, id := range ids {
		out[i] = spotify.ID(id)
	}
	return out
}
