package seed

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/types"
)

// ValueKind is the numeric type an audio attribute accepts.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
)

func (k ValueKind) String() string {
	if k == KindInt {
		return "integer"
	}
	return "number"
}

// Attribute describes a tunable audio feature. Values outside [Min, Max]
// are rejected; values outside [RecMin, RecMax] only warn.
type Attribute struct {
	Name   string
	Kind   ValueKind
	Min    float64
	Max    float64
	RecMin float64
	RecMax float64
}

// Attributes is the table of tunable audio features.
var Attributes = map[string]Attribute{
	"acousticness":     {Name: "acousticness", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 1},
	"danceability":     {Name: "danceability", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0.1, RecMax: 0.9},
	"duration_ms":      {Name: "duration_ms", Kind: KindInt, Min: 0, Max: 3600000, RecMin: 120000, RecMax: 600000},
	"energy":           {Name: "energy", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 1},
	"instrumentalness": {Name: "instrumentalness", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 1},
	"key":              {Name: "key", Kind: KindInt, Min: 0, Max: 11, RecMin: 0, RecMax: 11},
	"liveness":         {Name: "liveness", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 0.4},
	"loudness":         {Name: "loudness", Kind: KindFloat, Min: -60, Max: 0, RecMin: -20, RecMax: 0},
	"mode":             {Name: "mode", Kind: KindInt, Min: 0, Max: 1, RecMin: 0, RecMax: 1},
	"popularity":       {Name: "popularity", Kind: KindInt, Min: 0, Max: 100, RecMin: 0, RecMax: 100},
	"speechiness":      {Name: "speechiness", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 0.3},
	"tempo":            {Name: "tempo", Kind: KindInt, Min: 0, Max: 220, RecMin: 60, RecMax: 210},
	"time_signature":   {Name: "time_signature", Kind: KindInt, Min: 0, Max: 11, RecMin: 3, RecMax: 7},
	"valence":          {Name: "valence", Kind: KindFloat, Min: 0, Max: 1, RecMin: 0, RecMax: 1},
}

var tunePrefixes = []string{"min", "max", "target"}

// Tune is one validated tuning bound.
type Tune struct {
	Key     string
	Value   string
	Warning string
}

// ParseTune validates a "<prefix>_<attribute>=<value>" token.
func ParseTune(token string) (Tune, error) {
	key, raw, ok := strings.Cut(strings.TrimSpace(token), "=")
	if !ok || key == "" || raw == "" {
		return Tune{}, &types.ValidationError{Field: "tune", Value: token, Reason: "expected <prefix>_<attribute>=<value>"}
	}

	prefix, name, ok := strings.Cut(key, "_")
	if !ok || !isTunePrefix(prefix) {
		return Tune{}, &types.ValidationError{
			Field:  "tune",
			Value:  token,
			Reason: fmt.Sprintf("prefix must be one of %s", strings.Join(tunePrefixes, ", ")),
		}
	}

	attr, ok := Attributes[name]
	if !ok {
		return Tune{}, &types.ValidationError{
			Field:  "tune",
			Value:  token,
			Reason: fmt.Sprintf("unknown attribute %q, expected one of %s", name, strings.Join(AttributeNames(), ", ")),
		}
	}

	var value float64
	var normalized string
	switch attr.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Tune{}, &types.ValidationError{Field: "tune", Value: token, Reason: fmt.Sprintf("%s must be an %s", name, attr.Kind)}
		}
		value = float64(n)
		normalized = strconv.Itoa(n)
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Tune{}, &types.ValidationError{Field: "tune", Value: token, Reason: fmt.Sprintf("%s must be a %s", name, attr.Kind)}
		}
		value = f
		normalized = strconv.FormatFloat(f, 'f', -1, 64)
	}

	if value < attr.Min || value > attr.Max {
		return Tune{}, &types.ValidationError{
			Field:  "tune",
			Value:  token,
			Reason: fmt.Sprintf("%s must be between %s and %s", name, formatBound(attr.Min), formatBound(attr.Max)),
		}
	}

	tune := Tune{Key: key, Value: normalized}
	if value < attr.RecMin || value > attr.RecMax {
		tune.Warning = fmt.Sprintf("%s=%s is outside the recommended range %s-%s, recommendations may be sparse",
			key, normalized, formatBound(attr.RecMin), formatBound(attr.RecMax))
	}
	return tune, nil
}

// ApplyTunes validates every token and writes the bounds into req.Params.
// Nothing is written unless all tokens are valid.
func ApplyTunes(req *types.RecommendationRequest, tokens []string, logger *logrus.Logger) ([]string, error) {
	tunes := make([]Tune, 0, len(tokens))
	for _, token := range tokens {
		tune, err := ParseTune(token)
		if err != nil {
			return nil, err
		}
		tunes = append(tunes, tune)
	}

	var warnings []string
	for _, tune := range tunes {
		req.Params[tune.Key] = tune.Value
		if tune.Warning != "" {
			warnings = append(warnings, tune.Warning)
			logger.WithFields(logrus.Fields{
				"component": "seed_builder",
				"operation": "tune",
				"key":       tune.Key,
				"value":     tune.Value,
			}).Warn(tune.Warning)
		}
	}
	return warnings, nil
}

// AttributeNames lists the tunable attributes alphabetically.
func AttributeNames() []string {
	names := make([]string, 0, len(Attributes))
	for name := range Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isTunePrefix(p string) bool {
	for _, prefix := range tunePrefixes {
		if p == prefix {
			return true
		}
	}
	return false
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
