// Package search suggests known genres for mistyped seed tokens.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

// DefaultMaxSuggestions caps how many genres Suggest returns.
const DefaultMaxSuggestions = 3

// minConfidence drops suggestions too weak to show.
const minConfidence = 0.3

// GenreSuggester ranks known genres against an unrecognized token
type GenreSuggester struct {
	logger *logrus.Logger
	max    int
}

// Suggestion is a candidate genre with a confidence score between 0.0 and 1.0
type Suggestion struct {
	Genre      string  `json:"genre"`
	Confidence float64 `json:"confidence"`
}

// NewGenreSuggester creates a new genre suggester
func NewGenreSuggester(logger *logrus.Logger) *GenreSuggester {
	return &GenreSuggester{logger: logger, max: DefaultMaxSuggestions}
}

// Suggest returns the best matching genres for token, most confident first.
func (g *GenreSuggester) Suggest(token string, genres []string) []Suggestion {
	query := normalize(token)
	if query == "" || len(genres) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(genres))
	var out []Suggestion
	for _, genre := range genres {
		if seen[genre] {
			continue
		}
		seen[genre] = true
		if c := matchConfidence(query, genre); c >= minConfidence {
			out = append(out, Suggestion{Genre: genre, Confidence: c})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Genre < out[j].Genre
	})
	if len(out) > g.max {
		out = out[:g.max]
	}

	g.logger.WithFields(logrus.Fields{
		"component":   "genre_suggester",
		"operation":   "suggest",
		"token":       token,
		"suggestions": len(out),
	}).Trace("Ranked genre suggestions")

	return out
}

// Genres returns only the genre names of suggestions.
func Genres(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Genre
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// matchConfidence scores how well item matches query.
func matchConfidence(query, item string) float64 {
	item = normalize(item)

	if query == item {
		return 1.0
	}

	if strings.Contains(item, query) {
		ratio := float64(len(query)) / float64(len(item))
		return 0.8 + (ratio * 0.2)
	}

	if strings.Contains(query, item) {
		ratio := float64(len(item)) / float64(len(query))
		return 0.7 + (ratio * 0.2)
	}

	// Score fuzzy subsequence matches into 0.1-0.7
	matches := fuzzy.Find(query, []string{item})
	if len(matches) > 0 {
		maxExpectedScore := float64(len(query) * 2)
		confidence := (float64(matches[0].Score) / maxExpectedScore) * 0.7
		if confidence > 0.7 {
			confidence = 0.7
		}
		if confidence < 0.1 {
			confidence = 0.1
		}
		return confidence
	}

	// Reverse subsequence catches a token with extra letters, e.g. "mettal"
	matches = fuzzy.Find(item, []string{query})
	if len(matches) > 0 {
		ratio := float64(len(item)) / float64(len(query))
		return 0.5 * ratio
	}

	return 0
}
