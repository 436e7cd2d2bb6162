package search

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestGenreSuggester_Suggest(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	g := NewGenreSuggester(logger)

	genres := []string{"metal", "metalcore", "death-metal", "pop", "synth-pop", "jazz"}

	tests := []struct {
		name     string
		token    string
		want     string
		wantNone bool
	}{
		{name: "exact match", token: "metal", want: "metal"},
		{name: "case-insensitive", token: "JAZZ", want: "jazz"},
		{name: "missing letter", token: "metl", want: "metal"},
		{name: "extra letter", token: "jaazz", want: "jazz"},
		{name: "substring", token: "synth", want: "synth-pop"},
		{name: "nothing close", token: "qqqqq", wantNone: true},
		{name: "empty token", token: "  ", wantNone: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Suggest(tt.token, genres)
			if tt.wantNone {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, Genres(got), tt.want     )
			assert.LessOrEqual(t, len(got), DefaultMaxSuggestions)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
			}
		})
	}
}

func TestGenreSuggester_ExactFirst(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	got := NewGenreSuggester(logger).Suggest("metal", []string{"death-metal", "metalcore", "metal"})
	if assert.NotEmpty(t, got) {
		assert.Equal(t, "metal", got[0].Genre)
		assert.Equal(t, 1.0, got[0].Confidence)
	}
}

func TestMatchConfidence(t *testing.T) {
	assert.Equal(t, 1.0, matchConfidence("metal", "Metal"))
	assert.InDelta(t, 0.8+0.2*5.0/9.0, matchConfidence("metal", "metalcore"), 1e-9)
	assert.Equal(t, 0.0, matchConfidence("xyz", "metal"))
}

func TestGenres(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Genres([]Suggestion{{Genre: "a"}, {Genre: "b"}}))
}
