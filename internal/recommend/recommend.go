// Package recommend collects recommendations until enough survive the blacklist.
package recommend

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/blacklist"
	"github.com/toozej/spotseed/internal/types"
)

// DefaultMaxEmptyBatches is how many consecutive fully rejected batches end the loop.
const DefaultMaxEmptyBatches = 3

// Result is the outcome of one top-up run.
type Result struct {
	URIs     []string
	Requests int
	Rejected int
	Warnings []string
}

// Partial reports whether fewer tracks than requested were collected.
func (r *Result) Partial(want int) bool {
	return len(r.URIs) < want
}

// Recommender runs the filter and top-up loop
type Recommender struct {
	spotify         types.SpotifyService
	logger          *logrus.Logger
	maxEmptyBatches int
}

// NewRecommender creates a new recommender; maxEmptyBatches below 1 uses the default.
func NewRecommender(spotify types.SpotifyService, maxEmptyBatches int, logger *logrus.Logger) *Recommender {
	if maxEmptyBatches < 1 {
		maxEmptyBatches = DefaultMaxEmptyBatches
	}
	return &Recommender{
		spotify:         spotify,
		logger:          logger,
		maxEmptyBatches: maxEmptyBatches,
	}
}

// Collect requests recommendations for req until req.LimitOriginal tracks
// pass filter, requesting only the deficit after the first call.
// req.LimitOriginal is never modified; req.Limit tracks the current request size.
func (r *Recommender) Collect(ctx context.Context, req *types.RecommendationRequest, filter *blacklist.Filter) (*Result, error) {
	if filter == nil {
		filter = blacklist.NewFilter(nil)
	}

	want := req.LimitOriginal
	result := &Result{URIs: make([]string, 0, want)}
	emptyBatches := 0

	entry := r.logger.WithFields(logrus.Fields{
		"component": "recommender",
		"operation": "collect",
		"target":    want,
	})

	for len(result.URIs) < want {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req.Limit = want - len(result.URIs)
		params := maps.Clone(req.Params)
		params["limit"] = strconv.Itoa(req.Limit)

		candidates, err := r.spotify.GetRecommendations(ctx, params)
		if err != nil {
			return nil, err
		}
		result.Requests++

		if len(candidates) == 0 {
			if len(result.URIs) == 0 {
				return nil, types.ErrNoTracks
			}
			result.warn(entry, fmt.Sprintf("recommendations ran out, returning %d of %d tracks", len(result.URIs), want))
			break
		}

		accepted := 0
		for _, c := range candidates {
			if rejected, reason := filter.Rejects(c); rejected {
				result.Rejected++
				entry.WithFields(logrus.Fields{
					"uri":    c.URI,
					"track":  c.Name,
					"reason": reason,
				}).Debug("Rejected blacklisted recommendation")
				continue
			}
			if len(result.URIs) < want {
				result.URIs = append(result.URIs, c.URI)
				accepted++
			}
		}

		entry.WithFields(logrus.Fields{
			"request":    result.Requests,
			"limit":      req.Limit,
			"candidates": len(candidates),
			"accepted":   accepted,
			"total":      len(result.URIs),
		}).Debug("Filtered recommendation batch")

		if result.Requests == 1 && len(result.URIs) < want && len(result.URIs)*2 <= want {
			result.warn(entry, fmt.Sprintf("only %d of %d recommendations passed the blacklist, top-up requests may return duplicates", len(result.URIs), want))
		}

		if accepted == 0 {
			emptyBatches++
			if emptyBatches >= r.maxEmptyBatches {
				if len(result.URIs) == 0 {
					return nil, fmt.Errorf("%w: every recommendation in %d consecutive requests was blacklisted", types.ErrNoTracks, emptyBatches)
				}
				result.warn(entry, fmt.Sprintf("%d consecutive requests were fully blacklisted, returning %d of %d tracks", emptyBatches, len(result.URIs), want))
				break
			}
			continue
		}
		emptyBatches = 0
	}

	req.Limit = want
	entry.WithFields(logrus.Fields{
		"track_count": len(result.URIs),
		"requests":    result.Requests,
		"rejected":    result.Rejected,
	}).Info("Collected recommendations")
	return result, nil
}

func (r *Result) warn(entry *logrus.Entry, msg string) {
	r.Warnings = append(r.Warnings, msg)
	entry.Warn(msg)
}
