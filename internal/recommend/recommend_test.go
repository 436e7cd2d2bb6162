package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/spotseed/internal/blacklist"
	"github.com/toozej/spotseed/internal/mocks"
	"github.com/toozej/spotseed/internal/types"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newRequest(t *testing.T, limit int) *types.RecommendationRequest {
	t.Helper()
	req, err := types.NewRecommendationRequest(limit)
	require.NoError(t, err)
	req.Params["seed_genres"] = "metal"
	return req
}

func candidate(id string, artists ...string) types.CandidateTrack {
	c := types.CandidateTrack{URI: "spotify:track:" + id, Name: id}
	for _, a := range artists {
		c.ArtistURIs = append(c.ArtistURIs, "spotify:artist:"+a)
	}
	return c
}

func testFilter(t *testing.T) *blacklist.Filter {
	t.Helper()
	bl := types.NewBlacklist()
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:track:bad1"}))
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:track:bad2"}))
	require.NoError(t, bl.Add(types.BlacklistEntry{URI: "spotify:artist:banned"}))
	return blacklist.NewFilter(bl)
}

// scripted returns one batch per call and records each request's limit.
func scripted(batches [][]types.CandidateTrack, limits *[]string) *mocks.SpotifyService {
	call := 0
	return &mocks.SpotifyService{
		GetRecommendationsFunc: func(_ context.Context, params map[string]string) ([]types.CandidateTrack, error) {
			*limits = append(*limits, params["limit"])
			if call >= len(batches) {
				return nil, errors.New("unexpected extra request")
			}
			b := batches[call]
			call++
			return b, nil
		},
	}
}

func TestCollect_SingleBatchFiltered(t *testing.T) {
	var limits []string
	sp := scripted([][]types.CandidateTrack{{
		candidate("bad1", "ok"),
		candidate("good1", "ok"),
		candidate("t3", "banned"),
		candidate("good2", "ok"),
		candidate("bad2", "ok"),
		candidate("good3", "other", "ok"),
	}}, &limits)

	req := newRequest(t, 3)
	res, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), req, testFilter(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"spotify:track:good1", "spotify:track:good2", "spotify:track:good3"}, res.URIs)
	assert.Equal(t, 1, res.Requests)
	assert.Equal(t, 3, res.Rejected)
	assert.Equal(t, []string{"3"}, limits)
	assert.Equal(t, 3, req.LimitOriginal)
}

func TestCollect_TopUpRequestsDeficit(t *testing.T) {
	var limits []string
	sp := scripted([][]types.CandidateTrack{
		{
			candidate("good1", "ok"),
			candidate("bad1", "ok"),
			candidate("good2", "ok"),
			candidate("t4", "banned"),
			candidate("bad2", "ok"),
		},
		{
			candidate("good3", "ok"),
			candidate("good4", "ok"),
			candidate("good5", "ok"),
		},
	}, &limits)

	req := newRequest(t, 5)
	res, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), req, testFilter(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "3"}, limits)
	assert.Len(t, res.URIs, 5)
	assert.Equal(t, 5, req.LimitOriginal)
	assert.Equal(t, 5, req.Limit)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "duplicates")
}

func TestCollect_AllBlacklistedTerminates(t *testing.T) {
	sp := &mocks.SpotifyService{
		GetRecommendationsFunc: func(context.Context, map[string]string) ([]types.CandidateTrack, error) {
			return []types.CandidateTrack{candidate("bad1", "ok"), candidate("x", "banned")}, nil
		},
	}

	_, err := NewRecommender(sp, 3, quietLogger()).Collect(context.Background(), newRequest(t, 4), testFilter(t))
	assert.ErrorIs(t, err, types.ErrNoTracks)
	assert.Equal(t, 3, sp.CallCount("GetRecommendations"))
}

func TestCollect_EmptyFirstBatch(t *testing.T) {
	var limits []string
	sp := scripted([][]types.CandidateTrack{{}}, &limits)

	_, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), newRequest(t, 4), nil)
	assert.ErrorIs(t, err, types.ErrNoTracks)
	assert.EqualError(t, types.ErrNoTracks, "no tracks available with current options")
}

func TestCollect_PartialResults(t *testing.T) {
	tests := []struct {
		name    string
		batches [][]types.CandidateTrack
		want    int
	}{
		{
			name: "pool exhausted",
			batches: [][]types.CandidateTrack{
				{candidate("good1", "ok")},
				{},
			},
			want: 1,
		},
		{
			name: "repeated fully blacklisted batches",
			batches: [][]types.CandidateTrack{
				{candidate("good1", "ok"), candidate("good2", "ok")},
				{candidate("bad1", "ok")},
				{candidate("bad2", "ok")},
				{candidate("t9", "banned")},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var limits []string
			sp := scripted(tt.batches, &limits)

			res, err := NewRecommender(sp, 3, quietLogger()).Collect(context.Background(), newRequest(t, 4), testFilter(t))
			require.NoError(t, err)
			assert.Len(t, res.URIs, tt.want)
			assert.True(t, res.Partial(4))
			assert.Len(t, limits, len(tt.batches))
		})
	}
}

func TestCollect_KeepsDuplicatesAcrossBatches(t *testing.T) {
	var limits []string
	sp := scripted([][]types.CandidateTrack{
		{candidate("good1", "ok")},
		{candidate("good1", "ok")},
	}, &limits)

	res, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), newRequest(t, 2), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:good1", "spotify:track:good1"}, res.URIs)
}

func TestCollect_OversizedBatchTrimmed(t *testing.T) {
	var batch []types.CandidateTrack
	for i := range 5 {
		batch = append(batch, candidate(fmt.Sprintf("t%d", i), "ok"))
	}
	var limits []string
	sp := scripted([][]types.CandidateTrack{batch}, &limits)

	res, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), newRequest(t, 2), nil)
	require.NoError(t, err)
	assert.Len(t, res.URIs, 2)
}

func TestCollect_APIErrorIsFatal(t *testing.T) {
	apiErr := &types.APIError{Domain: "get recommendations", Expected: 200, Actual: 500, Reason: "boom"}
	sp := &mocks.SpotifyService{
		GetRecommendationsFunc: func(context.Context, map[string]string) ([]types.CandidateTrack, error) {
			return nil, apiErr
		},
	}

	_, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), newRequest(t, 2), nil)
	assert.ErrorIs(t, err, apiErr)
}

func TestCollect_DoesNotMutateParams(t *testing.T) {
	var limits []string
	sp := scripted([][]types.CandidateTrack{
		{candidate("good1", "ok")},
		{candidate("good2", "ok")},
	}, &limits)

	req := newRequest(t, 2)
	_, err := NewRecommender(sp, 0, quietLogger()).Collect(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, "2", req.Params["limit"])
	assert.Equal(t, []string{"2", "1"}, limits)
}
