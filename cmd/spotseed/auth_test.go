package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	code, state string
	err         error
}

func (f *fakeAuthenticator) GetAuthURL() string    { return "https://accounts.spotify.com/authorize?mock=true" }
func (f *fakeAuthenticator) IsAuthenticated() bool { return f.code != "" }
func (f *fakeAuthenticator) CompleteAuth(_ context.Context, code, state string) error {
	if f.err != nil {
		return f.err
	}
	f.code, f.state = code, state
	return nil
}

func TestHandleSpotifyCallback(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		authErr    error
		wantStatus int
		wantErr    bool
	}{
		{name: "success", query: "?code=abc&state=xyz", wantStatus: http.StatusOK},
		{name: "denied", query: "?error=access_denied", wantStatus: http.StatusBadRequest, wantErr: true},
		{name: "missing code", query: "?state=xyz", wantStatus: http.StatusBadRequest, wantErr: true},
		{name: "exchange fails", query: "?code=abc&state=bad", authErr: errors.New("state mismatch"), wantStatus: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuthenticator{err: tt.authErr}
			done := make(chan error, 1)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil)
			handleSpotifyCallback(rec, req, auth, done)

			assert.Equal(t, tt.wantStatus, rec.Code)
			err := <-done
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc", auth.code)
			assert.Equal(t, "xyz", auth.state)
			assert.Contains(t, rec.Body.String(), "Authentication successful")
		})
	}
}

func TestAuthenticateSpotify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := authenticateSpotify(ctx, &fakeAuthenticator{}, "127.0.0.1:0")
	assert.ErrorIs(t, err, context.Canceled)
}
