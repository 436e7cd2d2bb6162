package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/spotseed/internal/spotify"
	"github.com/toozej/spotseed/internal/types"
)

// authTimeout bounds how long the callback server waits for the browser.
const authTimeout = 5 * time.Minute

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize spotseed with your Spotify account",
		Long: `Start the OAuth authorization-code flow. A temporary server listens for the
callback on SERVER_HOST:SERVER_PORT and the token is cached for later runs.`,
		Args: cobra.NoArgs,
		RunE: runAuth,
	}
}

func runAuth(cmd *cobra.Command, args []string) error {
	sp, err := spotify.NewService(cmd.Context(), conf.Spotify, log.StandardLogger())
	if err != nil {
		return err
	}
	if sp.IsAuthenticated() {
		okColor.Fprintln(cmd.OutOrStdout(), "Already authenticated with Spotify")
		return nil
	}
	if err := authenticateSpotify(cmd.Context(), sp, conf.Server.Address()); err != nil {
		return err
	}
	okColor.Fprintln(cmd.OutOrStdout(), "Spotify authentication completed")
	return nil
}

// authenticateSpotify handles the OAuth authentication flow by starting a temporary server
func authenticateSpotify(ctx context.Context, auth types.Authenticator, serverAddr string) error {
	authURL := auth.GetAuthURL()

	log.WithField("auth_url", authURL).Info("Please visit this URL to authenticate with Spotify")
	fmt.Printf("\nSpotify authentication required\n")
	fmt.Printf("Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Printf("Waiting for authentication... (Press Ctrl+C to cancel)\n")

	authComplete := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		handleSpotifyCallback(w, r, auth, authComplete)
	})

	server := &http.Server{
		Addr:              serverAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("address", serverAddr).Info("Starting temporary server for OAuth callback")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			authComplete <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("Error shutting down authentication server")
		}
	}

	timer := time.NewTimer(authTimeout)
	defer timer.Stop()

	select {
	case err := <-authComplete:
		shutdown()
		if err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdown()
		return ctx.Err()
	case <-timer.C:
		shutdown()
		return fmt.Errorf("authentication timeout after %s", authTimeout)
	}
}

// handleSpotifyCallback handles the OAuth callback from Spotify
func handleSpotifyCallback(w http.ResponseWriter, r *http.Request, auth types.Authenticator, authComplete chan<- error) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	errorParam := r.URL.Query().Get("error")

	if errorParam != "" {
		log.WithField("error", errorParam).Error("Spotify authentication error")
		http.Error(w, "Authentication failed: "+errorParam, http.StatusBadRequest)
		authComplete <- fmt.Errorf("spotify authentication error: %s", errorParam)
		return
	}

	if code == "" {
		log.Error("No authorization code received")
		http.Error(w, "No authorization code received", http.StatusBadRequest)
		authComplete <- errors.New("no authorization code received")
		return
	}

	if err := auth.CompleteAuth(r.Context(), code, state); err != nil {
		log.WithError(err).Error("Failed to complete Spotify authentication")
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		authComplete <- fmt.Errorf("failed to complete authentication: %w", err)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)

	successHTML := `<!DOCTYPE html>
<html>
<head>
	<title>spotseed</title>
	<style>
		body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
		.success { color: #1db954; font-size: 24px; margin-bottom: 20px; }
		.message { color: #6c757d; font-size: 16px; }
	</style>
</head>
<body>
	<div class="success">Authentication successful</div>
	<div class="message">You can now close this window and return to the terminal.</div>
</body>
</html>
`

	if _, err := w.Write([]byte(successHTML)); err != nil {
		log.WithError(err).Warn("Failed to write success response")
	}

	log.Info("Spotify authentication completed successfully via callback")
	authComplete <- nil
}
