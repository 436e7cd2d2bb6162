package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/toozej/spotseed/internal/session"
	"github.com/toozej/spotseed/internal/spotify"
	"github.com/toozej/spotseed/internal/store"
	"github.com/toozej/spotseed/internal/types"
)

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	okColor    = color.New(color.FgGreen)
)

// services bundles the collaborators one command needs.
type services struct {
	spotify *spotify.Service
	store   *store.Store
	session *session.Session
}

func (s *services) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}
}

// initializeServices opens the store and, when withSpotify is set, an
// authenticated Spotify gateway, running the OAuth flow if no valid token exists.
func initializeServices(ctx context.Context, withSpotify bool) (*services, error) {
	logger := log.StandardLogger()

	path, err := conf.Store.GetStorePath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	svc := &services{store: st}

	var gateway types.SpotifyService
	if withSpotify {
		sp, err := spotify.NewService(ctx, conf.Spotify, logger)
		if err != nil {
			svc.Close()
			return nil, err
		}
		if !sp.IsAuthenticated() {
			log.Info("Spotify authentication required. Starting authentication flow...")
			if err := authenticateSpotify(ctx, sp, conf.Server.Address()); err != nil {
				svc.Close()
				return nil, err
			}
		}
		svc.spotify = sp
		gateway = sp
	}

	svc.session = session.New(gateway, st, session.NewTerminalPrompter(os.Stdin, os.Stdout), conf.Store, logger)
	return svc, nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		warnColor.Fprintf(w, "warning: %s\n", msg)
	}
}

// printError renders a fatal error; validation problems name the offending input.
func printError(w io.Writer, err error) {
	switch {
	case types.IsValidation(err):
		errorColor.Fprint(w, "usage error: ")
	case errors.Is(err, context.Canceled):
		errorColor.Fprintln(w, "cancelled")
		return
	default:
		errorColor.Fprint(w, "error: ")
	}
	fmt.Fprintln(w, err.Error())
}
