package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/toozej/spotseed/internal/seed"
	"github.com/toozej/spotseed/internal/types"
)

// printer renders one read-only view of the account.
type printer func(ctx context.Context, sp types.SpotifyService, w io.Writer, limit int) error

var printers = map[string]struct {
	short string
	run   printer
}{
	"top-artists":  {"Your top artists", printItems(types.KindArtist)},
	"top-tracks":   {"Your top tracks", printItems(types.KindTrack)},
	"top-genres":   {"Genres of your top artists, ranked by frequency", printTopGenres},
	"saved-tracks": {"Your most recently saved tracks", printSavedTracks},
	"genre-seeds":  {"Genres accepted as recommendation seeds", printGenreSeeds},
	"devices":      {"Devices currently available for playback", printDevices},
	"attributes":   {"Attributes accepted by generate --tune", printAttributes},
}

func newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print information from your Spotify account",
	}
	cmd.PersistentFlags().IntP("limit", "l", 20, "Number of rows for the top and saved lists")

	for _, name := range []string{"top-artists", "top-tracks", "top-genres", "saved-tracks", "genre-seeds", "devices", "attributes"} {
		p := printers[name]
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: p.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				limit, _ := cmd.Flags().GetInt("limit")
				if limit < 1 || limit > seed.TopPoolSize {
					return &types.ValidationError{Field: "limit", Value: strconv.Itoa(limit), Reason: fmt.Sprintf("must be between 1 and %d", seed.TopPoolSize)}
				}

				var sp types.SpotifyService
				if name != "attributes" {
					svc, err := initializeServices(cmd.Context(), true)
					if err != nil {
						return err
					}
					defer svc.Close()
					sp = svc.spotify
				}
				return p.run(cmd.Context(), sp, cmd.OutOrStdout(), limit)
			},
		})
	}
	return cmd
}

func printItems(kind types.ItemKind) printer {
	return func(ctx context.Context, sp types.SpotifyService, w io.Writer, limit int) error {
		items, err := sp.GetTopItems(ctx, kind, limit)
		if err != nil {
			return err
		}
		renderTable(w, []string{"#", "Name", "Details", "URI"}, itemRows(items))
		return nil
	}
}

func printSavedTracks(ctx context.Context, sp types.SpotifyService, w io.Writer, limit int) error {
	items, err := sp.GetSavedTracks(ctx, limit)
	if err != nil {
		return err
	}
	renderTable(w, []string{"#", "Name", "Details", "URI"}, itemRows(items))
	return nil
}

func itemRows(items []types.Item) [][]string {
	return lo.Map(items, func(item types.Item, i int) []string {
		details := strings.Join(item.Genres, ", ")
		if item.Kind == types.KindTrack {
			details = strings.Join(item.Artists, ", ")
		}
		return []string{strconv.Itoa(i + 1), item.Name, details, item.URI}
	})
}

func printTopGenres(ctx context.Context, sp types.SpotifyService, w io.Writer, limit int) error {
	artists, err := sp.GetTopItems(ctx, types.KindArtist, seed.TopPoolSize)
	if err != nil {
		return err
	}
	valid, err := sp.GetGenreSeeds(ctx)
	if err != nil {
		return err
	}
	genres := lo.Slice(seed.RankGenres(artists, valid), 0, limit)
	renderTable(w, []string{"#", "Genre"}, lo.Map(genres, func(g string, i int) []string {
		return []string{strconv.Itoa(i + 1), g}
	}))
	return nil
}

func printGenreSeeds(ctx context.Context, sp types.SpotifyService, w io.Writer, _ int) error {
	genres, err := sp.GetGenreSeeds(ctx)
	if err != nil {
		return err
	}
	renderTable(w, []string{"Genre"}, lo.Map(genres, func(g string, _ int) []string { return []string{g} }))
	return nil
}

func printDevices(ctx context.Context, sp types.SpotifyService, w io.Writer, _ int) error {
	devices, err := sp.GetDevices(ctx)
	if err != nil {
		return err
	}
	renderTable(w, []string{"Name", "Type", "Active", "ID"}, lo.Map(devices, func(d types.Device, _ int) []string {
		return []string{d.Name, d.Type, strconv.FormatBool(d.Active), d.ID}
	}))
	return nil
}

func printAttributes(_ context.Context, _ types.SpotifyService, w io.Writer, _ int) error {
	rows := lo.Map(seed.AttributeNames(), func(name string, _ int) []string {
		a := seed.Attributes[name]
		return []string{
			name,
			a.Kind.String(),
			fmt.Sprintf("%g - %g", a.Min, a.Max),
			fmt.Sprintf("%g - %g", a.RecMin, a.RecMax),
		}
	})
	renderTable(w, []string{"Attribute", "Type", "Range", "Recommended"}, rows)
	return nil
}

func newLikeCmd(like bool) *cobra.Command {
	use, short, done := "like", "Save the currently playing track to your library", "Liked"
	if !like {
		use, short, done = "unlike", "Remove the currently playing track from your library", "Unliked"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			item, err := svc.session.ToggleLike(cmd.Context(), like)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, types.Seed{Name: item.Name, Artists: item.Artists})
			return nil
		},
	}
}
