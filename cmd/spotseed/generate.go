package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toozej/spotseed/internal/playlist"
	"github.com/toozej/spotseed/internal/seed"
	"github.com/toozej/spotseed/internal/session"
	"github.com/toozej/spotseed/internal/types"
)

// basisFlags maps each boolean basis flag to its seed basis; --seed is handled separately.
var basisFlags = []struct {
	flag  string
	basis seed.Basis
	usage string
}{
	{"top-genres", seed.BasisTopGenres, "Seed with the genres of your top artists"},
	{"top-artists", seed.BasisTopArtists, "Seed with your top artists"},
	{"top-tracks", seed.BasisTopTracks, "Seed with your top tracks"},
	{"custom-genres", seed.BasisCustomGenres, "Choose seeds from your top genres"},
	{"custom-artists", seed.BasisCustomArtists, "Choose seeds from your top artists"},
	{"custom-tracks", seed.BasisCustomTracks, "Choose seeds from your top tracks"},
	{"saved-tracks", seed.BasisSavedTracks, "Seed with your most recently saved tracks"},
	{"custom-saved-tracks", seed.BasisCustomSavedTracks, "Choose seeds from your recently saved tracks"},
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate or refresh the playlist from recommendation seeds",
		Long: `Build recommendation seeds from one basis, filter the recommendations against
the blacklist and write them to the default playlist. The playlist is reused while
it exists and is public; --preserve always creates a new one.

Tune recommendations with repeated -t flags, e.g. -t min_tempo=120 -t max_energy=0.6.`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	exclusive := make([]string, 0, len(basisFlags)+2)
	for _, bf := range basisFlags {
		cmd.Flags().Bool(bf.flag, false, bf.usage)
		exclusive = append(exclusive, bf.flag)
	}
	cmd.Flags().String("seed", "", "Mixed seed: up to 5 space-separated genres or artist/track URIs")
	exclusive = append(exclusive, "seed", "preset")

	cmd.Flags().IntP("seeds", "n", types.MaxSeeds, "Number of seeds for the top and saved bases (1-5)")
	cmd.Flags().IntP("limit", "l", 0, "Number of tracks (1-100, default SPOTSEED_DEFAULT_LIMIT)")
	cmd.Flags().StringArrayP("tune", "t", nil, "Tunable attribute bound as <min|max|target>_<attribute>=<value>")
	cmd.Flags().Bool("preserve", false, "Create a new playlist instead of reusing the default one")
	cmd.Flags().String("name", "", "Playlist name (default: prefix plus timestamp)")
	cmd.Flags().BoolP("play", "p", false, "Start playback when the playlist is ready")
	cmd.Flags().String("device", "", "Saved device to play on")
	cmd.Flags().String("preset", "", "Run a saved preset instead of building seeds")
	cmd.Flags().String("save-preset", "", "Save this run's settings as a preset")

	cmd.MarkFlagsMutuallyExclusive(exclusive...)
	cmd.MarkFlagsOneRequired(exclusive...)

	return cmd
}

// generateOptions translates the command's flags into session options.
func generateOptions(cmd *cobra.Command) (session.Options, error) {
	var opts session.Options
	flags := cmd.Flags()

	for _, bf := range basisFlags {
		if on, _ := flags.GetBool(bf.flag); on {
			opts.Basis = bf.basis
		}
	}
	if flags.Changed("seed") {
		opts.Basis = seed.BasisMixed
		opts.Input, _ = flags.GetString("seed")
	}

	opts.SeedCount, _ = flags.GetInt("seeds")
	opts.Limit, _ = flags.GetInt("limit")
	opts.Tunes, _ = flags.GetStringArray("tune")
	opts.Preserve, _ = flags.GetBool("preserve")
	opts.Name, _ = flags.GetString("name")
	opts.Play, _ = flags.GetBool("play")
	opts.Device, _ = flags.GetString("device")
	opts.Preset, _ = flags.GetString("preset")
	opts.SavePreset, _ = flags.GetString("save-preset")

	if flags.Changed("limit") && (opts.Limit < 1 || opts.Limit > types.MaxLimit) {
		return opts, &types.ValidationError{Field: "limit", Value: fmt.Sprint(opts.Limit), Reason: fmt.Sprintf("must be between 1 and %d", types.MaxLimit)}
	}
	if opts.Device != "" && !opts.Play {
		opts.Play = true
	}
	return opts, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := generateOptions(cmd)
	if err != nil {
		return err
	}

	svc, err := initializeServices(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer svc.Close()

	out, err := svc.session.Generate(cmd.Context(), opts)
	if err != nil {
		return err
	}

	printWarnings(cmd.ErrOrStderr(), out.Warnings)
	printOutcome(cmd.OutOrStdout(), out)
	return nil
}

func printOutcome(w io.Writer, out *session.Outcome) {
	verb := "Created"
	if out.Playlist.Outcome == playlist.OutcomeReused {
		verb = "Updated"
	}
	count := fmt.Sprintf("%d tracks", len(out.Tracks.URIs))
	if out.Request != nil && out.Tracks.Partial(out.Request.LimitOriginal) {
		count = fmt.Sprintf("%d of %d requested tracks", len(out.Tracks.URIs), out.Request.LimitOriginal)
	}
	okColor.Fprintf(w, "%s playlist %q with %s\n", verb, out.Playlist.Playlist.Name, count)
	fmt.Fprintf(w, "  %s\n", out.Playlist.Description)
	fmt.Fprintf(w, "  %s\n", out.Playlist.Playlist.URI)
	if out.Playlist.Played {
		fmt.Fprintln(w, "  playback started")
	}
}
