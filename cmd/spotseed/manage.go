package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/toozej/spotseed/internal/types"
)

func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	table.AppendBulk(rows)
	table.Render()
}

func newBlacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage tracks and artists excluded from recommendations",
	}

	add := &cobra.Command{
		Use:   "add [uri...]",
		Short: "Blacklist track or artist URIs, or the currently playing track",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, _ := cmd.Flags().GetBool("current")
			if !current && len(args) == 0 {
				return &types.ValidationError{Field: "uri", Reason: "give at least one URI or --current"}
			}

			svc, err := initializeServices(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			manager := svc.session.Blacklist()
			if current {
				entry, err := manager.AddCurrent(cmd.Context())
				if err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Blacklisted %s (%s)\n", entryLabel(*entry), entry.URI)
			}
			entries, err := manager.Add(cmd.Context(), args)
			for _, e := range entries {
				okColor.Fprintf(cmd.OutOrStdout(), "Blacklisted %s (%s)\n", entryLabel(e), e.URI)
			}
			return err
		},
	}
	add.Flags().BoolP("current", "c", false, "Blacklist the currently playing track")

	remove := &cobra.Command{
		Use:   "remove <uri>...",
		Short: "Remove URIs from the blacklist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			missing, err := svc.session.Blacklist().Remove(cmd.Context(), args)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), lo.Map(missing, func(uri string, _ int) string {
				return uri + " was not blacklisted"
			}))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blacklisted tracks and artists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			bl, err := svc.store.Blacklist(cmd.Context())
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), []string{"Type", "Name", "URI"}, blacklistRows(bl))
			return nil
		},
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func entryLabel(e types.BlacklistEntry) string {
	return types.Seed{Name: e.Name, Artists: e.Artists}.String()
}

func blacklistRows(bl *types.Blacklist) [][]string {
	var rows [][]string
	for _, uri := range slices.Sorted(maps.Keys(bl.Artists)) {
		rows = append(rows, []string{string(types.KindArtist), entryLabel(bl.Artists[uri]), uri})
	}
	for _, uri := range slices.Sorted(maps.Keys(bl.Tracks)) {
		rows = append(rows, []string{string(types.KindTrack), entryLabel(bl.Tracks[uri]), uri})
	}
	return rows
}

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved generate settings (create one with generate --save-preset)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			presets, err := svc.store.Presets(cmd.Context())
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), []string{"Name", "Based on", "Seeds", "Limit", "Tuning"}, presetRows(presets))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()
			return reportRemoval(cmd, "preset", args[0], func() (bool, error) {
				return svc.store.RemovePreset(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(list, remove)
	return cmd
}

func presetRows(presets map[string]types.Preset) [][]string {
	var rows [][]string
	for _, name := range slices.Sorted(maps.Keys(presets)) {
		p := presets[name]
		seeds := lo.Map(p.Seeds, func(s types.Seed, _ int) string { return s.String() })
		var tunes []string
		for _, k := range slices.Sorted(maps.Keys(p.Params)) {
			if k == "limit" || strings.HasPrefix(k, "seed_") {
				continue
			}
			tunes = append(tunes, k+"="+p.Params[k])
		}
		rows = append(rows, []string{name, p.BasedOn, strings.Join(seeds, ", "), strconv.Itoa(p.Limit), strings.Join(tunes, " ")})
	}
	return rows
}

func newDeviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage named playback devices",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			devices, err := svc.store.Devices(cmd.Context())
			if err != nil {
				return err
			}
			var rows [][]string
			for _, name := range slices.Sorted(maps.Keys(devices)) {
				d := devices[name]
				rows = append(rows, []string{name, d.Name, d.Type, d.ID})
			}
			renderTable(cmd.OutOrStdout(), []string{"Name", "Device", "Type", "ID"}, rows)
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Pick one of the online devices and save it under name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			device, err := svc.session.SaveDevice(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Saved %s as %q\n", device.Name, args[0])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a saved device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()
			return reportRemoval(cmd, "device", args[0], func() (bool, error) {
				return svc.store.RemoveDevice(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(list, save, remove)
	return cmd
}

func newPlaylistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage named playlists",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved playlists and the current default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			playlists, err := svc.store.Playlists(cmd.Context())
			if err != nil {
				return err
			}
			def, ok, err := svc.store.DefaultPlaylist(cmd.Context())
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), []string{"Name", "URI"}, playlistRows(playlists, def, ok))
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save <name> <uri>",
		Short: "Save a playlist URI under name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			pl, err := svc.session.SavePlaylist(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Saved %s as %q\n", pl.URI, args[0])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a saved playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := initializeServices(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer svc.Close()
			return reportRemoval(cmd, "playlist", args[0], func() (bool, error) {
				return svc.store.RemovePlaylist(cmd.Context(), args[0])
			})
		},
	}

	play := &cobra.Command{
		Use:   "play <name>",
		Short: "Start playback of a saved playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, _ := cmd.Flags().GetString("device")

			svc, err := initializeServices(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer svc.Close()

			pl, err := svc.session.PlaySaved(cmd.Context(), args[0], device)
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Playing %s\n", pl.URI)
			return nil
		},
	}
	play.Flags().String("device", "", "Saved device to play on")

	cmd.AddCommand(list, save, remove, play)
	return cmd
}

func playlistRows(playlists map[string]types.Playlist, def types.Playlist, hasDefault bool) [][]string {
	var rows [][]string
	if hasDefault {
		rows = append(rows, []string{"(default) " + def.Name, def.URI})
	}
	for _, name := range slices.Sorted(maps.Keys(playlists)) {
		rows = append(rows, []string{name, playlists[name].URI})
	}
	return rows
}

func reportRemoval(cmd *cobra.Command, what, name string, remove func() (bool, error)) error {
	removed, err := remove()
	if err != nil {
		return err
	}
	if !removed {
		printWarnings(cmd.ErrOrStderr(), []string{fmt.Sprintf("no %s named %q", what, name)})
		return nil
	}
	okColor.Fprintf(cmd.OutOrStdout(), "Removed %s %q\n", what, name)
	return nil
}
