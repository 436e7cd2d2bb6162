// Package man generates the spotseed manual page from the cobra command tree.
package man

import (
	"fmt"
	"io"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// NewManCmd returns a hidden command that writes a roff man page to stdout.
func NewManCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates spotseed's command line manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Write(cmd.OutOrStdout(), cmd.Root())
		},
	}
}

// Write renders root and its subcommands as a section 1 man page.
func Write(w io.Writer, root *cobra.Command) error {
	page, err := mcobra.NewManPage(1, root)
	if err != nil {
		return fmt.Errorf("failed to build man page: %w", err)
	}
	_, err = fmt.Fprint(w, page.Build(roff.NewDocument()))
	return err
}
