// Package version reports build metadata injected through -ldflags.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -X.
var (
	Version = "local"
	Commit  = ""
	Branch  = ""
	BuiltAt = ""
	Builder = ""
)

// Info is the build metadata of the running binary.
type Info struct {
	Version   string
	Commit    string
	Branch    string
	BuiltAt   string
	Builder   string
	GoVersion string
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Branch:    Branch,
		BuiltAt:   BuiltAt,
		Builder:   Builder,
		GoVersion: runtime.Version(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBranch: %s\nBuiltAt: %s\nBuilder: %s\nGo: %s\n",
		i.Version, i.Commit, i.Branch, i.BuiltAt, i.Builder, i.GoVersion)
}

// Command returns the version subcommand.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of spotseed",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), Get().String())
		},
	}
}
