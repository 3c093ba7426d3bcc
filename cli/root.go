package cli

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd returns the root cobra command for the mm-replacer CLI.
// staticFS holds the embedded UI assets, including the bundled dictionary.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer, staticFS fs.FS) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mm-replacer",
		Short:         "Apply a synced find/replace dictionary to text",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	addGlobalFlags(cmd)

	cmd.AddCommand(newServeCmd(staticFS))
	cmd.AddCommand(newSyncCmd(stdout, staticFS))
	cmd.AddCommand(newReplaceCmd(stdin, stdout, stderr, staticFS))
	cmd.AddCommand(newPrefsCmd(stdout, staticFS))
	cmd.AddCommand(newConfigCmd(stdout))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute(staticFS fs.FS) int {
	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr, staticFS)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
