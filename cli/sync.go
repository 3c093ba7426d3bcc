package cli

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
)

func newSyncCmd(stdout io.Writer, staticFS fs.FS) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the rule dictionary if it is older than the max age",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, staticFS)
			if err != nil {
				return err
			}
			defer rt.close()

			st, err := rt.app.Sync(cmd.Context(), force)
			if err != nil {
				return fmt.Errorf("sync from %s: %w", rt.source, err)
			}
			fmt.Fprintln(stdout, st.Line)
			fmt.Fprintf(stdout, "%d rules\n", st.Rules)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Fetch even if the stored dictionary is fresh")
	return cmd
}

// loadRules restores the stored dictionary and then runs a non-forced sync.
// A failed sync is reported and the stored rules stay in use.
func loadRules(cmd *cobra.Command, rt *runtime) {
	if err := rt.app.Restore(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	if _, err := rt.app.Sync(cmd.Context(), false); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using %d stored rules\n", err, len(rt.app.Rules()))
	}
}
