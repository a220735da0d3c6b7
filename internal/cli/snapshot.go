package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorabot/lorabot/internal/config"
	"github.com/lorabot/lorabot/internal/pet"
)

// NewSnapshotCommand creates the snapshot command: inspect the persisted
// companion state.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show the persisted companion state",
		Long: `Read the configured snapshot store and print the persisted state: the
emotional state at last save, the last activity time, and the friend list.

Example:
  lorabot snapshot --config lorabot.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cfg.Store.Driver == config.DriverNone {
				return fmt.Errorf("store driver is %q: nothing persisted", cfg.Store.Driver)
			}

			snapStore, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := snapStore.Load(cmd.Context())
			if err != nil && !errors.Is(err, pet.ErrCorruptFriends) {
				return fmt.Errorf("load snapshot: %w", err)
			}
			out := cmd.OutOrStdout()
			if errors.Is(err, pet.ErrCorruptFriends) {
				fmt.Fprintln(out, "warning: persisted friend data corrupt, list discarded")
			}
			if snap == nil {
				fmt.Fprintln(out, "no snapshot persisted")
				return nil
			}

			fmt.Fprintf(out, "state:         %s\n", snap.State)
			fmt.Fprintf(out, "last activity: %s\n", snap.LastActivity.Format("2006-01-02 15:04:05 MST"))
			if snap.Session != "" {
				fmt.Fprintf(out, "session:       %s\n", snap.Session)
			}
			fmt.Fprintf(out, "friends:       %d\n", len(snap.Friends))
			for _, f := range snap.Friends {
				fmt.Fprintf(out, "  %-12s encounters=%-3d last seen %s\n",
					f.ID.Hex(), f.Encounters, f.LastSeen.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	return cmd
}
