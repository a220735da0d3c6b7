package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lorabot/lorabot/internal/harness"
)

// NewTraceCommand creates the trace command: replay a scripted scenario and
// print the captured frames.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Replay a scripted mesh timeline and print the trace",
		Long: `Replay a scenario file against a fresh companion under a deterministic
clock and print the sampled frames. The same format backs the golden
conformance tests, so a trace can be diffed against a golden file directly.

Example:
  lorabot trace internal/harness/testdata/receive_cycle.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := harness.LoadScenario(args[0])
			if err != nil {
				return err
			}

			h := harness.New(slog.Default())
			result, err := h.Run(cmd.Context(), sc)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(result.Render())
			return err
		},
	}
	return cmd
}
