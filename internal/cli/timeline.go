package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/store"
)

// TimelineMoveOptions holds flags for the timeline move command.
type TimelineMoveOptions struct {
	*RootOptions
	From int64
	To   int64
}

// MoveOutput is the result of timeline move.
type MoveOutput struct {
	Timeline int64   `json:"timeline"`
	Moved    []int64 `json:"moved"`
}

func (o MoveOutput) String() string {
	ids := make([]string, len(o.Moved))
	for i, tx := range o.Moved {
		ids[i] = fmt.Sprint(tx)
	}
	return fmt.Sprintf("moved %d transactions to timeline %d: %s\n", len(o.Moved), o.Timeline, strings.Join(ids, " "))
}

// TimelinesOutput lists the non-empty timelines.
type TimelinesOutput struct {
	Timelines []store.TimelineSummary `json:"timelines"`
}

func (o TimelinesOutput) String() string {
	var b strings.Builder
	for _, t := range o.Timelines {
		fmt.Fprintf(&b, "%d\ttransactions=%d\tfirst=%d\tlast=%d\n", t.Timeline, t.Transactions, t.FirstTx, t.LastTx)
	}
	return b.String()
}

// NewTimelineCommand creates the timeline command group.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Inspect and rewrite timelines",
	}
	cmd.AddCommand(newTimelineListCommand(rootOpts))
	cmd.AddCommand(newTimelineMoveCommand(rootOpts))
	return cmd
}

func newTimelineListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Summarize non-empty timelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			summaries, err := s.conn.Timelines(cmd.Context())
			if err != nil {
				return storeExitError("failed to read timelines", err)
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(TimelinesOutput{Timelines: summaries})
		},
	}
}

func newTimelineMoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineMoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move transactions off the main timeline",
		Long: `Move every main-timeline transaction with id >= --from onto timeline
--to, undoing their effects on the current state. The destination timeline
must be empty.

Example:
  causetdb timeline move --db ./causet.db --from 268435459 --to 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimelineMove(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.From, "from", 0, "first transaction to move (required)")
	cmd.Flags().Int64Var(&opts.To, "to", 0, "destination timeline (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runTimelineMove(opts *TimelineMoveOptions, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.conn.MoveRange(cmd.Context(), core.Causetid(opts.From), opts.To)
	if err != nil {
		return storeExitError("move failed", err)
	}

	out := MoveOutput{Timeline: opts.To, Moved: make([]int64, len(res.Moved))}
	for i, tx := range res.Moved {
		out.Moved[i] = int64(tx)
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out)
}
