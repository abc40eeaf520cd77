package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YosiSF/EinsteinDB-sub004/internal/vocabulary"
)

// VocabOutcome reports one ensured vocabulary.
type VocabOutcome struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	PreviousVersion int64  `json:"previous_version"`
	Version         int64  `json:"version"`
	TxID            int64  `json:"tx_id,omitempty"`
}

// VocabOutput is the result of the vocab command.
type VocabOutput struct {
	Vocabularies []VocabOutcome `json:"vocabularies"`
}

func (o VocabOutput) String() string {
	var b strings.Builder
	for _, v := range o.Vocabularies {
		fmt.Fprintf(&b, "%s\t%s\tv%d", v.Name, v.Status, v.Version)
		if v.TxID != 0 {
			fmt.Fprintf(&b, "\ttx=%d", v.TxID)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// NewVocabCommand creates the vocab command.
func NewVocabCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab <dir>",
		Short: "Install or upgrade CUE vocabularies",
		Long: `Load the CUE vocabulary package in a directory and bring the store up to
date with it: new vocabularies are installed, newer versions upgrade the
attributes they declare, and unchanged ones are left alone.

Example:
  causetdb vocab --db ./causet.db ./vocabularies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocab(rootOpts, args[0], cmd)
		},
	}
}

func runVocab(opts *RootOptions, dir string, cmd *cobra.Command) error {
	defs, err := vocabulary.LoadDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load vocabularies", err)
	}

	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.close()

	outcomes, err := vocabulary.EnsureAll(cmd.Context(), s.conn, defs)
	if err != nil {
		return storeExitError("failed to ensure vocabularies", err)
	}

	out := VocabOutput{Vocabularies: make([]VocabOutcome, len(outcomes))}
	for i, o := range outcomes {
		out.Vocabularies[i] = VocabOutcome{
			Name:            o.Name.String(),
			Status:          o.Status.String(),
			PreviousVersion: o.PreviousVersion,
			Version:         o.Version,
		}
		if o.Report != nil {
			out.Vocabularies[i].TxID = int64(o.Report.TxID)
		}
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out)
}
