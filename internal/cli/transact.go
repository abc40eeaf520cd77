package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
	"github.com/YosiSF/EinsteinDB-sub004/internal/transact"
)

// TransactOutput is the result of the transact command.
type TransactOutput struct {
	TxID      int64            `json:"tx_id"`
	TxInstant string           `json:"tx_instant"`
	TempIDs   map[string]int64 `json:"tempids"`
	Datoms    int              `json:"datoms"`
	Installed []string         `json:"installed,omitempty"`
	Altered   []string         `json:"altered,omitempty"`
}

func (o TransactOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "committed tx %d at %s (%d datoms)\n", o.TxID, o.TxInstant, o.Datoms)
	for _, name := range slices.Sorted(maps.Keys(o.TempIDs)) {
		fmt.Fprintf(&b, "  %s = %d\n", name, o.TempIDs[name])
	}
	for _, a := range o.Installed {
		fmt.Fprintf(&b, "  installed %s\n", a)
	}
	for _, a := range o.Altered {
		fmt.Fprintf(&b, "  altered %s\n", a)
	}
	return b.String()
}

// NewTransactCommand creates the transact command.
func NewTransactCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transact <file|->",
		Short: "Transact EDN terms",
		Long: `Transact a vector of EDN terms read from a file, or from stdin with "-".

Each term is [:db/add e a v] or [:db/retract e a v]. Entities may be
causetids, solitonids or tempid strings.

Example:
  causetdb transact --db ./causet.db tx.edn
  echo '[[:db/add "p" :db/doc "hello"]]' | causetdb transact -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransact(rootOpts, args[0], cmd)
		},
	}
}

func runTransact(opts *RootOptions, source string, cmd *cobra.Command) error {
	input, err := readSource(source, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transaction", err)
	}

	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.close()

	report, err := s.conn.TransactEDN(cmd.Context(), input)
	if err != nil {
		return storeExitError("transaction failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(newTransactOutput(report, s.conn.Schema()))
}

func newTransactOutput(report *transact.Report, schema *topograph.Schema) TransactOutput {
	out := TransactOutput{
		TxID:      int64(report.TxID),
		TxInstant: report.TxInstant.Time().Format(time.RFC3339Nano),
		TempIDs:   make(map[string]int64, len(report.TempIDs)),
		Datoms:    len(report.Datoms),
	}
	for name, id := range report.TempIDs {
		out.TempIDs[name] = int64(id)
	}
	if st := report.Spacetime; st != nil {
		for _, a := range st.Installed {
			out.Installed = append(out.Installed, schema.Describe(a))
		}
		for _, a := range slices.Sorted(maps.Keys(st.Altered)) {
			names := make([]string, len(st.Altered[a]))
			for i, alt := range st.Altered[a] {
				text, _ := alt.MarshalText()
				names[i] = string(text)
			}
			out.Altered = append(out.Altered, fmt.Sprintf("%s %s", schema.Describe(a), strings.Join(names, ",")))
		}
	}
	return out
}

// readSource reads a file, or r when source is "-".
func readSource(source string, r io.Reader) (string, error) {
	var data []byte
	var err error
	if source == "-" {
		data, err = io.ReadAll(r)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
