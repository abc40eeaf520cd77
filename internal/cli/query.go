package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// QueryOutput holds query results rendered as EDN values.
type QueryOutput struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (o QueryOutput) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(o.Columns, "\t"))
	b.WriteByte('\n')
	for _, row := range o.Rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String()
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <find-query>",
		Short: "Run a find query",
		Long: `Run a find query against the current state of the main timeline.

Example:
  causetdb query --db ./causet.db '[:find ?e ?n :where [?e :person/name ?n]]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, query string, cmd *cobra.Command) error {
	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.conn.Query(cmd.Context(), query)
	if err != nil {
		return storeExitError("query failed", err)
	}

	out := QueryOutput{Columns: make([]string, len(res.Columns)), Rows: make([][]string, len(res.Rows))}
	for i, v := range res.Columns {
		out.Columns[i] = v.String()
	}
	for i, row := range res.Rows {
		out.Rows[i] = make([]string, len(row))
		for j, v := range row {
			out.Rows[i][j] = core.FormatValue(v)
		}
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Success(out)
}
