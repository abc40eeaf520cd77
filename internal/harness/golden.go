package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/YosiSF/EinsteinDB-sub004/internal/conn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

// Dump renders the non-bootstrap datoms and the timeline summaries in a
// stable text form:
//
//	# person_rename
//	datoms:
//	[65537 :person/name "Ann" 268435458]
//	timelines:
//	0 transactions=3 first=268435456 last=268435458
//
// Attributes and ref values print as solitonids where they have one.
func Dump(ctx context.Context, c *conn.Conn, name string) (string, error) {
	datoms, err := c.Datoms(ctx)
	if err != nil {
		return "", err
	}
	timelines, err := c.Timelines(ctx)
	if err != nil {
		return "", err
	}
	schema := c.Schema()

	var buf strings.Builder
	fmt.Fprintf(&buf, "# %s\n", name)
	buf.WriteString("datoms:\n")
	for _, d := range datoms {
		if d.E < partition.User0 {
			continue
		}
		value := core.FormatValue(d.V)
		if ref, ok := d.V.(core.Ref); ok {
			value = schema.Describe(core.Causetid(ref))
		}
		fmt.Fprintf(&buf, "[%d %s %s %d]\n", d.E, schema.Describe(d.A), value, d.Tx)
	}
	buf.WriteString("timelines:\n")
	for _, s := range timelines {
		fmt.Fprintf(&buf, "%d transactions=%d first=%d last=%d\n", s.Timeline, s.Transactions, s.FirstTx, s.LastTx)
	}
	return buf.String(), nil
}

// RunWithGolden executes a scenario and compares its final state against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(result.Snapshot))

	return result, nil
}
