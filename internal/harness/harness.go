package harness

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/YosiSF/EinsteinDB-sub004/internal/conn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/testutil"
	"github.com/YosiSF/EinsteinDB-sub004/internal/vocabulary"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Pass is true when every step matched its expectation and every
	// assertion held.
	Pass bool

	// Errors lists step and assertion failures in order.
	Errors []string

	// TxIDs holds the transaction each step committed, or 0 for steps
	// that did not commit one.
	TxIDs []core.Causetid

	// TempIDs accumulates tempid resolutions across all steps.
	TempIDs map[string]core.Causetid

	// Snapshot is the final state rendered by Dump.
	Snapshot string
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run executes a scenario against a fresh in-memory store.
//
// Steps run in order. The first step whose outcome does not match its
// expectation stops execution; assertions are still evaluated against the
// state reached so far. An error is returned only when the scenario could
// not be set up.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	c, err := conn.Open(ctx, ":memory:", conn.WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer c.Close()

	for _, dir := range scenario.Vocabularies {
		defs, err := vocabulary.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabularies: %w", err)
		}
		if _, err := vocabulary.EnsureAll(ctx, c, defs); err != nil {
			return nil, fmt.Errorf("failed to ensure vocabularies: %w", err)
		}
	}

	result := &Result{
		Pass:    true,
		TxIDs:   make([]core.Causetid, len(scenario.Steps)),
		TempIDs: make(map[string]core.Causetid),
	}

	for i, step := range scenario.Steps {
		if err := runStep(ctx, c, i, step, result); err != nil {
			result.fail("steps[%d]: %v", i, err)
			break
		}
	}

	for i, a := range scenario.Assertions {
		if err := evaluate(ctx, c, a, result.TempIDs); err != nil {
			result.fail("assertions[%d]: %v", i, err)
		}
	}

	snapshot, err := Dump(ctx, c, scenario.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to dump final state: %w", err)
	}
	result.Snapshot = snapshot

	return result, nil
}

func runStep(ctx context.Context, c *conn.Conn, i int, step Step, result *Result) error {
	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}

	switch {
	case step.Transact != "":
		input, err := substitute(step.Transact, result.TempIDs)
		if err != nil {
			return err
		}
		report, err := c.TransactEDN(ctx, input)
		if err := checkError(err, expect.Error); err != nil || expect.Error != "" {
			return err
		}
		result.TxIDs[i] = report.TxID
		for name, id := range report.TempIDs {
			result.TempIDs[name] = id
		}
		for _, name := range expect.TempIDs {
			if _, ok := report.TempIDs[name]; !ok {
				return fmt.Errorf("expected tempid %q to be resolved", name)
			}
		}

	case step.Move != nil:
		from := result.TxIDs[step.Move.FromStep]
		if from == 0 {
			return fmt.Errorf("move.from_step %d did not commit a transaction", step.Move.FromStep)
		}
		moved, err := c.MoveRange(ctx, from, step.Move.Timeline)
		if err := checkError(err, expect.Error); err != nil || expect.Error != "" {
			return err
		}
		if expect.Moved != 0 && len(moved.Moved) != expect.Moved {
			return fmt.Errorf("expected %d moved transactions, got %d", expect.Moved, len(moved.Moved))
		}

	case step.Query != "":
		query, err := substitute(step.Query, result.TempIDs)
		if err != nil {
			return err
		}
		res, err := c.Query(ctx, query)
		if err := checkError(err, expect.Error); err != nil || expect.Error != "" {
			return err
		}
		if expect.Rows != nil {
			got := formatRows(res.Rows)
			if !slices.EqualFunc(got, expect.Rows, func(a, b []string) bool { return slices.Equal(a, b) }) {
				return fmt.Errorf("expected rows %v, got %v", expect.Rows, got)
			}
		}
	}
	return nil
}

// checkError matches err against an expected error kind. An empty kind
// means the operation must succeed.
func checkError(err error, kind string) error {
	switch {
	case kind == "" && err != nil:
		return fmt.Errorf("unexpected error: %w", err)
	case kind == "":
		return nil
	case err == nil:
		return fmt.Errorf("expected error %s, got success", kind)
	case string(core.KindOf(err)) != kind:
		return fmt.Errorf("expected error %s, got %v", kind, err)
	}
	return nil
}

func formatRows(rows [][]core.TypedValue) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = core.FormatValue(v)
		}
	}
	return out
}

var tempidRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_-]*)`)

// substitute replaces every $name with the causetid tempid name resolved
// to.
func substitute(input string, tempids map[string]core.Causetid) (string, error) {
	var missing []string
	out := tempidRef.ReplaceAllStringFunc(input, func(ref string) string {
		name := ref[1:]
		id, ok := tempids[name]
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return strconv.FormatInt(int64(id), 10)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved tempids: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
