package harness

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/YosiSF/EinsteinDB-sub004/internal/conn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

func evaluate(ctx context.Context, c *conn.Conn, a Assertion, tempids map[string]core.Causetid) error {
	switch a.Type {
	case AssertValue:
		return assertValue(ctx, c, a, tempids)
	case AssertAttribute:
		return assertAttribute(c, a)
	case AssertTimeline:
		return assertTimeline(ctx, c, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertValue compares the current values of (entity, attribute) with the
// expected ones, ignoring order.
func assertValue(ctx context.Context, c *conn.Conn, a Assertion, tempids map[string]core.Causetid) error {
	e, err := resolveEntity(a.Entity, tempids)
	if err != nil {
		return err
	}
	kw, err := core.ParseKeyword(a.Attribute)
	if err != nil {
		return err
	}
	values, err := c.Get(ctx, e, kw)
	if err != nil {
		return err
	}

	got := make([]string, len(values))
	for i, v := range values {
		got[i] = core.FormatValue(v)
	}
	want := slices.Clone(a.Values)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertValue,
			Expected: fmt.Sprintf("%s %s = [%s]", a.Entity, a.Attribute, strings.Join(want, " ")),
			Actual:   fmt.Sprintf("[%s]", strings.Join(got, " ")),
		}
	}
	return nil
}

func assertAttribute(c *conn.Conn, a Assertion) error {
	kw, err := core.ParseKeyword(a.Attribute)
	if err != nil {
		return err
	}
	_, _, installed := c.Schema().AttributeForSolitonid(kw)
	if installed == a.Absent {
		state := func(b bool) string {
			if b {
				return "installed"
			}
			return "absent"
		}
		return &AssertionError{
			Type:     AssertAttribute,
			Expected: fmt.Sprintf("%s %s", a.Attribute, state(!a.Absent)),
			Actual:   state(installed),
		}
	}
	return nil
}

func assertTimeline(ctx context.Context, c *conn.Conn, a Assertion) error {
	summaries, err := c.Timelines(ctx)
	if err != nil {
		return err
	}
	count := 0
	for _, s := range summaries {
		if s.Timeline == a.Timeline {
			count = s.Transactions
		}
	}
	if count != a.Transactions {
		return &AssertionError{
			Type:     AssertTimeline,
			Expected: fmt.Sprintf("timeline %d with %d transactions", a.Timeline, a.Transactions),
			Actual:   fmt.Sprintf("%d transactions", count),
		}
	}
	return nil
}

func resolveEntity(ref string, tempids map[string]core.Causetid) (core.Causetid, error) {
	if name, ok := strings.CutPrefix(ref, "$"); ok {
		id, ok := tempids[name]
		if !ok {
			return 0, fmt.Errorf("unresolved tempid %q", name)
		}
		return id, nil
	}
	n, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid entity %q: %w", ref, err)
	}
	return core.Causetid(n), nil
}
