package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/partition"
)

func TestRunPersonRename(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/person_rename.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []core.Causetid{partition.Tx0 + 1, partition.Tx0 + 2, partition.Tx0 + 3, 0, 0}, result.TxIDs)
	assert.Equal(t, partition.User0+1, result.TempIDs["p"])
}

func TestRunPersonUpsert(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/person_upsert.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, result.TempIDs["p"], result.TempIDs["q"])
	assert.Zero(t, result.TxIDs[2])
}

func TestRunReportsUnexpectedError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: unknown_attribute
description: "Transacting an unknown attribute fails the step"
steps:
  - transact: '[[:db/add "p" :person/name "Ann"]]'
  - query: '[:find ?e :where [?e :db/doc]]'
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[0]: unexpected error")
}

func TestRunReportsMissingError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: expected_failure
description: "A step expected to fail that succeeds is reported"
steps:
  - transact: '[[:db/add "d" :db/doc "hello"]]'
    expect:
      error: BAD_VALUE_PAIR
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error BAD_VALUE_PAIR, got success")
}

func TestRunReportsFailedAssertions(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: failed_assertions
description: "Assertions are evaluated and reported individually"
steps:
  - transact: '[[:db/add "d" :db/doc "hello"]]'
    expect:
      tempids: [d]
assertions:
  - type: value
    entity: $d
    attribute: ":db/doc"
    values: ['"goodbye"']
  - type: attribute
    attribute: ":db/doc"
    absent: true
  - type: timeline
    timeline: 0
    transactions: 2
  - type: timeline
    timeline: 3
    transactions: 1
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `expected $d :db/doc = ["goodbye"], actual ["hello"]`)
	assert.Contains(t, result.Errors[1], ":db/doc absent")
	assert.Contains(t, result.Errors[2], "timeline 3 with 1 transactions")
}

func TestSubstitute(t *testing.T) {
	tempids := map[string]core.Causetid{"p": 65537, "friend-1": 65538}

	out, err := substitute(`[[:db/add $p :person/friend $friend-1] [:db/add $p :person/name "$"]]`, tempids)
	require.NoError(t, err)
	assert.Equal(t, `[[:db/add 65537 :person/friend 65538] [:db/add 65537 :person/name "$"]]`, out)

	_, err = substitute(`[[:db/add $x :db/doc "a"] [:db/add $y :db/doc "b"]]`, tempids)
	assert.EqualError(t, err, "unresolved tempids: x, y")
}

func TestResolveEntity(t *testing.T) {
	tempids := map[string]core.Causetid{"p": 65537}

	e, err := resolveEntity("$p", tempids)
	require.NoError(t, err)
	assert.Equal(t, core.Causetid(65537), e)

	e, err = resolveEntity("42", tempids)
	require.NoError(t, err)
	assert.Equal(t, core.Causetid(42), e)

	_, err = resolveEntity("$q", tempids)
	assert.Error(t, err)
	_, err = resolveEntity("p", tempids)
	assert.Error(t, err)
}
