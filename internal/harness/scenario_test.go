package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/person_upsert.yaml")
	require.NoError(t, err)

	assert.Equal(t, "person_upsert", s.Name)
	require.Len(t, s.Vocabularies, 1)
	assert.Equal(t, filepath.Join("testdata", "vocabularies"), s.Vocabularies[0])
	require.Len(t, s.Steps, 4)
	assert.Equal(t, []string{"p"}, s.Steps[0].Expect.TempIDs)
	assert.Equal(t, "BAD_VALUE_PAIR", s.Steps[2].Expect.Error)
	assert.Equal(t, [][]string{{`"Anne"`}}, s.Steps[3].Expect.Rows)
	require.Len(t, s.Assertions, 5)
	assert.True(t, s.Assertions[3].Absent)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{query: '[:find ?e :where [?e :db/doc]]'}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps: [{query: q}]\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "two operations",
			yaml: "name: n\ndescription: d\nsteps: [{query: q, transact: t}]\n",
			want: "exactly one of transact, move or query",
		},
		{
			name: "empty step",
			yaml: "name: n\ndescription: d\nsteps: [{}]\n",
			want: "exactly one of transact, move or query",
		},
		{
			name: "move forward reference",
			yaml: "name: n\ndescription: d\nsteps: [{move: {from_step: 0, timeline: 1}}]\n",
			want: "must name an earlier step",
		},
		{
			name: "unknown field",
			yaml: "name: n\ndescription: d\nflow: []\nsteps: [{query: q}]\n",
			want: "field flow not found",
		},
		{
			name: "unknown assertion type",
			yaml: "name: n\ndescription: d\nsteps: [{query: q}]\nassertions: [{type: trace}]\n",
			want: `unknown assertion type "trace"`,
		},
		{
			name: "value assertion without entity",
			yaml: "name: n\ndescription: d\nsteps: [{query: q}]\nassertions: [{type: value, attribute: ':a/b'}]\n",
			want: "entity and attribute are required",
		},
		{
			name: "attribute assertion without attribute",
			yaml: "name: n\ndescription: d\nsteps: [{query: q}]\nassertions: [{type: attribute}]\n",
			want: "attribute is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
