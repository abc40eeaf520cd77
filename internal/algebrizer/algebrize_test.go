package algebrizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/topograph"
)

const (
	personName   core.Causetid = 0x10000
	personAge    core.Causetid = 0x10001
	personFriend core.Causetid = 0x10002
	personScore  core.Causetid = 0x10003
)

func testSchema(t *testing.T) *topograph.Schema {
	t.Helper()
	s := topograph.MustBootstrap()
	var quads []core.Quad
	define := func(e core.Causetid, kw string, vt core.Causetid, card core.Causetid) {
		quads = append(quads,
			core.Quad{E: e, A: core.DBSolitonid, V: core.MustKeyword(kw), Added: true},
			core.Quad{E: e, A: core.DBValueType, V: core.Ref(vt), Added: true},
			core.Quad{E: e, A: core.DBCardinality, V: core.Ref(card), Added: true},
		)
	}
	define(personName, ":person/name", core.DBTypeString, core.DBCardinalityOne)
	define(personAge, ":person/age", core.DBTypeLong, core.DBCardinalityOne)
	define(personFriend, ":person/friend", core.DBTypeRef, core.DBCardinalityMany)
	define(personScore, ":person/score", core.DBTypeDouble, core.DBCardinalityOne)
	_, err := s.UpdateFromQuadruples(quads)
	require.NoError(t, err)
	return s
}

func algebrize(t *testing.T, query string) (*ConjoiningClauses, error) {
	t.Helper()
	q, err := ParseFindQuery(query)
	require.NoError(t, err)
	return Algebrize(testSchema(t), q)
}

func TestParseFindQuery(t *testing.T) {
	q, err := ParseFindQuery(`[:find ?e ?name :where [?e :person/name ?name] [_ :person/friend ?e]]`)
	require.NoError(t, err)
	assert.Equal(t, []Variable{"?e", "?name"}, q.Find)
	require.Len(t, q.Where, 2)
	assert.Equal(t, `[?e :person/name ?name]`, q.Where[0].String())
	assert.Equal(t, Placeholder{}, q.Where[1].E)
}

func TestParseFindQueryErrors(t *testing.T) {
	inputs := []string{
		`(:find ?e)`,
		`[?e :where [?e :a/b ?v]]`,
		`[:find :where [?e :a/b ?v]]`,
		`[:find ?e]`,
		`[:find ?e :where [?e :a/b]]`,
		`[:find ?e :in $ :where [?e :a/b ?v]]`,
		`[:find ?e :where [?e :a/b [1 2]]]`,
		`[:find ?e :where [?e :a/b sym]]`,
		`[:find ?e :find ?v :where [?e :a/b ?v]]`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFindQuery(input)
			require.Error(t, err)
			assert.True(t, core.IsKind(err, core.ErrEdnParse), err.Error())
		})
	}
}

func TestAlgebrizeJoin(t *testing.T) {
	cc, err := algebrize(t, `[:find ?name ?friend :where [?e :person/name ?name] [?e :person/friend ?f] [?f :person/name ?friend]]`)
	require.NoError(t, err)

	assert.Equal(t, []string{"datoms0", "datoms1", "datoms2"}, cc.Aliases)
	assert.Equal(t, Binding{Column: QualifiedColumn{"datoms0", ColumnV}, Type: core.ValueTypeString}, cc.Bindings["?name"])
	assert.Equal(t, Binding{Column: QualifiedColumn{"datoms1", ColumnV}, Type: core.ValueTypeRef}, cc.Bindings["?f"])

	var rendered []string
	for _, c := range cc.Constraints {
		rendered = append(rendered, c.String())
	}
	assert.Equal(t, []string{
		"datoms0.a = 65536",
		"datoms1.a = 65538",
		"datoms0.e = datoms1.e",
		"datoms2.a = 65536",
		"datoms1.v = datoms2.e",
	}, rendered)

	sql, params := cc.ToSQL()
	assert.Equal(t,
		"SELECT DISTINCT datoms0.v AS col0, datoms0.value_type_tag AS tag0, datoms2.v AS col1, datoms2.value_type_tag AS tag1"+
			" FROM datoms AS datoms0, datoms AS datoms1, datoms AS datoms2"+
			" WHERE datoms0.a = ? AND datoms1.a = ? AND datoms0.e = datoms1.e AND datoms2.a = ? AND datoms1.v = datoms2.e"+
			" ORDER BY col0 ASC, col1 ASC",
		sql)
	assert.Equal(t, []any{int64(personName), int64(personFriend), int64(personName)}, params)
}

func TestAlgebrizeConstants(t *testing.T) {
	cc, err := algebrize(t, `[:find ?e :where [?e :person/age 42] [?e :person/score 3] [?e :person/friend :db/txInstant]]`)
	require.NoError(t, err)

	sql, params := cc.ToSQL()
	assert.Contains(t, sql, "datoms0.e AS col0, 0 AS tag0")
	assert.Equal(t, []any{
		int64(personAge), int64(42), core.ValueTypeLong.Tag(),
		int64(personScore), float64(3), core.ValueTypeDouble.Tag(),
		int64(personFriend), int64(core.DBTxInstant), core.ValueTypeRef.Tag(),
	}, params)
}

func TestAlgebrizeConstantEntity(t *testing.T) {
	cc, err := algebrize(t, `[:find ?v :where [:person/name :db/valueType ?v]]`)
	require.NoError(t, err)
	_, params := cc.ToSQL()
	assert.Equal(t, []any{int64(core.DBValueType), int64(personName)}, params)
}

func TestAlgebrizeErrors(t *testing.T) {
	tests := []struct {
		query string
		kind  core.ErrorKind
	}{
		{`[:find ?e :where [?e :person/nope ?v]]`, core.ErrUnknownAttribute},
		{`[:find ?e :where [?e 7000 ?v]]`, core.ErrUnknownAttribute},
		{`[:find ?e :where [?e ?a ?v]]`, core.ErrNotYetImplemented},
		{`[:find ?e :where [?e :person/age "old"]]`, core.ErrBadValuePair},
		{`[:find ?e :where [?e :person/friend :no/such]]`, core.ErrUnrecognizedSolitonid},
		{`[:find ?e :where [?e :person/name ?v] [?e :person/age ?v]]`, core.ErrBadValuePair},
		{`[:find ?e :where ["e" :person/name ?v]]`, core.ErrBadValuePair},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := algebrize(t, tt.query)
			require.Error(t, err)
			assert.Equal(t, tt.kind, core.KindOf(err), err.Error())
		})
	}
}

func TestAlgebrizeUnboundFindVariable(t *testing.T) {
	_, err := algebrize(t, `[:find ?missing :where [?e :person/name ?v]]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "?missing")
}
