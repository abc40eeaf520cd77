package vocabulary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/conn"
	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
	"github.com/YosiSF/EinsteinDB-sub004/internal/testutil"
)

const personV1 = `
vocabulary: "org.example/person": {
	version: 1
	attributes: {
		"person/name":   {type: "string", doc: "Full name"}
		"person/email":  {type: "string", unique: "identity"}
		"person/friend": {type: "ref", cardinality: "many"}
	}
}
`

const personV2 = `
vocabulary: "org.example/person": {
	version: 2
	attributes: {
		"person/name":   {type: "string", index: true, doc: "Preferred name"}
		"person/email":  {type: "string", unique: "identity"}
		"person/friend": {type: "ref", cardinality: "many"}
		"person/age":    {type: "long"}
	}
}
`

func kw(s string) core.Keyword { return core.MustKeyword(s) }

func parseOne(t *testing.T, src string) Definition {
	t.Helper()
	defs, err := Parse(src, "test.cue")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	return defs[0]
}

func TestParse(t *testing.T) {
	defs, err := Parse(personV1+`
vocabulary: "org.example/audit": {
	version: 3
	attributes: "audit/note": {type: "string", fulltext: true, index: true, noHistory: true}
}
`, "test.cue")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, kw(":org.example/audit"), defs[0].Name)
	assert.Equal(t, int64(3), defs[0].Version)
	assert.Equal(t, []AttributeDef{{
		Solitonid: kw(":audit/note"),
		Attribute: core.Attribute{ValueType: core.ValueTypeString, Index: true, Fulltext: true, NoHistory: true},
	}}, defs[0].Attributes)

	person := defs[1]
	assert.Equal(t, kw(":org.example/person"), person.Name)
	assert.Equal(t, []AttributeDef{
		{
			Solitonid: kw(":person/email"),
			Attribute: core.Attribute{ValueType: core.ValueTypeString, Unique: core.UniqueIdentity, Index: true},
		},
		{
			Solitonid: kw(":person/friend"),
			Attribute: core.Attribute{ValueType: core.ValueTypeRef, Cardinality: core.CardinalityMany},
		},
		{
			Solitonid: kw(":person/name"),
			Attribute: core.Attribute{ValueType: core.ValueTypeString},
			Doc:       "Full name",
		},
	}, person.Attributes)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no vocabulary", `other: 1`},
		{"unknown type", `vocabulary: "a/b": {version: 1, attributes: "x/y": {type: "float"}}`},
		{"version zero", `vocabulary: "a/b": {version: 0, attributes: "x/y": {type: "long"}}`},
		{"unnamespaced vocabulary", `vocabulary: "ab": {version: 1, attributes: "x/y": {type: "long"}}`},
		{"unnamespaced attribute", `vocabulary: "a/b": {version: 1, attributes: "y": {type: "long"}}`},
		{"fulltext on long", `vocabulary: "a/b": {version: 1, attributes: "x/y": {type: "long", fulltext: true, index: true}}`},
		{"component on string", `vocabulary: "a/b": {version: 1, attributes: "x/y": {type: "string", isComponent: true}}`},
		{"unique value without index", `vocabulary: "a/b": {version: 1, attributes: "x/y": {type: "string", unique: "value"}}`},
		{"syntax", `vocabulary: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, "bad.cue")
			require.Error(t, err)
		})
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := Parse(`vocabulary: "a/b": {version: 1, attributes: "y": {type: "long"}}`, "pos.cue")
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "got %T", err)
	assert.Equal(t, "attributes", ce.Field)
	assert.Contains(t, ce.Message, `"y"`)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "person.cue"), []byte("package vocab\n"+personV1), 0o644))

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, kw(":org.example/person"), defs[0].Name)
	assert.Len(t, defs[0].Attributes, 3)

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func openConn(t *testing.T) *conn.Conn {
	t.Helper()
	c, err := conn.Open(context.Background(), filepath.Join(t.TempDir(), "vocab.db"),
		conn.WithClock(testutil.NewDeterministicClock()))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestEnsureInstallsThenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := openConn(t)
	def := parseOne(t, personV1)

	out, err := Ensure(ctx, c, def)
	require.NoError(t, err)
	assert.Equal(t, Installed, out.Status)
	assert.Equal(t, int64(0), out.PreviousVersion)
	require.NotNil(t, out.Report)

	schema := c.Schema()
	attr, a, ok := schema.AttributeForSolitonid(kw(":person/email"))
	require.True(t, ok)
	assert.Equal(t, core.UniqueIdentity, attr.Unique)
	assert.True(t, attr.Index)

	vocab, ok := schema.Causetid(kw(":org.example/person"))
	require.True(t, ok)
	versions, err := c.Get(ctx, vocab, kw(":db.schema/version"))
	require.NoError(t, err)
	assert.Equal(t, []core.TypedValue{core.Long(1)}, versions)
	members, err := c.Get(ctx, vocab, kw(":db.schema/attribute"))
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Contains(t, members, core.TypedValue(core.Ref(a)))

	nameID, ok := schema.Causetid(kw(":person/name"))
	require.True(t, ok)
	docs, err := c.Get(ctx, nameID, kw(":db/doc"))
	require.NoError(t, err)
	assert.Equal(t, []core.TypedValue{core.String("Full name")}, docs)

	again, err := Ensure(ctx, c, def)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, again.Status)
	assert.Nil(t, again.Report)
	assert.Equal(t, int64(1), again.PreviousVersion)
}

func TestEnsureUpgrades(t *testing.T) {
	ctx := context.Background()
	c := openConn(t)
	_, err := Ensure(ctx, c, parseOne(t, personV1))
	require.NoError(t, err)

	out, err := Ensure(ctx, c, parseOne(t, personV2))
	require.NoError(t, err)
	assert.Equal(t, Updated, out.Status)
	assert.Equal(t, int64(1), out.PreviousVersion)
	assert.Equal(t, int64(2), out.Version)

	schema := c.Schema()
	name, nameID, ok := schema.AttributeForSolitonid(kw(":person/name"))
	require.True(t, ok)
	assert.True(t, name.Index)
	_, _, ok = schema.AttributeForSolitonid(kw(":person/age"))
	assert.True(t, ok)

	docs, err := c.Get(ctx, nameID, kw(":db/doc"))
	require.NoError(t, err)
	assert.Equal(t, []core.TypedValue{core.String("Preferred name")}, docs)

	// A store at version 2 rejects the older definition.
	_, err = Ensure(ctx, c, parseOne(t, personV1))
	assert.True(t, core.IsKind(err, core.ErrBadTopographAssertion), "got %v", err)
}

func TestEnsureRejectsImmutableChanges(t *testing.T) {
	ctx := context.Background()
	c := openConn(t)
	_, err := Ensure(ctx, c, parseOne(t, personV1))
	require.NoError(t, err)

	changed := parseOne(t, `
vocabulary: "org.example/person": {
	version: 2
	attributes: "person/name": {type: "string", cardinality: "many"}
}
`)
	_, err = Ensure(ctx, c, changed)
	assert.True(t, core.IsKind(err, core.ErrBadTopographAssertion), "got %v", err)

	before := c.Metadata()
	_, err = Ensure(ctx, c, changed)
	require.Error(t, err)
	assert.Same(t, before, c.Metadata())
}

func TestEnsureAll(t *testing.T) {
	ctx := context.Background()
	c := openConn(t)
	defs, err := Parse(personV1+`
vocabulary: "org.example/audit": {
	version: 1
	attributes: "audit/note": {type: "string"}
}
`, "all.cue")
	require.NoError(t, err)

	outcomes, err := EnsureAll(ctx, c, defs)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, Installed, out.Status, out.Name.String())
	}
}
