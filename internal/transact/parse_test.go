package transact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YosiSF/EinsteinDB-sub004/internal/core"
)

func TestParseTermsOperations(t *testing.T) {
	terms, err := ParseTerms(`[
		[:db/add "t" :db/solitonid :person/name]
		[:db/add 65536 :person/age 42]
		[:db/retract :my/thing :person/score 1.5]
		[:db/add "p" 7 true]
	]`)
	require.NoError(t, err)

	assert.Equal(t, []Term{
		Add(TempID("t"), Attr(":db/solitonid"), Attr(":person/name")),
		Add(KnownID(65536), Attr(":person/age"), Val(core.Long(42))),
		Retract(Solitonid(core.MustKeyword(":my/thing")), Attr(":person/score"), Val(core.Double(1.5))),
		Add(TempID("p"), KnownID(7), Val(core.Boolean(true))),
	}, terms)
}

func TestParseTermsEntityMap(t *testing.T) {
	terms, err := ParseTerms(`[{:db/id "p" :person/name "Ann" :person/friend ["q" "r"]}]`)
	require.NoError(t, err)

	assert.Equal(t, []Term{
		Add(TempID("p"), Attr(":person/name"), Val(core.String("Ann"))),
		Add(TempID("p"), Attr(":person/friend"), Val(core.String("q"))),
		Add(TempID("p"), Attr(":person/friend"), Val(core.String("r"))),
	}, terms)
}

func TestParseTermsTaggedValues(t *testing.T) {
	terms, err := ParseTerms(`[[:db/add "p" :person/born #inst "2000-01-01T00:00:00Z"]
		[:db/add "p" :person/id #uuid "550e8400-e29b-41d4-a716-446655440000"]]`)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, Val(core.Instant(946684800000000)), terms[0].V)
	assert.Equal(t, "#uuid \"550e8400-e29b-41d4-a716-446655440000\"", terms[1].V.String())
}

func TestParseTermsErrors(t *testing.T) {
	inputs := []string{
		`{:db/id "p"}`,
		`[[:db/add "p" :person/name]]`,
		`[[:db/assert "p" :person/name "x"]]`,
		`[[:db/add 1.5 :person/name "x"]]`,
		`[[:db/add "p" "attr" "x"]]`,
		`[[:db/add "p" :person/_friend "q"]]`,
		`[[:db/add "p" :person/name nil]]`,
		`[{:person/name "no id"}]`,
		`[42]`,
		`[[:db/add "p"`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTerms(input)
			require.Error(t, err)
			assert.True(t, core.IsKind(err, core.ErrEdnParse), err.Error())
		})
	}
}

func TestParsedTermsTransact(t *testing.T) {
	f := newFixture(t)
	f.installPerson(t)

	terms, err := ParseTerms(`[{:db/id "ann" :person/name "Ann" :person/email "ann@example.com"}
		[:db/add "bob" :person/name "Bob"]
		[:db/add "ann" :person/friend "bob"]]`)
	require.NoError(t, err)

	res := f.mustTransact(t, terms...)
	ann, bob := res.Report.TempIDs["ann"], res.Report.TempIDs["bob"]
	require.NotZero(t, ann)
	require.NotZero(t, bob)

	values, err := f.store.Values(t.Context(), ann, f.attr(t, ":person/friend"))
	require.NoError(t, err)
	assert.Equal(t, []core.TypedValue{core.Ref(bob)}, values)
}
