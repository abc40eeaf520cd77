package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyword(t *testing.T) {
	tests := []struct {
		in      string
		want    Keyword
		wantErr bool
	}{
		{":db/solitonid", Keyword{Namespace: "db", Name: "solitonid"}, false},
		{":db.type/string", Keyword{Namespace: "db.type", Name: "string"}, false},
		{":plain", Keyword{Name: "plain"}, false},
		{":a.b/c/d", Keyword{Namespace: "a.b/c", Name: "d"}, false},
		{"db/solitonid", Keyword{}, true},
		{":", Keyword{}, true},
		{":/name", Keyword{}, true},
		{":ns/", Keyword{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyword(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestKeywordNFC(t *testing.T) {
	// "é" precomposed vs "e" + combining acute.
	composed := NewKeyword("person", "café")
	decomposed := NewKeyword("person", "cafe\u0301")
	assert.Equal(t, composed, decomposed)
}

func TestKeywordCompare(t *testing.T) {
	a := MustKeyword(":a/z")
	b := MustKeyword(":b/a")
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(MustKeyword(":a/z")))
	assert.True(t, a.IsNamespaced())
	assert.False(t, MustKeyword(":x").IsNamespaced())
}

func TestMustKeywordPanics(t *testing.T) {
	assert.Panics(t, func() { MustKeyword("nope") })
}
