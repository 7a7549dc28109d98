package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/arkilian/sindex/internal/errors"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		refs []Ref
		want string
	}{
		{"single column", []Ref{Column("v")}, "v"},
		{"single group", []Ref{Columns("a", "b")}, `{"pk":["a","b"]}`},
		{"one-column group", []Ref{Columns("a")}, `{"pk":["a"]}`},
		{"single then single", []Ref{Column("a"), Column("b")}, `{"ck":["b"],"pk":["a"]}`},
		{"group then singles", []Ref{Columns("a", "b"), Column("c"), Column("d")}, `{"ck":["c","d"],"pk":["a","b"]}`},
		{"group then group", []Ref{Columns("a"), Columns("c", "d")}, `{"ck":[["c","d"]],"pk":["a"]}`},
		{"no html escaping", []Ref{Column("<a>"), Column("b&c")}, `{"ck":["b&c"],"pk":["<a>"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.refs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		refs []Ref
	}{
		{"empty", nil},
		{"empty name", []Ref{Column("")}},
		{"empty group", []Ref{Columns()}},
		{"empty name in group", []Ref{Columns("a", "")}},
		{"nil ref", []Ref{Column("a"), nil}},
		{"invalid utf8", []Ref{Column("x\xffy")}},
		{"invalid utf8 in group", []Ref{Columns("a", "x\xffy")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.refs)
			require.Error(t, err)
			assert.Equal(t, serrors.CodeInvalidTarget, serrors.GetCode(err))
		})
	}
}

func TestEncode_DoesNotAliasInput(t *testing.T) {
	names := []string{"a", "b"}
	ref := Columns(names...)
	names[0] = "changed"

	got, err := Encode([]Ref{ref})
	require.NoError(t, err)
	assert.Equal(t, `{"pk":["a","b"]}`, got)
}

func TestRef_String(t *testing.T) {
	assert.Equal(t, "v", Column("v").String())
	assert.Equal(t, "(a, b)", Columns("a", "b").String())
}
