package record

import (
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Golden(t *testing.T) {
	doc := map[string]any{
		"b":   1.5,
		"a":   "café",
		"arr": []any{1, 2.5, "x"},
		"nested": map[string]any{
			"z": true,
			"y": 0.0,
		},
	}

	data, err := MarshalCanonical(doc)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "canonical_doc", data)
}

func TestMarshalCanonical_Scalars(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"escaped quote", `say "hi"`, `"say \"hi\""`},
		{"newline", "a\nb", `"a\nb"`},
		{"control char", "a\x01b", "\"a\\u0001b\""},
		{"no html escaping", "<a>&</a>", `"<a>&</a>"`},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float integral", 100.0, "100"},
		{"float fractional", 0.25, "0.25"},
		{"float shortest roundtrip", 0.1, "0.1"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"large float", 1e21, "1e+21"},
		{"float slice", []float64{1, 2.5}, "[1,2.5]"},
		{"string slice", []string{"a", "b"}, `["a","b"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))
		})
	}
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(v)
		require.Error(t, err)
		assert.True(t, IsTypeError(err))
	}
}

func TestMarshalCanonical_RejectsNullAndUnknownTypes(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	_, err = MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.True(t, IsTypeError(err))

	_, err = MarshalCanonical(map[string]any{"k": []any{math.NaN()}})
	require.Error(t, err)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// e + combining acute normalizes to the composed form.
	decomposed, err := MarshalCanonical("é")
	require.NoError(t, err)
	composed, err := MarshalCanonical("é")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+FF01 sorts after U+1F600 in UTF-16 code units (the emoji's high
	// surrogate is 0xD83D), but before it in UTF-8 bytes.
	data, err := MarshalCanonical(map[string]any{
		"！":          1,
		"\U0001f600": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001f600\":2,\"！\":1}", string(data))
}
