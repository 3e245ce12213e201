package canonicalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_KeySorting(t *testing.T) {
	input := map[string]interface{}{"c": 3, "a": 1, "b": 2}
	b, err := Canonicalize(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, string(b))
}

func TestCanonicalize_RecursiveSorting(t *testing.T) {
	input := map[string]interface{}{
		"z": map[string]interface{}{"y": "foo", "x": "bar"},
		"a": 1,
	}
	b, err := Canonicalize(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"z":{"x":"bar","y":"foo"}}`, string(b))
}

func TestCanonicalize_NoHTMLEscaping(t *testing.T) {
	input := map[string]string{"html": "<script>alert('xss')</script> &"}
	b, err := Canonicalize(input)
	require.NoError(t, err)
	assert.Equal(t, `{"html":"<script>alert('xss')</script> &"}`, string(b))
}

func TestCanonicalize_ArrayOrderPreserved(t *testing.T) {
	input := []interface{}{3, 1, 2}
	b, err := Canonicalize(input)
	require.NoError(t, err)
	assert.Equal(t, `[3,1,2]`, string(b))
}

func TestCanonicalize_DropsOmittedMissingFields(t *testing.T) {
	type sample struct {
		Keep    string `json:"keep"`
		Dropped string `json:"dropped,omitempty"`
	}
	b, err := Canonicalize(sample{Keep: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"keep":"x"}`, string(b))
}

func TestCanonicalize_PreservesExplicitNull(t *testing.T) {
	input := map[string]interface{}{"a": nil}
	b, err := Canonicalize(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":null}`, string(b))
}

func TestCanonicalize_Deterministic(t *testing.T) {
	input1 := map[string]interface{}{"a": 1, "b": 2}
	input2 := map[string]interface{}{"b": 2, "a": 1}
	b1, err := Canonicalize(input1)
	require.NoError(t, err)
	b2, err := Canonicalize(input2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestCanonicalize_RejectsCycles(t *testing.T) {
	m := map[string]interface{}{}
	m["self"] = m
	_, err := Canonicalize(m)
	require.ErrorIs(t, err, ErrCyclicValue)
}

func TestCanonicalize_RejectsSliceCycles(t *testing.T) {
	s := make([]interface{}, 1)
	s[0] = s
	_, err := Canonicalize(s)
	require.ErrorIs(t, err, ErrCyclicValue)
}

func TestSHA256HexOf_EqualInputsEqualHashes(t *testing.T) {
	h1, err := SHA256HexOf(map[string]interface{}{"a": 1, "b": 2})
	require.NoError(t, err)
	h2, err := SHA256HexOf(map[string]interface{}{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestSHA256HexOf_DifferingInputsDifferingHashes(t *testing.T) {
	h1, err := SHA256HexOf(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	h2, err := SHA256HexOf(map[string]interface{}{"a": 2})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
