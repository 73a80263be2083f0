package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON_SortsObjectKeys(t *testing.T) {
	got, err := CanonicalJSON([]byte(`{"b":1,"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1}`, string(got))
}

func TestCanonicalJSON_SortsNestedKeys(t *testing.T) {
	got, err := CanonicalJSON([]byte(`{"z":{"y":1,"x":2},"a":[{"c":1,"b":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[{"b":2,"c":1}],"z":{"x":2,"y":1}}`, string(got))
}

func TestCanonicalJSON_StripsWhitespace(t *testing.T) {
	got, err := CanonicalJSON([]byte("{\n  \"a\": 1,\n  \"b\": [1, 2]\n}"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":[1,2]}`, string(got))
}

func TestCanonicalJSON_PreservesNumberPrecision(t *testing.T) {
	// json.Number must survive the round trip untouched; a float64 round trip
	// would mangle large integers.
	got, err := CanonicalJSON([]byte(`{"n":9007199254740993}`))
	require.NoError(t, err)
	assert.Equal(t, `{"n":9007199254740993}`, string(got))
}

func TestCanonicalJSON_InvalidInput(t *testing.T) {
	_, err := CanonicalJSON([]byte(`not json`))
	require.Error(t, err)
}

func TestJSONEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", `{"a":1}`, `{"a":1}`, true},
		{"key order differs", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"whitespace differs", `{"a": 1}`, `{"a":1}`, true},
		{"values differ", `{"a":1}`, `{"a":2}`, false},
		{"missing key", `{"a":1,"b":2}`, `{"a":1}`, false},
		{"nested key order", `{"o":{"x":1,"y":2}}`, `{"o":{"y":2,"x":1}}`, true},
		{"scalar strings", `"hello"`, `"hello"`, true},
		{"scalar mismatch", `"hello"`, `"hello world"`, false},
		{"non-JSON equal bytes", `xx`, `xx`, true},
		{"non-JSON different bytes", `xx`, `yy`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JSONEqual([]byte(tt.a), []byte(tt.b)))
		})
	}
}

func TestFingerprint_StableAcrossKeyOrder(t *testing.T) {
	fp1 := Fingerprint([]byte(`{"a":1,"b":2}`))
	fp2 := Fingerprint([]byte(`{"b":2,"a":1}`))
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64) // hex-encoded SHA-256
}

func TestFingerprint_DiffersForDifferentPayloads(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]byte(`{"a":1}`)), Fingerprint([]byte(`{"a":2}`)))
}
