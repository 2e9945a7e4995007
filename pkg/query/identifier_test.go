package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSanitizeIdentifier(t *testing.T) {
	valid := []string{"id", "sisters.id", "first_name", "Table2", "a.b.c"}
	for _, name := range valid {
		got, err := SanitizeIdentifier(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, got)
	}

	invalid := []string{"id; DROP TABLE x", "a b", "", "name--", "col`", "x'y", "a,b", "(select)"}
	for _, name := range invalid {
		_, err := SanitizeIdentifier(name)
		assert.ErrorIs(t, err, ErrUnsafeIdentifier, name)
		assert.True(t, IsClientError(err))
	}
}

func TestSanitizeIdentifier_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-zA-Z0-9_.]{1,32}`).Draw(t, "name")
		got, err := SanitizeIdentifier(name)
		if err != nil {
			t.Fatalf("valid identifier %q rejected: %v", name, err)
		}
		if got != name {
			t.Fatalf("identifier changed: %q -> %q", name, got)
		}
	})

	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[a-z]{0,8}`).Draw(t, "prefix")
		bad := rapid.SampledFrom([]string{" ", ";", "'", "\"", "-", "(", ")", "*", "=", "/"}).Draw(t, "bad")
		if _, err := SanitizeIdentifier(prefix + bad); !IsUnsafeIdentifier(err) {
			t.Fatalf("expected %q to be rejected", prefix+bad)
		}
	})
}

func TestSanitizeOperator(t *testing.T) {
	for _, op := range []string{"=", "!=", ">", ">=", "<", "<=", "LIKE", "like", "Like"} {
		got, err := SanitizeOperator(op)
		require.NoError(t, err, op)
		assert.Contains(t, []Operator{Equal, NotEqual, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual, Like}, got)
	}

	got, err := SanitizeOperator("like")
	require.NoError(t, err)
	assert.Equal(t, Like, got)

	for _, op := range []string{"DROP", "<>", "IN", "OR 1=1", ""} {
		_, err := SanitizeOperator(op)
		assert.ErrorIs(t, err, ErrUnsupportedOperator, op)
	}
}
