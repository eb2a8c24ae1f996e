package session

import (
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRandomGeneratorDefaults(t *testing.T) {
	require.Equal(t, DefaultTokenBytes, NewRandomGenerator(0).TokenBytes)
	require.Equal(t, 48, NewRandomGenerator(48).TokenBytes)
}

func TestRandomGeneratorProducesUUIDs(t *testing.T) {
	g := NewRandomGenerator(0)

	id, err := g.NewID()
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, uuid.Version(4), parsed.Version())
}

func TestRandomGeneratorTokensAreUnique(t *testing.T) {
	g := NewRandomGenerator(0)
	seen := make(map[string]struct{}, 1000)

	for range 1000 {
		token, err := g.NewToken()
		require.NoError(t, err)

		raw, err := base64.RawURLEncoding.DecodeString(token)
		require.NoError(t, err)
		require.Len(t, raw, DefaultTokenBytes)

		_, dup := seen[token]
		require.False(t, dup, "duplicate token generated")
		seen[token] = struct{}{}
	}
}

func TestRandomGeneratorRejectsWeakTokens(t *testing.T) {
	g := &RandomGenerator{TokenBytes: 4}

	_, err := g.NewToken()
	require.Error(t, err)
}
