package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/charlesng35/sessionkit/pkg/crypto"
)

// DefaultTokenBytes is the entropy of generated access and refresh tokens.
const DefaultTokenBytes = 32

// TokenGenerator produces opaque identifiers for session ids and tokens.
// Outputs must come from a cryptographically strong source; the Manager still
// rejects values already present in the store and asks again.
type TokenGenerator interface {
	NewID() (string, error)
	NewToken() (string, error)
}

// RandomGenerator issues UUIDv4 session ids and base64url access/refresh tokens
// drawn from crypto/rand.
type RandomGenerator struct {
	TokenBytes int
}

// NewRandomGenerator returns a generator producing tokens of tokenBytes random
// bytes, or DefaultTokenBytes when tokenBytes is not positive.
func NewRandomGenerator(tokenBytes int) *RandomGenerator {
	if tokenBytes <= 0 {
		tokenBytes = DefaultTokenBytes
	}
	return &RandomGenerator{TokenBytes: tokenBytes}
}

func (g *RandomGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return id.String(), nil
}

func (g *RandomGenerator) NewToken() (string, error) {
	token, err := crypto.GenerateToken(g.TokenBytes)
	if err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return token, nil
}
