package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
)

const defaultTokenBytes = 32

// OpaqueTokens mints URL-safe random reset tokens.
type OpaqueTokens struct {
	size int
}

func NewOpaqueTokens(size int) *OpaqueTokens {
	if size <= 0 {
		size = defaultTokenBytes
	}
	return &OpaqueTokens{size: size}
}

func (g *OpaqueTokens) NewToken() (string, error) {
	tok, err := newOpaqueToken(g.size)
	if err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	return tok, nil
}

// newOpaqueToken returns a URL-safe opaque token.
func newOpaqueToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", errors.New("invalid token length")
	}
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
