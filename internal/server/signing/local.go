package signing

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// LocalSigner signs with an in-process RSA key using RS256, which is the
// same RSASSA-PKCS1-v1_5 / SHA-256 primitive KMS applies to raw messages.
// keyID is ignored: a LocalSigner holds exactly one key.
type LocalSigner struct {
	key *rsa.PrivateKey
}

func NewLocalSigner(key *rsa.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key}
}

// LoadLocalSigner reads a PEM encoded RSA private key (PKCS#1 or PKCS#8).
func LoadLocalSigner(path string) (*LocalSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return NewLocalSigner(key), nil
}

func (s *LocalSigner) Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error) {
	sig, err := jwt.SigningMethodRS256.Sign(string(msg), s.key)
	if err != nil {
		return nil, fmt.Errorf("rs256 sign: %w", err)
	}
	return sig, nil
}

func (s *LocalSigner) Verify(ctx context.Context, keyID string, msg, sig []byte) (bool, error) {
	err := jwt.SigningMethodRS256.Verify(string(msg), sig, &s.key.PublicKey)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, rsa.ErrVerification):
		return false, nil
	default:
		return false, fmt.Errorf("rs256 verify: %w", err)
	}
}
