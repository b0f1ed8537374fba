package signing

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestLocalSigner_SignVerifyRoundTrip(t *testing.T) {
	s := NewLocalSigner(newKey(t))
	msg := []byte("democracy365K7P2QX1714566600123456")

	sig, err := s.Sign(context.Background(), "ignored", msg)
	require.NoError(t, err)
	assert.Len(t, sig, 256)

	ok, err := s.Verify(context.Background(), "ignored", msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalSigner_IsPKCS1v15SHA256(t *testing.T) {
	key := newKey(t)
	s := NewLocalSigner(key)
	msg := []byte("democracy365ABCDEF1")

	sig, err := s.Sign(context.Background(), "", msg)
	require.NoError(t, err)

	digest := sha256.Sum256(msg)
	assert.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestLocalSigner_RejectsTamperedInput(t *testing.T) {
	s := NewLocalSigner(newKey(t))
	msg := []byte("democracy365ABCDEF1")
	sig, err := s.Sign(context.Background(), "", msg)
	require.NoError(t, err)

	ok, err := s.Verify(context.Background(), "", []byte("democracy365ABCDEF2"), sig)
	require.NoError(t, err)
	assert.False(t, ok, "different message")

	sig[0] ^= 0xff
	ok, err = s.Verify(context.Background(), "", msg, sig)
	require.NoError(t, err)
	assert.False(t, ok, "flipped signature byte")
}

func TestLocalSigner_RejectsOtherKey(t *testing.T) {
	msg := []byte("democracy365ABCDEF1")
	sig, err := NewLocalSigner(newKey(t)).Sign(context.Background(), "", msg)
	require.NoError(t, err)

	ok, err := NewLocalSigner(newKey(t)).Verify(context.Background(), "", msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadLocalSigner(t *testing.T) {
	key := newKey(t)
	path := filepath.Join(t.TempDir(), "key.pem")
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

	s, err := LoadLocalSigner(path)
	require.NoError(t, err)
	assert.True(t, s.key.Equal(key))
}

func TestLoadLocalSigner_Errors(t *testing.T) {
	_, err := LoadLocalSigner(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
	_, err = LoadLocalSigner(path)
	assert.Error(t, err)
}
