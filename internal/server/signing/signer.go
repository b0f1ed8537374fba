// Package signing produces and checks RSASSA-PKCS1-v1_5 / SHA-256 signatures
// over raw messages, either through AWS KMS or with a local RSA key.
package signing

import "context"

// Signer signs and verifies raw messages with the key identified by keyID.
//
// Verify reports an invalid signature as (false, nil); an error means the
// check itself could not be performed.
type Signer interface {
	Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error)
	Verify(ctx context.Context, keyID string, msg, sig []byte) (bool, error)
}
