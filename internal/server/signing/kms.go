package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// KMSAPI is the subset of *kms.Client used by KMSSigner.
type KMSAPI interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	Verify(ctx context.Context, params *kms.VerifyInput, optFns ...func(*kms.Options)) (*kms.VerifyOutput, error)
}

// KMSSigner signs with an asymmetric KMS key; the private key never leaves KMS.
type KMSSigner struct {
	client KMSAPI
}

func NewKMSSigner(client KMSAPI) *KMSSigner {
	return &KMSSigner{client: client}
}

func (s *KMSSigner) Sign(ctx context.Context, keyID string, msg []byte) ([]byte, error) {
	out, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(keyID),
		Message:          msg,
		MessageType:      types.MessageTypeRaw,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
	})
	if err != nil {
		return nil, fmt.Errorf("kms sign: %w", err)
	}
	return out.Signature, nil
}

func (s *KMSSigner) Verify(ctx context.Context, keyID string, msg, sig []byte) (bool, error) {
	out, err := s.client.Verify(ctx, &kms.VerifyInput{
		KeyId:            aws.String(keyID),
		Message:          msg,
		MessageType:      types.MessageTypeRaw,
		Signature:        sig,
		SigningAlgorithm: types.SigningAlgorithmSpecRsassaPkcs1V15Sha256,
	})
	if err != nil {
		var invalid *types.KMSInvalidSignatureException
		if errors.As(err, &invalid) {
			return false, nil
		}
		return false, fmt.Errorf("kms verify: %w", err)
	}
	return out.SignatureValid, nil
}
