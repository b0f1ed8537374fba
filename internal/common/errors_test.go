package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := Ef(KindNotFound, "users.GetByID", nil, "user_id=%d", 7)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidCredential))
}

func TestError_IsWalksWrappedChain(t *testing.T) {
	inner := E(KindInvalidCredential, "tokens.Mint", nil)
	outer := E(KindMintFailed, "tokens.Mint", inner)
	wrapped := fmt.Errorf("handler: %w", outer)

	assert.True(t, errors.Is(wrapped, ErrMintFailed))
	assert.True(t, errors.Is(wrapped, ErrInvalidCredential))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: KindUnknownOperation}, "unknown operation"},
		{"with op", &Error{Kind: KindNotFound, Op: "users.Get"}, "users.Get: not found"},
		{"with detail and cause", &Error{Kind: KindOperationFailed, Op: "dispatch", Detail: "DELEGATE", Err: errors.New("boom")},
			"dispatch: operation failed: DELEGATE: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("db down")
	err := E(KindOperationFailed, "dispatch", cause)

	require.ErrorIs(t, err, cause)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	nested := E(KindMintFailed, "mint", E(KindNotFound, "repo", nil))
	assert.Equal(t, KindNotFound, KindOf(nested))
	assert.Equal(t, KindMintFailed, KindOf(E(KindMintFailed, "mint", errors.New("kms"))))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "duplicate identity", KindDuplicateIdentity.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
