package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/auth"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/democracy365/internal/server/signing"
)

// Verdict is the outcome of token verification. UserID is set only when
// Authorized is true.
type Verdict struct {
	Authorized bool
	UserID     int64
}

// TokenService mints bearer tokens for users presenting a valid sign-in code
// and verifies them statelessly on every request.
type TokenService struct {
	conn        dbx.Acquirer
	repomanager repomanager.RepositoryManager
	signer      signing.Signer
	keyID       string
	logger      logging.Logger
}

func NewTokenService(conn dbx.Acquirer, m repomanager.RepositoryManager, s signing.Signer, keyID string, l logging.Logger) *TokenService {
	return &TokenService{
		conn:        conn,
		repomanager: m,
		signer:      s,
		keyID:       keyID,
		logger:      l.With("module", "token_service"),
	}
}

// Mint checks presentedCode against the user's current sign-in code and
// returns a token bound to that code and the user's sign-out timestamp.
// Every failure is a common.ErrMintFailed; the cause (common.ErrNotFound,
// common.ErrInvalidCredential or a signer error) stays in the chain.
func (s *TokenService) Mint(ctx context.Context, userID int64, presentedCode string) (string, error) {
	const op = "tokens.Mint"

	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return "", common.E(common.KindMintFailed, op, fmt.Errorf("acquire connection: %w", err))
	}

	creds, err := s.repomanager.Users(db).GetCredentials(ctx, userID)
	if err != nil {
		return "", common.E(common.KindMintFailed, op, err)
	}

	if subtle.ConstantTimeCompare([]byte(creds.SigninCode), []byte(presentedCode)) != 1 {
		return "", common.E(common.KindMintFailed, op, common.Ef(common.KindInvalidCredential, op, nil, "user_id=%d", userID))
	}

	sig, err := s.signer.Sign(ctx, s.keyID, auth.SignedMessage(creds.SigninCode, creds.SignoutTS))
	if err != nil {
		return "", common.E(common.KindMintFailed, op, err)
	}

	s.logger.Info(ctx, "token minted", "user_id", userID)
	return auth.FormatToken(userID, sig), nil
}

// Verify decides whether token is currently valid. It never fails: any
// problem, including an unreachable store or signer, is an unauthorized
// verdict and is logged.
func (s *TokenService) Verify(ctx context.Context, token string) Verdict {
	userID, sig, err := auth.ParseToken(token)
	if err != nil {
		s.logger.Debug(ctx, "rejecting malformed token")
		return Verdict{}
	}

	db, err := s.conn.Acquire(ctx)
	if err != nil {
		s.logger.Error(ctx, "verify: store unavailable", "error", err)
		return Verdict{}
	}

	creds, err := s.repomanager.Users(db).GetCredentials(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.logger.Warn(ctx, "verify: unknown user", "user_id", userID)
		} else {
			s.logger.Error(ctx, "verify: credentials lookup failed", "user_id", userID, "error", err)
		}
		return Verdict{}
	}

	ok, err := s.signer.Verify(ctx, s.keyID, auth.SignedMessage(creds.SigninCode, creds.SignoutTS), sig)
	if err != nil {
		s.logger.Error(ctx, "verify: signer failed", "user_id", userID, "error", err)
		return Verdict{}
	}
	if !ok {
		s.logger.Warn(ctx, "verify: invalid signature", "user_id", userID)
		return Verdict{}
	}

	return Verdict{Authorized: true, UserID: userID}
}
