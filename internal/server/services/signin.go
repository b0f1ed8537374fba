// Package services contains server-side business logic. This file implements
// SigninService, which resolves a contact address to a user (creating the
// user on first contact) and sends the user's one-time sign-in code.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/models"
	"github.com/dmitrijs2005/democracy365/internal/server/notify"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/democracy365/internal/server/repositories/users"
)

type SigninService struct {
	conn        dbx.Acquirer
	repomanager repomanager.RepositoryManager
	notifier    notify.Notifier
	logger      logging.Logger
}

func NewSigninService(conn dbx.Acquirer, m repomanager.RepositoryManager, n notify.Notifier, l logging.Logger) *SigninService {
	return &SigninService{
		conn:        conn,
		repomanager: m,
		notifier:    n,
		logger:      l.With("module", "signin_service"),
	}
}

// normalizeEmail trims and lowercases an address and rejects anything that
// is not a bare RFC 5322 address.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("email address is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("invalid email address %q", email)
	}
	return email, nil
}

// IssueCode returns the id of the user owning email and sends them their
// sign-in code. Unknown addresses are registered first and get a welcome
// message instead. The code itself is never returned.
//
// A notifier failure yields common.ErrNotificationFailed; a user created
// before the failure is kept, so retrying resolves to the same id.
func (s *SigninService) IssueCode(ctx context.Context, email string) (int64, error) {
	const op = "signin.IssueCode"

	email, err := normalizeEmail(email)
	if err != nil {
		return 0, common.E(common.KindInvalidParameter, op, err)
	}

	db, err := s.conn.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}

	var (
		user    *models.User
		created bool
	)
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, created, err = s.fetchOrCreate(ctx, email, s.repomanager.Users(tx))
		return err
	})
	if errors.Is(err, common.ErrDuplicateIdentity) {
		// A concurrent caller committed the row first; our transaction is
		// already rolled back, so read the winner's row from the pool.
		user, err = s.repomanager.Users(db).GetByEmail(ctx, email)
		created = false
	}
	if err != nil {
		return 0, err
	}

	var msg notify.Message
	if created {
		msg, err = notify.WelcomeMessage(email, user.SigninCode)
	} else {
		msg, err = notify.SigninCodeMessage(email, user.SigninCode)
	}
	if err != nil {
		return 0, common.E(common.KindNotificationFailed, op, err)
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "sign-in code not delivered", "user_id", user.ID, "error", err)
		return 0, common.E(common.KindNotificationFailed, op, err)
	}

	s.logger.Info(ctx, "sign-in code issued", "user_id", user.ID, "new_user", created)
	return user.ID, nil
}

// fetchOrCreate looks the user up and inserts it when absent, reading the
// new row back through the same handle. A duplicate insert is returned as
// common.ErrDuplicateIdentity for the caller to resolve.
func (s *SigninService) fetchOrCreate(ctx context.Context, email string, repo users.Repository) (*models.User, bool, error) {
	user, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, false, err
	}

	if err := repo.Create(ctx, email); err != nil {
		return nil, false, err
	}

	user, err = repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
