package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/democracy365/internal/common"
	"github.com/dmitrijs2005/democracy365/internal/dbx"
	"github.com/dmitrijs2005/democracy365/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT user_id, signin_code FROM sandbox.users
		 WHERE email_address = $1
		 `

	user := &models.User{EmailAddress: email}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.SigninCode)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.E(common.KindNotFound, "users.GetByEmail", nil)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetCredentials(ctx context.Context, userID int64) (*models.Credentials, error) {
	query :=
		`SELECT signin_code, signout_ts FROM sandbox.users
		 WHERE user_id = $1
		 `

	creds := &models.Credentials{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&creds.SigninCode, &creds.SignoutTS)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.Ef(common.KindNotFound, "users.GetCredentials", nil, "user_id=%d", userID)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return creds, nil
}

func (r *PostgresRepository) Create(ctx context.Context, email string) error {
	query := `CALL sandbox.insert_new_user(_email_address := $1)`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.E(common.KindDuplicateIdentity, "users.Create", err)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
