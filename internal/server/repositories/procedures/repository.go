package procedures

import (
	"context"

	"github.com/dmitrijs2005/democracy365/internal/server/models"
)

// Repository runs already-validated, parameterized statements on behalf of
// the dispatch gateway.
type Repository interface {
	Query(ctx context.Context, statement string, args ...any) ([]models.Row, error)
	Exec(ctx context.Context, statement string, args ...any) error
}
