// Package http exposes the sign-in flow and the procedure gateway over
// HTTP using gin.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/democracy365/internal/logging"
	"github.com/dmitrijs2005/democracy365/internal/server/dispatch"
	"github.com/dmitrijs2005/democracy365/internal/server/services"
)

// CodeIssuer resolves a contact address to a user and sends their code.
type CodeIssuer interface {
	IssueCode(ctx context.Context, email string) (int64, error)
}

// TokenAuthority mints and verifies bearer tokens.
type TokenAuthority interface {
	Mint(ctx context.Context, userID int64, presentedCode string) (string, error)
	Verify(ctx context.Context, token string) services.Verdict
}

// Dispatcher runs named operations of one registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, declared map[string]any, userID int64) (*dispatch.Result, error)
}

// Deps are the services the router is built from.
type Deps struct {
	Signin CodeIssuer
	Tokens TokenAuthority
	Reads  Dispatcher
	Writes Dispatcher
	Logger logging.Logger
}

// SetupRouter sets up the gin engine with every route.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(d.Logger))

	h := NewHandlers(d)

	router.GET("/health", h.Health)

	signin := router.Group("/signin")
	{
		signin.POST("/code", h.IssueCode)
		signin.POST("/token", h.MintToken)
	}

	protected := router.Group("/")
	protected.Use(AuthMiddleware(d.Tokens))
	{
		protected.GET("/authorize", h.Authorize)
		protected.GET("/procedures", h.Read)
		protected.POST("/procedures", h.Write)
	}

	return router
}
