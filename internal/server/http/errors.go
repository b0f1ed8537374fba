package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/democracy365/internal/common"
)

const errInvalidCredentials = "invalid credentials"

// statusFor maps the most specific error kind in err's chain to a status.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindInvalidCredential, common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindDuplicateIdentity:
		return http.StatusConflict
	case common.KindUnknownOperation, common.KindInvalidParameter:
		return http.StatusBadRequest
	case common.KindOperationFailed:
		return http.StatusUnprocessableEntity
	case common.KindNotificationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
