package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/democracy365/internal/common"
)

const procedureNameKey = "procedureName"

// Handlers contains the HTTP handlers.
type Handlers struct {
	signin CodeIssuer
	tokens TokenAuthority
	reads  Dispatcher
	writes Dispatcher
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{signin: d.Signin, tokens: d.Tokens, reads: d.Reads, writes: d.Writes}
}

// Health reports that the process is up.
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// IssueCode handles POST /signin/code.
func (h *Handlers) IssueCode(c *gin.Context) {
	var req struct {
		EmailAddress string `json:"emailAddress" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emailAddress is required"})
		return
	}

	id, err := h.signin.IssueCode(c.Request.Context(), req.EmailAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": id})
}

// MintToken handles POST /signin/token.
func (h *Handlers) MintToken(c *gin.Context) {
	var req struct {
		UserID     int64  `json:"userId" binding:"required"`
		SigninCode string `json:"signinCode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and signinCode are required"})
		return
	}

	token, err := h.tokens.Mint(c.Request.Context(), req.UserID, req.SigninCode)
	if err != nil {
		switch common.KindOf(err) {
		case common.KindNotFound, common.KindInvalidCredential:
			// Unknown user and wrong code must be indistinguishable.
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		default:
			respondError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"authToken": token})
}

// Authorize answers in the shape an API gateway authorizer expects. The
// auth middleware has already rejected invalid tokens.
func (h *Handlers) Authorize(c *gin.Context) {
	id, _ := userID(c)
	c.JSON(http.StatusOK, gin.H{
		"isAuthorized": true,
		"context":      gin.H{"userId": id},
	})
}

// Read handles GET /procedures. Query values are passed as text; a key
// given more than once becomes a text list.
func (h *Handlers) Read(c *gin.Context) {
	query := c.Request.URL.Query()
	name := query.Get(procedureNameKey)
	if name == "" {
		respondError(c, common.E(common.KindUnknownOperation, "http.Read", errors.New("procedureName is required")))
		return
	}

	declared := make(map[string]any, len(query))
	for key, values := range query {
		if key == procedureNameKey {
			continue
		}
		if len(values) == 1 {
			declared[key] = values[0]
		} else {
			declared[key] = values
		}
	}

	id, _ := userID(c)
	res, err := h.reads.Dispatch(c.Request.Context(), name, declared, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res.Rows)
}

// Write handles POST /procedures. The body is one JSON object carrying
// procedureName next to the declared parameters.
func (h *Handlers) Write(c *gin.Context) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		respondError(c, common.E(common.KindInvalidParameter, "http.Write", fmt.Errorf("decode body: %w", err)))
		return
	}

	name, _ := body[procedureNameKey].(string)
	if strings.TrimSpace(name) == "" {
		respondError(c, common.E(common.KindUnknownOperation, "http.Write", errors.New("procedureName is required")))
		return
	}
	delete(body, procedureNameKey)

	id, _ := userID(c)
	if _, err := h.writes.Dispatch(c.Request.Context(), name, body, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
