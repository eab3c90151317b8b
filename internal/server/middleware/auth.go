package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/strandhq/strand/internal/server/biz"
)

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", errors.New("authorization header must be a bearer token")
	}

	return token, nil
}

// WithJWTAuth authenticates the request, installs the user into the carrier
// and derives the active account and workspace from the user's current
// workspace pointer.
func WithJWTAuth(auth *biz.AuthService, identity *biz.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		user, err := auth.AuthenticateJWTToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, biz.ErrInvalidJWT) {
				AbortWithError(c, http.StatusUnauthorized, errors.New("invalid token"))
			} else {
				AbortWithError(c, http.StatusInternalServerError, errors.New("failed to validate token"))
			}

			return
		}

		ctx := identity.InstallUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// WithWorkspace honors an X-Workspace-ID header override after a membership
// check. The override lives for this request only.
func WithWorkspace(identity *biz.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := c.GetHeader("X-Workspace-ID")
		if workspaceID == "" {
			c.Next()
			return
		}

		ctx, err := identity.ActivateWorkspace(c.Request.Context(), workspaceID)
		if err != nil {
			if errors.Is(err, biz.ErrNotAuthorized) {
				AbortWithError(c, http.StatusForbidden, errors.New("no access to workspace"))
			} else {
				AbortWithError(c, http.StatusBadRequest, fmt.Errorf("invalid workspace: %w", err))
			}

			return
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
