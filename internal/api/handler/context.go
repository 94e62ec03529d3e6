package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// ctxSession builds the sync session from the claims injected by the Auth
// middleware and performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - user_id must be present; without it the token cannot own a presence
//     entry or a log row.
func ctxSession(c echo.Context) (domain.Session, error) {
	role, _ := c.Get("role").(string)
	if role == "" {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return domain.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}

	tier, _ := c.Get("tier").(string)
	displayName, _ := c.Get("display_name").(string)
	return domain.Session{
		UserID:      userID,
		DisplayName: displayName,
		Role:        domain.Role(role),
		Tier:        domain.Tier(tier),
	}, nil
}
