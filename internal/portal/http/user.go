package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// UserAppsProvider computes the applications visible to a user.
type UserAppsProvider interface {
	UserApps(ctx context.Context, userID string) (domain.UserApps, error)
}

// UserHandler godoc
//
//	@Summary		Current user
//	@Description	Returns the ID token claims of the logged in user verbatim
//	@Tags			User
//	@Produce		json
//	@Success		200	{object}	map[string]any
//	@Failure		302	"redirect to /login when there is no session"
//	@Router			/api/user [get].
func UserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteInternalError(w)
		return
	}

	claims := p.Claims
	if claims == nil {
		claims = map[string]any{}
	}
	httpx.WriteJSON(w, http.StatusOK, claims)
}

// UserAppsHandler serves GET /api/user-apps.
type UserAppsHandler struct {
	Apps UserAppsProvider
}

// ServeHTTP godoc
//
//	@Summary		Applications visible to the current user
//	@Description	Lists the non-administrative applications the user may open, either global or granted through a permission,
//	@Description	together with the user's linked identity connections. Upstream read failures degrade to empty lists.
//	@Tags			User
//	@Produce		json
//	@Success		200	{object}	domain.UserApps
//	@Failure		302	"redirect to /login when there is no session"
//	@Failure		500	{object}	httpx.ErrorResponse
//	@Router			/api/user-apps [get].
func (h *UserAppsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	out, err := h.Apps.UserApps(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		if !errors.Is(err, service.ErrTokenUnavailable) {
			slogx.FromContext(ctx).Error("failed to fetch user apps", "error", err)
		}
		httpx.WriteInternalError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
