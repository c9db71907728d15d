package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/eshop-auth/internal/gateway/errors"
	"github.com/pribylovaa/eshop-auth/internal/gateway/http/middleware"
	"github.com/pribylovaa/eshop-auth/internal/gateway/identity"
	"github.com/pribylovaa/eshop-auth/internal/gateway/models"
	authv1 "github.com/pribylovaa/eshop-auth/pkg/api/authv1"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.AuthRegisterRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	resp, err := h.Auth.Register(r.Context(), in.ToProto())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.AuthRegisterResponse{User: models.UserFromProto(resp.User)})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.AuthLoginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	resp, err := h.Auth.Login(r.Context(), in.ToProto())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := models.LoginFromProto(resp)
	h.setAccessCookie(w, out.AccessToken, out.AccessExpiresAt)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in models.AuthRefreshRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	resp, err := h.Auth.Refresh(r.Context(), in.ToProto())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := models.TokensFromProto(resp.Tokens)
	h.setAccessCookie(w, out.AccessToken, out.AccessExpiresAt)
	writeJSON(w, http.StatusOK, out)
}

// Logout отзывает refresh-токен и всегда стирает cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in models.AuthLogoutRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	h.clearAccessCookie(w)

	if _, err := h.Auth.Logout(r.Context(), in.ToProto()); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.OKResponse{Ok: true})
}

// Me отдаёт identity, проверенную TokenGuard, и профиль владельца токена.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.From(r.Context())
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrMissingToken)
		return
	}

	resp, err := h.Auth.Me(r.Context(), &authv1.MeRequest{AccessToken: middleware.TokenFrom(r, h.cookieName())})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := models.IdentityFromDomain(id)
	user := models.UserFromProto(resp.User)
	out.User = &user
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) AdminPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.OKResponse{Ok: true})
}

func (h *Handlers) cookieName() string {
	if !h.Cookie.Enabled {
		return ""
	}

	return h.Cookie.Name
}

func (h *Handlers) setAccessCookie(w http.ResponseWriter, token string, expires time.Time) {
	if !h.Cookie.Enabled || token == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   !h.Cookie.Insecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearAccessCookie(w http.ResponseWriter) {
	if !h.Cookie.Enabled {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.Cookie.Insecure,
		SameSite: http.SameSiteStrictMode,
	})
}
