package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/http/response"
	"github.com/tixhive/auth-api/internal/service"
)

// AuthHandler serves the signin surfaces: username availability, wallet
// signin, password signin, and the passwordless login-code pair. Routes are
// mounted under /{role}; the path role scopes what each endpoint allows.
type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathRole(w, r); !ok {
		return
	}

	var req domain.CheckUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	available, err := h.Auth.CheckUsername(r.Context(), req.Username)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	if role != domain.RoleSeller {
		response.Forbidden(w, "wallet signin is for sellers")
		return
	}

	var req domain.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.Auth.SigninWithWallet(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func (h *AuthHandler) SigninPassword(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	if role == domain.RoleBuyer {
		response.Forbidden(w, "password signin is for sellers and admins")
		return
	}

	var req domain.SigninPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.Auth.SigninWithPassword(r.Context(), role, &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func (h *AuthHandler) CreateLoginCode(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	if role != domain.RoleBuyer {
		response.Forbidden(w, "login codes are for buyers")
		return
	}

	sess, err := h.Auth.CreateLoginCode(r.Context())
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"session_id": sess.ID,
		"code":       sess.Code,
		"expires_at": sess.ExpiresAt,
	})
}

func (h *AuthHandler) VerifyLoginCode(w http.ResponseWriter, r *http.Request) {
	role, ok := pathRole(w, r)
	if !ok {
		return
	}
	if role != domain.RoleBuyer {
		response.Forbidden(w, "login codes are for buyers")
		return
	}

	var req domain.VerifyLoginCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.Auth.VerifyLoginCode(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	writeAuthResult(w, result)
}

// pathRole parses the {role} path parameter, rejecting the request itself
// when it does not name a known role.
func pathRole(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	role, err := domain.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		response.BadRequest(w, "unknown role")
		return 0, false
	}
	return role, true
}

func writeAuthResult(w http.ResponseWriter, result *service.AuthResult) {
	payload := map[string]any{
		"token": result.Token,
		"user":  result.User.ToUserInfo(),
	}
	if result.WalletPublicKey != "" {
		payload["wallet_public_key"] = result.WalletPublicKey
	}
	response.WriteJSON(w, http.StatusOK, payload)
}
