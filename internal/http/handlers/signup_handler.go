package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/http/response"
	"github.com/tixhive/auth-api/internal/service"
)

// SignupHandler serves the phone-verified signup flow and account recovery.
type SignupHandler struct {
	signup service.SignupService
}

func NewSignupHandler(signup service.SignupService) *SignupHandler {
	return &SignupHandler{signup: signup}
}

func (h *SignupHandler) RegisterPhone(w http.ResponseWriter, r *http.Request) {
	if !buyerOnly(w, r) {
		return
	}

	var req domain.RegisterPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess, err := h.signup.RegisterPhone(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{"session_id": sess.ID})
}

func (h *SignupHandler) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	if !buyerOnly(w, r) {
		return
	}

	var req domain.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess, err := h.signup.VerifyPhone(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"verified":   sess.IsUsed,
	})
}

func (h *SignupHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !buyerOnly(w, r) {
		return
	}

	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.signup.Signup(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"token":             result.Token,
		"user":              result.User.ToUserInfo(),
		"wallet_public_key": result.WalletPublicKey,
	})
}

func (h *SignupHandler) CreateRecoveryCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathRole(w, r); !ok {
		return
	}

	var req domain.RegisterPhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	sess, err := h.signup.CreateRecoveryCode(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{"session_id": sess.ID})
}

func (h *SignupHandler) VerifyRecoveryCode(w http.ResponseWriter, r *http.Request) {
	if _, ok := pathRole(w, r); !ok {
		return
	}

	var req domain.VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.signup.VerifyRecoveryCode(r.Context(), &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	writeAuthResult(w, result)
}

func buyerOnly(w http.ResponseWriter, r *http.Request) bool {
	role, ok := pathRole(w, r)
	if !ok {
		return false
	}
	if role != domain.RoleBuyer {
		response.Forbidden(w, "this flow is for buyers")
		return false
	}
	return true
}
