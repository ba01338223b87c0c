package httpx

import (
	"net/http"

	"github.com/brail/marketplace/internal/marketplace/core/domain/entity"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	u, err := h.auth.Register(r.Context(), entity.Registration{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		CNPJ:           req.CNPJ,
		Phone:          req.Phone,
		EmployeeCount:  req.EmployeeCount,
		MonthlyRevenue: req.MonthlyRevenue,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUser(u))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		fail(w, r, err)
		return
	}

	sess, u, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: mapUser(u)})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFrom(r.Context())
	u, err := h.auth.User(r.Context(), sess.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(u))
}
