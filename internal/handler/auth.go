package handler

import (
	"errors"
	"net/http"

	"github.com/TooLazyToCreate/bucketlist/internal/service"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type loginResponse struct {
	Message   string `json:"message"`
	AuthToken string `json:"auth_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, req *http.Request) {
	var in credentialsRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}

	user, err := h.auth.Register(req.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			writeMessage(w, http.StatusConflict, "User already exists. Please Log in.")
			return
		}
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		ID:      user.ID,
		Email:   user.Email,
		Message: "Successfully registered.",
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, req *http.Request) {
	var in credentialsRequest
	if err := decodeJSON(req, &in); err != nil {
		h.badJSON(w, req, err)
		return
	}

	session, err := h.auth.Login(req.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.Info("Failed login", zap.String("ip", req.RemoteAddr))
		}
		h.writeError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Successfully logged in.",
		AuthToken: session.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(session.ExpiresAt.Sub(session.IssuedAt).Seconds()),
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())
	if err := h.auth.Logout(req.Context(), id); err != nil {
		h.writeError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully logged out.")
}

func (h *Handler) HandleDeleteAccount(w http.ResponseWriter, req *http.Request) {
	id, _ := IdentityFrom(req.Context())
	if err := h.auth.DeleteAccount(req.Context(), id); err != nil {
		h.writeError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "Account deleted.")
}
