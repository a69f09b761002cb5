// Package handler maps the bucketlist API onto the auth and bucketlist
// services.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/TooLazyToCreate/bucketlist/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	APIPrefix = "/bucketlist/api/v1.0"

	maxBodyBytes = 1 << 20
)

type Handler struct {
	logger *zap.Logger
	auth   *service.AuthService
	gate   *service.Gate
	lists  *service.BucketlistService
}

func NewHandler(logger *zap.Logger, auth *service.AuthService, gate *service.Gate, lists *service.BucketlistService) *Handler {
	return &Handler{
		logger: logger,
		auth:   auth,
		gate:   gate,
		lists:  lists,
	}
}

// Routes mounts every endpoint under APIPrefix.
func (h *Handler) Routes(router chi.Router) {
	router.Route(APIPrefix, func(r chi.Router) {
		r.Post("/auth/register", h.HandleRegister)
		r.Post("/auth/login", h.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/auth/logout", h.HandleLogout)
			r.Delete("/auth/account", h.HandleDeleteAccount)

			r.Post("/bucketlists/", h.HandleCreateBucketlist)
			r.Get("/bucketlists/", h.HandleListBucketlists)
			r.Get("/bucketlists/{id}", h.HandleGetBucketlist)
			r.Put("/bucketlists/{id}", h.HandleRenameBucketlist)
			r.Delete("/bucketlists/{id}", h.HandleDeleteBucketlist)

			r.Post("/bucketlists/{id}/items/", h.HandleCreateItem)
			r.Get("/bucketlists/{id}/items/", h.HandleListItems)
			r.Put("/bucketlists/{id}/items/{item_id}", h.HandleUpdateItem)
			r.Delete("/bucketlists/{id}/items/{item_id}", h.HandleDeleteItem)
		})
	})
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// decodeJSON rejects bodies that are not a single JSON value.
func decodeJSON(req *http.Request, v any) error {
	defer req.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

func (h *Handler) badJSON(w http.ResponseWriter, req *http.Request, err error) {
	h.logger.Debug("Bad request", zap.Error(err), zap.String("ip", req.RemoteAddr))
	writeMessage(w, http.StatusBadRequest, "Request body must be valid JSON")
}

// writeError is the one place service errors become status codes. Someone
// else's list is answered exactly like a missing one.
func (h *Handler) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var authErr *service.AuthError
	var inputErr *service.InputError
	switch {
	case errors.As(err, &authErr):
		writeMessage(w, http.StatusUnauthorized, authErr.Reason)
	case errors.As(err, &inputErr):
		writeMessage(w, http.StatusBadRequest, inputErr.Reason)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Wrong email or password")
	case errors.Is(err, service.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "Already exists")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, service.ErrRevocationDisabled):
		writeMessage(w, http.StatusNotImplemented, "Logout is not available on this server")
	default:
		h.logger.Error("Request failed", zap.Error(err),
			zap.String("ip", req.RemoteAddr),
			zap.String("uri", req.RequestURI))
		writeMessage(w, http.StatusInternalServerError, "Some error occurred. Please try again.")
	}
}
