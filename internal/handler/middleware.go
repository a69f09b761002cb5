package handler

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/TooLazyToCreate/bucketlist/internal/service"
	"go.uber.org/zap"
)

type identityKey struct{}

func withIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity Authenticate attached to the request.
func IdentityFrom(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(service.Identity)
	return id, ok
}

// Authenticate lets a request through only with a valid bearer token.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id, err := h.gate.Authenticate(req.Context(), req.Header.Get("Authorization"))
		if err != nil {
			var authErr *service.AuthError
			if errors.As(err, &authErr) {
				h.logger.Info("Request rejected", zap.Error(authErr.Cause), zap.String("ip", req.RemoteAddr))
			}
			h.writeError(w, req, err)
			return
		}
		next.ServeHTTP(w, req.WithContext(withIdentity(req.Context(), id)))
	})
}

// StripPort leaves only the host in RemoteAddr so logs carry a bare ip.
func StripPort(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
			req.RemoteAddr = host
		}
		next.ServeHTTP(w, req)
	})
}

func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Debug("Request to "+req.RequestURI, zap.String("method", req.Method), zap.String("ip", req.RemoteAddr))
			next.ServeHTTP(w, req)
		})
	}
}
