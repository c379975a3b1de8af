// Package middleware holds the HTTP middleware shared across routes.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"resportal/pkg/requestcontext"
)

// memberClaims are the claims this service reads from the portal's session
// token. The username travels in the standard subject claim.
type memberClaims struct {
	jwt.RegisteredClaims
}

// RequireMember validates the bearer token and injects the member username,
// the request id, and the request time into the context so downstream code
// is free of net/http. Requests without a valid token get 401.
func RequireMember(signingKey []byte, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims := &memberClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid || claims.Subject == "" {
				log.Debug("rejected bearer token", zap.Error(err))
				unauthorized(w, "invalid bearer token")
				return
			}

			ctx := requestcontext.WithMember(r.Context(), claims.Subject)
			ctx = requestcontext.WithTime(ctx, time.Now())
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				ctx = requestcontext.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
