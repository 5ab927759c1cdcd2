package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"advocacia.app/internal/auth"
)

const (
	authHeader   = "Authorization"
	bearerScheme = "Bearer"
)

var (
	errMissingToken  = errors.New("missing bearer token")
	errInvalidScheme = errors.New("invalid authorization scheme")
)

// requireAuth admits requests with a valid bearer token and stores its claims
// in the context. No token is 401; an unusable token is 403.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			if errors.Is(err, errMissingToken) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="advocacia"`)
				writeError(w, r, http.StatusUnauthorized, "Token não fornecido")
				return
			}
			writeError(w, r, http.StatusForbidden, "Token inválido")
			return
		}

		claims, err := a.auth.Verify(token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				internalError(w, r, err)
				return
			}
			writeError(w, r, http.StatusForbidden, "Token inválido")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
	})
}

// extractBearerToken accepts "Bearer <token>" with any scheme case. A bare
// "Bearer" counts as no token at all.
func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingToken
	}
	scheme, rest, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, bearerScheme) {
		return "", errInvalidScheme
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}
