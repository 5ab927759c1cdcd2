package httpapi

import (
	"errors"
	"net/http"
	"time"

	"advocacia.app/internal/audit"
	"advocacia.app/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type verifyResponse struct {
	Valid bool         `json:"valid"`
	User  *auth.Claims `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	session, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "Usuário e senha são obrigatórios")
		case errors.Is(err, auth.ErrUnauthorized):
			_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
				"username":  req.Username,
				"remote_ip": clientIP(r),
			})
			writeError(w, r, http.StatusUnauthorized, "Usuário ou senha inválidos")
		default:
			internalError(w, r, err)
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":    session.User.ID,
		"username":   session.User.Username,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, session)
}

// handleLogout only confirms: tokens are stateless and expire on their own.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout realizado com sucesso"})
}

func (a *API) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Token não fornecido")
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, User: claims})
}
