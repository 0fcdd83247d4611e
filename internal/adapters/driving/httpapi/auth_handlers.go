package httpapi

import (
	"net/http"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code,omitempty"`
}

type setupPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type meResponse struct {
	User        domain.User `json:"user"`
	Permissions []string    `json:"permissions"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	signIn, err := s.deps.Auth.Login(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSignIn(w, signIn)
}

func (s *Server) handleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Auth.RequestCode(r.Context(), req.Email, clientInfo(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (s *Server) handleVerifyCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	signIn, err := s.deps.Auth.VerifyCode(r.Context(), req.Email, req.Code, clientInfo(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondSignIn(w, signIn)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.cfg.CookieName); err == nil {
		if err := s.deps.Auth.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		User:        principal.User,
		Permissions: principal.PermissionStrings(),
	})
}

func (s *Server) handleSetupPassword(w http.ResponseWriter, r *http.Request) {
	var req setupPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Auth.CompleteSetup(r.Context(), req.Token, req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	principal := PrincipalFrom(r.Context())
	if err := s.deps.Auth.ChangePassword(r.Context(), principal, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondSignIn(w http.ResponseWriter, signIn *driving.SignIn) {
	s.setSessionCookie(w, signIn.Token, signIn.Session.ExpiresAt)
	principal := domain.Principal{
		User:        signIn.User,
		Permissions: s.deps.Auth.PermissionsFor(signIn.User.Role),
	}
	writeJSON(w, http.StatusOK, meResponse{
		User:        signIn.User,
		Permissions: principal.PermissionStrings(),
	})
}
