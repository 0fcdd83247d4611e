package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
	"github.com/zmg-ops/zmg-management/internal/core/ports/driving"
	"github.com/zmg-ops/zmg-management/internal/logger"
)

type createUserRequest struct {
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          domain.Role `json:"role"`
	SendSetupLink bool        `json:"send_setup_link,omitempty"`
}

type createUserResponse struct {
	User      domain.User        `json:"user"`
	SetupLink *driving.SetupLink `json:"setup_link,omitempty"`
}

type updateUserRequest struct {
	Role   *domain.Role `json:"role,omitempty"`
	Active *bool        `json:"active,omitempty"`
}

type setupLinkRequest struct {
	Purpose domain.TokenPurpose `json:"purpose,omitempty"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := s.deps.Users.Create(r.Context(), req.Email, req.Name, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("http: %s created user %s", PrincipalFrom(r.Context()).User.Email, user.Email)

	resp := createUserResponse{User: *user}
	if req.SendSetupLink {
		link, err := s.deps.Auth.IssueSetupToken(r.Context(), user.Email, domain.PurposePasswordSetup)
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.SetupLink = link
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Role == nil && req.Active == nil {
		writeError(w, r, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput))
		return
	}

	caller := PrincipalFrom(r.Context())
	if id == caller.User.ID && req.Active != nil && !*req.Active {
		writeError(w, r, fmt.Errorf("%w: you cannot deactivate yourself", domain.ErrInvalidInput))
		return
	}

	var (
		user *domain.User
		err  error
	)
	if req.Role != nil {
		if user, err = s.deps.Users.UpdateRole(r.Context(), id, *req.Role); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Active != nil {
		if user, err = s.deps.Users.SetActive(r.Context(), id, *req.Active); err != nil {
			writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleSetupLink(w http.ResponseWriter, r *http.Request) {
	user, err := s.deps.Users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := setupLinkRequest{}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.Purpose == "" {
		req.Purpose = domain.PurposePasswordSetup
		if user.HasPassword() {
			req.Purpose = domain.PurposePasswordReset
		}
	}

	link, err := s.deps.Auth.IssueSetupToken(r.Context(), user.Email, req.Purpose)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
