package api

import (
	"context"
	"net/http"

	"github.com/okian/decktube/internal/adapters/repository"
)

// ProfileDependencies defines the interface for the caller's profile.
type ProfileDependencies interface {
	Profile(ctx context.Context, userID string) (repository.Profile, error)
	SaveProfile(ctx context.Context, p repository.Profile) (repository.Profile, error)
}

// ProfileHandler handles profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

type profileRequest struct {
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// HandleProfile handles GET and PUT /api/profile requests.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := h.deps.Profile(r.Context(), uid)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var req profileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeDomainError(w, err)
			return
		}
		p, err := h.deps.SaveProfile(r.Context(), repository.Profile{
			ID:        uid,
			Email:     req.Email,
			FullName:  req.FullName,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut)
	}
}
