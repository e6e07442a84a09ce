package handlers

import (
	"net/http"

	"portfolio-backend/internal/profile"
)

type ProfileHandler struct {
	profile *profile.Profile
}

func NewProfileHandler(p *profile.Profile) *ProfileHandler {
	return &ProfileHandler{profile: p}
}

// Get serves the public profile facts. The persona prompt is never exposed.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profile)
}
