package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// petProfile is the public lookup behind a scanned tag code.
func (h *Handler) petProfile(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	pet, err := h.PetService.Find(r.Context(), code)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, newPetResponse(pet))
}
