package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) codeAvailability(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	status, err := h.CodeService.CheckAvailability(r.Context(), code)
	if err != nil {
		serverError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"status": status,
	})
}

func (h *Handler) codeClaim(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		PetName string `json:"petName" validate:"required,notblank,max=100"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	code := chi.URLParam(r, "code")
	userID := h.AuthService.AuthenticatedUserID(r.Context())
	pet, err := h.CodeService.Claim(r.Context(), code, userID, body.PetName)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, newPetResponse(pet))
}
