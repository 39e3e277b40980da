package handlers

import (
	"net/http"
)

func (h *Handler) adminGenerateCodes(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Count int `json:"count" validate:"required,min=1,max=10000"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	codes, err := h.CodeService.GenerateBatch(r.Context(), body.Count)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"codes": codes,
	})
}
