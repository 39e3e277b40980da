package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/juho05/paw-id/repos"
)

type petResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

func newPetResponse(pet *repos.PetModel) petResponse {
	return petResponse{
		Code:      pet.ID,
		Name:      pet.Name,
		CreatedAt: pet.CreatedAt.Unix(),
	}
}

func (h *Handler) userProfile(w http.ResponseWriter, r *http.Request) {
	userID := h.AuthService.AuthenticatedUserID(r.Context())
	user, err := h.UserService.Find(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	respond(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) userPets(w http.ResponseWriter, r *http.Request) {
	userID := h.AuthService.AuthenticatedUserID(r.Context())
	pets, err := h.PetService.FindByOwner(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	res := make([]petResponse, len(pets))
	for i, p := range pets {
		res[i] = newPetResponse(p)
	}
	respond(w, http.StatusOK, res)
}

func (h *Handler) userDelete(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Password string `json:"password" validate:"required"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	userID := h.AuthService.AuthenticatedUserID(r.Context())
	err = h.UserService.Delete(r.Context(), userID, body.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	err = h.AuthService.Logout(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) userDeletePet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	userID := h.AuthService.AuthenticatedUserID(r.Context())
	err := h.PetService.Delete(r.Context(), code, userID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) userRequestEmailChange(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		NewEmail string `json:"newEmail" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	userID := h.AuthService.AuthenticatedUserID(r.Context())
	err = h.AuthService.RequestEmailChange(r.Context(), userID, strings.ToLower(body.NewEmail), body.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) userConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Code string `json:"code" validate:"required,len=6,number"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	userID := h.AuthService.AuthenticatedUserID(r.Context())
	err = h.AuthService.ConfirmEmailChange(r.Context(), userID, body.Code)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	user, err := h.UserService.Find(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	respond(w, http.StatusOK, newUserResponse(user))
}
