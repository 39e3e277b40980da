package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/juho05/paw-id/services"
)

type Handler struct {
	Router         chi.Router
	SessionManager *scs.SessionManager

	AuthService services.AuthService
	UserService services.UserService
	PetService  services.PetService
	CodeService services.CodeService
}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Router.ServeHTTP(w, r)
}
