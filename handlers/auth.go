package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/juho05/paw-id/repos"
	"github.com/juho05/paw-id/services"
)

type userResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"emailConfirmed"`
}

func newUserResponse(user *repos.UserModel) userResponse {
	return userResponse{
		ID:             user.ID.String(),
		Name:           user.Name,
		Email:          user.Email,
		EmailConfirmed: user.EmailConfirmed,
	}
}

func (h *Handler) authSignUp(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Name     string `json:"name" validate:"required,notblank,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	user, err := h.AuthService.SignUp(r.Context(), body.Name, strings.ToLower(body.Email), body.Password)
	if err != nil {
		if errors.Is(err, repos.ErrDuplicateEmail) {
			respondError(w, ErrUserExists, http.StatusConflict, nil)
			return
		}
		if errors.Is(err, services.ErrNotificationFailed) {
			// The account was created, only the email failed.
			respond(w, http.StatusCreated, map[string]any{
				"user":                  newUserResponse(user),
				"verificationEmailSent": false,
			})
			return
		}
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"user":                  newUserResponse(user),
		"verificationEmailSent": true,
	})
}

func (h *Handler) authLogin(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Email    string `json:"email" validate:"required,email"`
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

	user, err := h.AuthService.Login(r.Context(), strings.ToLower(body.Email), body.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, newUserResponse(user))
}

func (h *Handler) authLogout(w http.ResponseWriter, r *http.Request) {
	err := h.AuthService.Logout(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) authVerifyEmail(w http.ResponseWriter, r *http.Request) {
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
	err = h.AuthService.VerifyEmail(r.Context(), userID, body.Code)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) authResendVerification(w http.ResponseWriter, r *http.Request) {
	userID := h.AuthService.AuthenticatedUserID(r.Context())
	user, err := h.UserService.Find(r.Context(), userID)
	if err != nil {
		serverError(w, err)
		return
	}
	if user.EmailConfirmed {
		badRequest(w)
		return
	}
	err = h.AuthService.SendVerificationEmail(r.Context(), user)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (h *Handler) authForgotPassword(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Email string `json:"email" validate:"required,email"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	err = h.AuthService.RequestPasswordReset(r.Context(), strings.ToLower(body.Email))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	// Responds identically whether or not an account exists.
	respond(w, http.StatusOK, nil)
}

func (h *Handler) authResetPassword(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody[struct {
		Token       string `json:"token" validate:"required,notblank"`
		NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
	}](r)
	if err != nil {
		badRequest(w)
		return
	}
	if fields := findInvalidFields(body); fields != nil {
		invalidFields(w, fields)
		return
	}

	err = h.AuthService.ResetPassword(r.Context(), body.Token, body.NewPassword)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}
