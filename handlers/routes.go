package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) registerMiddlewares() {
	h.Router.Use(recoverPanic)
	h.Router.Use(middleware.RealIP)
	h.Router.Use(middleware.RequestID)
	h.Router.Use(middleware.Timeout(60 * time.Second))
	h.Router.Use(logRequest)
	h.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
		MaxAge:           int((15 * time.Minute).Seconds()),
	}))
}

func (h *Handler) RegisterRoutes() {
	if h.Router == nil {
		h.Router = chi.NewRouter()
	}
	h.registerMiddlewares()

	h.Router.With(h.SessionManager.LoadAndSave).Route("/auth", h.authRoutes)
	h.Router.With(h.SessionManager.LoadAndSave).Route("/user", h.userRoutes)
	h.Router.With(h.SessionManager.LoadAndSave).Route("/codes", h.codeRoutes)
	h.Router.With(h.SessionManager.LoadAndSave).Route("/admin", h.adminRoutes)
	h.Router.Route("/pets", h.petRoutes)
}

func (h *Handler) authRoutes(r chi.Router) {
	r.With(rateLimit(10, time.Minute)).Post("/signup", h.authSignUp)
	r.With(rateLimit(10, time.Minute)).Post("/login", h.authLogin)
	r.Post("/logout", h.authLogout)
	r.With(h.auth).With(rateLimit(10, time.Minute)).Post("/verifyEmail", h.authVerifyEmail)
	r.With(h.auth).With(rateLimit(5, time.Minute)).Post("/resendVerification", h.authResendVerification)
	r.With(rateLimit(5, time.Minute)).Post("/forgotPassword", h.authForgotPassword)
	r.With(rateLimit(10, time.Minute)).Post("/resetPassword", h.authResetPassword)
}

func (h *Handler) userRoutes(r chi.Router) {
	r.Use(h.auth)
	r.Get("/", h.userProfile)
	r.Delete("/", h.userDelete)
	r.Get("/pets", h.userPets)
	r.Delete("/pets/{code}", h.userDeletePet)
	r.With(rateLimit(5, time.Minute)).Post("/email", h.userRequestEmailChange)
	r.With(rateLimit(10, time.Minute)).Post("/email/confirm", h.userConfirmEmailChange)
}

func (h *Handler) codeRoutes(r chi.Router) {
	r.With(rateLimit(30, time.Minute)).Get("/{code}", h.codeAvailability)
	r.With(h.auth).With(rateLimit(10, time.Minute)).Post("/{code}/claim", h.codeClaim)
}

func (h *Handler) petRoutes(r chi.Router) {
	r.With(rateLimit(30, time.Minute)).Get("/{code}", h.petProfile)
}

func (h *Handler) adminRoutes(r chi.Router) {
	r.Use(h.auth)
	r.Use(h.admin)
	r.Post("/codes", h.adminGenerateCodes)
}
