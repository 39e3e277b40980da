package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"

	"github.com/juho05/log"

	pawid "github.com/juho05/paw-id"

	"github.com/juho05/paw-id/config"
	"github.com/juho05/paw-id/handlers"
	"github.com/juho05/paw-id/repos"
	"github.com/juho05/paw-id/repos/postgres"
	"github.com/juho05/paw-id/repos/sqlite"
	"github.com/juho05/paw-id/services"
)

func connectDB() (repos.DB, error) {
	switch config.DBProvider() {
	case "sqlite":
		return sqlite.Connect(config.DBConnection())
	case "postgres":
		return postgres.Connect(config.DBConnection())
	default:
		return nil, fmt.Errorf("unknown db provider: %s", config.DBProvider())
	}
}

func run() error {
	handler := handlers.NewHandler()

	db, err := connectDB()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	userRepo := db.NewUserRepository()
	tokenRepo := db.NewTokenRepository()
	petRepo := db.NewPetRepository()
	codeRepo := db.NewCodeRepository()
	rateLimitRepo := db.NewRateLimitRepository()

	handler.SessionManager = scs.New()
	handler.SessionManager.Store = db.NewSessionRepository()
	handler.SessionManager.Lifetime = 72 * time.Hour
	handler.SessionManager.IdleTimeout = 12 * time.Hour
	handler.SessionManager.Cookie.Secure = true

	emailService, err := services.NewEmailService(pawid.EmailFS)
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}
	rateLimitService := services.NewRateLimitService(rateLimitRepo)

	handler.AuthService = services.NewAuthService(userRepo, tokenRepo, handler.SessionManager, emailService, rateLimitService)
	handler.UserService = services.NewUserService(userRepo, handler.AuthService)
	handler.PetService = services.NewPetService(petRepo)
	handler.CodeService = services.NewCodeService(codeRepo, petRepo)

	handler.RegisterRoutes()

	port := config.Port()

	cert := config.TLSCert()
	key := config.TLSKey()

	addr := fmt.Sprintf(":%d", port)
	log.Infof("Listening on %s...", addr)

	if cert != "" && key != "" {
		return http.ListenAndServeTLS(addr, cert, key, handler)
	} else {
		return http.ListenAndServe(addr, handler)
	}
}

func main() {
	godotenv.Load()

	log.SetSeverity(config.LogLevel())
	log.SetOutput(config.LogFile())

	err := run()
	if err != nil {
		log.Fatalf("%s", err)
	}
}
