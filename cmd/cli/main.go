package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/juho05/log"

	"github.com/juho05/paw-id/config"
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

func setAdmin(userService services.UserService, args []string) error {
	if len(args) < 2 {
		fmt.Println("USAGE paw-id-cli set-admin <user_id|email> <true|false>")
		os.Exit(1)
	}
	admin, err := strconv.ParseBool(args[1])
	if err != nil {
		fmt.Println("USAGE paw-id-cli set-admin <user_id|email> <true|false>")
		return fmt.Errorf("invalid boolean: %w", err)
	}
	err = userService.SetAdmin(context.Background(), args[0], admin)
	if errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("user %s does not exist", args[0])
	}
	return err
}

func generateCodes(codeService services.CodeService, args []string) error {
	if len(args) == 0 {
		fmt.Println("USAGE paw-id-cli generate-codes <count>")
		os.Exit(1)
	}
	count, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("USAGE paw-id-cli generate-codes <count>")
		return fmt.Errorf("invalid count: %w", err)
	}
	codes, err := codeService.GenerateBatch(context.Background(), count)
	if err != nil {
		return err
	}
	for _, code := range codes {
		fmt.Println(code)
	}
	return nil
}

func run(args []string) error {
	db, err := connectDB()
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	userRepo := db.NewUserRepository()
	petRepo := db.NewPetRepository()
	codeRepo := db.NewCodeRepository()
	userService := services.NewUserService(userRepo, nil)
	codeService := services.NewCodeService(codeRepo, petRepo)
	if len(args) == 0 {
		fmt.Println(`USAGE paw-id-cli <command>
COMMANDS
		- set-admin <user_id|email> <true|false>
		- generate-codes <count>
		`)
		os.Exit(1)
	}
	switch args[0] {
	case "set-admin":
		err = setAdmin(userService, args[1:])
	case "generate-codes":
		err = generateCodes(codeService, args[1:])
	default:
		err = fmt.Errorf("unknown command: %s", args[0])
	}
	return err
}

func main() {
	godotenv.Load()

	log.SetSeverity(config.LogLevel())
	log.SetOutput(config.LogFile())

	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Println("Done.")
}
