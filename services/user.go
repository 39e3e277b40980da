package services

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type UserService interface {
	Find(ctx context.Context, id ulid.ULID) (*repos.UserModel, error)
	// SetAdmin accepts either a user ID or an email address.
	SetAdmin(ctx context.Context, identifier string, admin bool) error
	Delete(ctx context.Context, id ulid.ULID, password string) error
}

type userService struct {
	userRepo    repos.UserRepository
	authService AuthService
}

func NewUserService(userRepository repos.UserRepository, authService AuthService) UserService {
	return &userService{
		userRepo:    userRepository,
		authService: authService,
	}
}

func (u *userService) Find(ctx context.Context, id ulid.ULID) (*repos.UserModel, error) {
	return u.userRepo.Find(ctx, id)
}

func (u *userService) SetAdmin(ctx context.Context, identifier string, admin bool) error {
	userID, err := ulid.Parse(identifier)
	if err != nil {
		user, err := u.userRepo.FindByEmail(ctx, identifier)
		if err != nil {
			return fmt.Errorf("set admin: %w", err)
		}
		userID = user.ID
	}
	err = u.userRepo.UpdateAdminStatus(ctx, userID, admin)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

func (u *userService) Delete(ctx context.Context, id ulid.ULID, password string) error {
	if err := u.authService.VerifyPasswordByID(ctx, id, password); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	err := u.userRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
