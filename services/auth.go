package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/alexedwards/scs/v2"
	"github.com/oklog/ulid/v2"
	"github.com/xdg-go/pbkdf2"

	"github.com/juho05/log"

	"github.com/juho05/paw-id/config"
	"github.com/juho05/paw-id/repos"
)

const (
	tokenLifetime     = 1 * time.Hour
	resendMinInterval = 15 * time.Minute
)

type AuthService interface {
	SignUp(ctx context.Context, name, email, password string) (*repos.UserModel, error)
	Login(ctx context.Context, email, password string) (*repos.UserModel, error)
	Logout(ctx context.Context) error
	AuthenticatedUserID(ctx context.Context) ulid.ULID

	SendVerificationEmail(ctx context.Context, user *repos.UserModel) error
	VerifyEmail(ctx context.Context, userID ulid.ULID, code string) error

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	RequestEmailChange(ctx context.Context, userID ulid.ULID, newEmail, password string) error
	ConfirmEmailChange(ctx context.Context, userID ulid.ULID, code string) error

	HashPassword(password string) ([]byte, error)
	VerifyPasswordByID(ctx context.Context, id ulid.ULID, password string) error
}

type AuthUserIDCtxKey struct{}

func init() {
	buf := make([]byte, 1)

	_, err := io.ReadFull(rand.Reader, buf)
	if err != nil {
		log.Fatalf("crypto/rand is unavailable: Read() failed with %#v", err)
	}

	gob.Register(ulid.ULID{})
}

type authService struct {
	userRepo         repos.UserRepository
	tokenRepo        repos.TokenRepository
	sessionManager   *scs.SessionManager
	emailService     EmailService
	rateLimitService RateLimitService
}

func NewAuthService(userRepository repos.UserRepository, tokenRepository repos.TokenRepository, sessionManager *scs.SessionManager, emailService EmailService, rateLimitService RateLimitService) AuthService {
	return &authService{
		userRepo:         userRepository,
		tokenRepo:        tokenRepository,
		sessionManager:   sessionManager,
		emailService:     emailService,
		rateLimitService: rateLimitService,
	}
}

func (a *authService) SignUp(ctx context.Context, name, email, password string) (*repos.UserModel, error) {
	passwordHash, err := a.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	user, err := a.userRepo.Create(ctx, name, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	// The account exists either way. A failed delivery is reported
	// alongside the user so the caller can offer a resend.
	err = a.SendVerificationEmail(ctx, user)
	if err != nil && !errors.Is(err, ErrNotificationFailed) {
		return user, fmt.Errorf("sign up: %w", err)
	}
	return user, err
}

func (a *authService) Login(ctx context.Context, email, password string) (*repos.UserModel, error) {
	user, err := a.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if err = bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	err = a.sessionManager.RenewToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	a.sessionManager.Put(ctx, "authUserID", user.ID)
	return user, nil
}

func (a *authService) Logout(ctx context.Context) error {
	err := a.sessionManager.Destroy(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *authService) AuthenticatedUserID(ctx context.Context) ulid.ULID {
	value, ok := ctx.Value(AuthUserIDCtxKey{}).(ulid.ULID)
	if !ok {
		value, ok = a.sessionManager.Get(ctx, "authUserID").(ulid.ULID)
		if !ok {
			return ulid.ULID{}
		}
	}
	return value
}

func (a *authService) SendVerificationEmail(ctx context.Context, user *repos.UserModel) error {
	if token, err := a.tokenRepo.Find(ctx, repos.TokenVerifyEmail, user.ID.String()); err == nil && time.Since(token.CreatedAt) < resendMinInterval {
		return RateLimitedError{RetryAfter: resendMinInterval - time.Since(token.CreatedAt)}
	} else if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("check verification email interval: %w", err)
	}

	data := newEmailTemplateData(user.Name)
	data.Code = generateCode(6)

	// Replaces any previous token, which invalidates its code.
	_, err := a.tokenRepo.Create(ctx, repos.TokenVerifyEmail, user.ID.String(), hashToken(data.Code), "", tokenLifetime)
	if err != nil {
		return fmt.Errorf("create email verification token: %w", err)
	}

	err = a.emailService.SendEmail(user.Email, EmailVerify, data)
	if err != nil {
		log.Errorf("Failed to send email: %s", err)
		return ErrNotificationFailed
	}
	return nil
}

func (a *authService) VerifyEmail(ctx context.Context, userID ulid.ULID, code string) error {
	token, err := a.tokenRepo.Find(ctx, repos.TokenVerifyEmail, userID.String())
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return ErrInvalidToken
		}
		return fmt.Errorf("verify email: %w", err)
	}
	if time.Now().After(token.Expires) {
		a.deleteExpiredToken(ctx, token)
		return ErrTokenExpired
	}
	if subtle.ConstantTimeCompare(token.ValueHash, hashToken(code)) == 0 {
		return ErrInvalidToken
	}

	err = a.userRepo.UpdateEmailConfirmed(ctx, userID, true)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}

	// Consume last so a failure here leaves the token usable for a retry.
	err = a.tokenRepo.Delete(ctx, repos.TokenVerifyEmail, userID.String())
	if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("verify email: delete used token: %w", err)
	}
	return nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	// Record the attempt even when no account matches, so probing
	// unknown addresses is throttled like real ones.
	err := a.rateLimitService.CheckAndRecord(ctx, email)
	if err != nil {
		return err
	}

	token := generateResetToken()
	tokenHash := hashToken(token)

	// A token is stored regardless of whether the account exists to keep
	// the request path uniform. Orphaned tokens expire on their own.
	_, err = a.tokenRepo.Create(ctx, repos.TokenResetPassword, email, tokenHash, "", tokenLifetime)
	if err != nil {
		return fmt.Errorf("create password reset token: %w", err)
	}

	go func() {
		user, err := a.userRepo.FindByEmail(context.Background(), email)
		if err != nil {
			return
		}
		data := newEmailTemplateData(user.Name)
		data.Code = token
		err = a.emailService.SendEmail(user.Email, EmailPasswordReset, data)
		if err != nil {
			log.Errorf("Failed to send email: %s", err)
		}
	}()
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	t, err := a.tokenRepo.FindByValue(ctx, repos.TokenResetPassword, hashToken(token))
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if time.Now().After(t.Expires) {
		a.deleteExpiredToken(ctx, t)
		return ErrTokenExpired
	}
	user, err := a.userRepo.FindByEmail(ctx, t.Key)
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}
	passwordHash, err := a.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	err = a.userRepo.UpdatePassword(ctx, user.ID, passwordHash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	err = a.tokenRepo.Delete(ctx, t.Category, t.Key)
	if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("reset password: delete used token: %w", err)
	}
	return nil
}

func (a *authService) RequestEmailChange(ctx context.Context, userID ulid.ULID, newEmail, password string) error {
	err := a.VerifyPasswordByID(ctx, userID, password)
	if err != nil {
		return err
	}
	if _, err := a.userRepo.FindByEmail(ctx, newEmail); err == nil {
		return repos.ErrDuplicateEmail
	} else if !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("request email change: %w", err)
	}
	if token, err := a.tokenRepo.Find(ctx, repos.TokenChangeEmail, userID.String()); err == nil && time.Since(token.CreatedAt) < resendMinInterval {
		return RateLimitedError{RetryAfter: resendMinInterval - time.Since(token.CreatedAt)}
	} else if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("check email change interval: %w", err)
	}

	user, err := a.userRepo.Find(ctx, userID)
	if err != nil {
		return fmt.Errorf("request email change: %w", err)
	}

	data := newEmailTemplateData(user.Name)
	data.Code = generateCode(6)

	_, err = a.tokenRepo.Create(ctx, repos.TokenChangeEmail, userID.String(), hashToken(data.Code), newEmail, tokenLifetime)
	if err != nil {
		return fmt.Errorf("create email change token: %w", err)
	}

	// Sent to the new address to prove the requester controls it.
	err = a.emailService.SendEmail(newEmail, EmailChangeConfirm, data)
	if err != nil {
		log.Errorf("Failed to send email: %s", err)
		return ErrNotificationFailed
	}
	return nil
}

func (a *authService) ConfirmEmailChange(ctx context.Context, userID ulid.ULID, code string) error {
	token, err := a.tokenRepo.Find(ctx, repos.TokenChangeEmail, userID.String())
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return ErrInvalidToken
		}
		return fmt.Errorf("confirm email change: %w", err)
	}
	if time.Now().After(token.Expires) {
		a.deleteExpiredToken(ctx, token)
		return ErrTokenExpired
	}
	if subtle.ConstantTimeCompare(token.ValueHash, hashToken(code)) == 0 {
		return ErrInvalidToken
	}

	err = a.userRepo.UpdateEmail(ctx, userID, token.Data)
	if err != nil {
		return fmt.Errorf("confirm email change: %w", err)
	}

	err = a.tokenRepo.Delete(ctx, repos.TokenChangeEmail, userID.String())
	if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		return fmt.Errorf("confirm email change: delete used token: %w", err)
	}
	return nil
}

func (a *authService) HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), config.BcryptCost())
}

func (a *authService) VerifyPasswordByID(ctx context.Context, id ulid.ULID, password string) error {
	hash, err := a.userRepo.GetPasswordHash(ctx, id)
	if err != nil {
		return err
	}
	err = bcrypt.CompareHashAndPassword(hash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}

func (a *authService) deleteExpiredToken(ctx context.Context, token *repos.TokenModel) {
	err := a.tokenRepo.Delete(ctx, token.Category, token.Key)
	if err != nil && !errors.Is(err, repos.ErrNoRecord) {
		log.Errorf("Failed to delete expired token: %s", err)
	}
}

func generateCode(length int) string {
	if length > 18 {
		panic("cannot generate code with >18 digits")
	}
	length -= 1
	code, err := rand.Int(rand.Reader, big.NewInt(int64(math.Pow10(length+1)-math.Pow10(length))))
	if err != nil {
		panic(err)
	}
	c := code.Int64()
	c += int64(math.Pow10(length))
	return fmt.Sprintf("%v", c)
}

func generateResetToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

func hashToken(token string) []byte {
	return pbkdf2.Key([]byte(token), []byte("salt"), 10000, 256, sha256.New)
}
