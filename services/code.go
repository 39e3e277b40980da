package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

// codeAlphabet excludes 0, O, I and 1 because printed tags are read by
// humans. 32 symbols at 8 characters give ~1.1e12 possible codes.
const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8

	generateAttempts     = 50
	batchAttemptsPerCode = 100
	maxBatchSize         = 10000
)

type CodeStatus string

const (
	CodeStatusAvailable CodeStatus = "available"
	CodeStatusClaimed   CodeStatus = "claimed"
	CodeStatusNotFound  CodeStatus = "not-found"
	CodeStatusInvalid   CodeStatus = "invalid"
)

type CodeService interface {
	// GenerateCode returns a new code that did not exist in either the
	// pet or the generic code table at generation time. The code is not
	// persisted.
	GenerateCode(ctx context.Context) (string, error)
	// GenerateBatch generates n unique codes and stores them as unclaimed
	// generic codes in a single transaction. Either all codes are stored
	// or none are.
	GenerateBatch(ctx context.Context, n int) ([]string, error)
	// Claim atomically marks code as claimed by userID and creates the pet
	// profile attached to it. Only the first claim succeeds.
	Claim(ctx context.Context, code string, userID ulid.ULID, petName string) (*repos.PetModel, error)
	// CheckAvailability reports the current status of code. The result is
	// advisory: the code can be claimed by someone else between the check
	// and a subsequent Claim.
	CheckAvailability(ctx context.Context, code string) (CodeStatus, error)
}

type codeService struct {
	codeRepo repos.CodeRepository
	petRepo  repos.PetRepository
}

func NewCodeService(codeRepo repos.CodeRepository, petRepo repos.PetRepository) CodeService {
	return &codeService{
		codeRepo: codeRepo,
		petRepo:  petRepo,
	}
}

func IsValidCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *codeService) GenerateCode(ctx context.Context) (string, error) {
	for i := 0; i < generateAttempts; i++ {
		code := randomCode(codeLength)
		exists, err := c.codeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	// Attempt budget exhausted. Fall back to a code with a timestamp
	// suffix, which cannot collide with codes generated in other
	// milliseconds, instead of failing or looping forever.
	return randomCode(codeLength-3) + timestampSuffix(time.Now()), nil
}

func (c *codeService) GenerateBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 || n > maxBatchSize {
		return nil, ErrInvalidBatchSize
	}
	codes := make([]string, 0, n)
	pending := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		var code string
		attempts := 0
		for {
			if attempts >= batchAttemptsPerCode {
				return nil, ErrCodeSpaceExhausted
			}
			attempts++
			code = randomCode(codeLength)
			if _, ok := pending[code]; ok {
				continue
			}
			exists, err := c.codeExists(ctx, code)
			if err != nil {
				return nil, fmt.Errorf("generate code batch: %w", err)
			}
			if !exists {
				break
			}
		}
		pending[code] = struct{}{}
		codes = append(codes, code)
	}
	err := c.codeRepo.CreateBatch(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("generate code batch: %w", err)
	}
	return codes, nil
}

func (c *codeService) Claim(ctx context.Context, code string, userID ulid.ULID, petName string) (*repos.PetModel, error) {
	code = NormalizeCode(code)
	if !IsValidCode(code) {
		return nil, ErrInvalidCodeFormat
	}

	genericCode, err := c.codeRepo.Find(ctx, code)
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("claim code: %w", err)
	}
	if genericCode.Claimed {
		return nil, ErrCodeAlreadyClaimed
	}
	if exists, err := c.petRepo.Exists(ctx, code); err != nil {
		return nil, fmt.Errorf("claim code: %w", err)
	} else if exists {
		return nil, ErrCodeAlreadyOwned
	}

	pet := &repos.PetModel{
		ID:        code,
		CreatedAt: time.Now(),
		OwnerID:   userID,
		Name:      petName,
	}
	err = c.codeRepo.Claim(ctx, code, userID, time.Now(), pet)
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			// The conditional update matched no unclaimed row. Someone
			// else won the race since the check above.
			if _, findErr := c.codeRepo.Find(ctx, code); errors.Is(findErr, repos.ErrNoRecord) {
				return nil, ErrCodeNotFound
			}
			return nil, ErrCodeAlreadyClaimed
		}
		if errors.Is(err, repos.ErrExists) {
			return nil, ErrCodeAlreadyOwned
		}
		return nil, fmt.Errorf("claim code: %w", err)
	}
	return pet, nil
}

func (c *codeService) CheckAvailability(ctx context.Context, code string) (CodeStatus, error) {
	code = NormalizeCode(code)
	if !IsValidCode(code) {
		return CodeStatusInvalid, nil
	}
	genericCode, err := c.codeRepo.Find(ctx, code)
	if err != nil {
		if errors.Is(err, repos.ErrNoRecord) {
			return CodeStatusNotFound, nil
		}
		return "", fmt.Errorf("check code availability: %w", err)
	}
	if genericCode.Claimed {
		return CodeStatusClaimed, nil
	}
	// An unclaimed code that already names a pet means the two code
	// spaces got out of sync. Never advertise it as claimable.
	owned, err := c.petRepo.Exists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("check code availability: %w", err)
	}
	if owned {
		return CodeStatusClaimed, nil
	}
	return CodeStatusAvailable, nil
}

func (c *codeService) codeExists(ctx context.Context, code string) (bool, error) {
	if exists, err := c.petRepo.Exists(ctx, code); err != nil || exists {
		return exists, err
	}
	return c.codeRepo.Exists(ctx, code)
}

func randomCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			panic(err)
		}
		code[i] = codeAlphabet[num.Int64()]
	}
	return string(code)
}

// timestampSuffix encodes the current millisecond into three alphabet
// symbols so fallback codes generated in different milliseconds never
// collide with each other.
func timestampSuffix(now time.Time) string {
	n := now.UnixMilli() % int64(len(codeAlphabet)*len(codeAlphabet)*len(codeAlphabet))
	suffix := make([]byte, 3)
	for i := 2; i >= 0; i-- {
		suffix[i] = codeAlphabet[n%int64(len(codeAlphabet))]
		n /= int64(len(codeAlphabet))
	}
	return string(suffix)
}
