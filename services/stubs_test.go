package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type memTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*repos.TokenModel
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{
		tokens: make(map[string]*repos.TokenModel),
	}
}

func tokenMapKey(category repos.TokenCategory, key string) string {
	return string(category) + ":" + key
}

func (m *memTokenRepo) Create(ctx context.Context, category repos.TokenCategory, key string, valueHash []byte, data string, lifetime time.Duration) (*repos.TokenModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := &repos.TokenModel{
		CreatedAt: time.Now(),
		Category:  category,
		Key:       key,
		ValueHash: valueHash,
		Data:      data,
		Expires:   time.Now().Add(lifetime),
	}
	m.tokens[tokenMapKey(category, key)] = token
	copy := *token
	return &copy, nil
}

func (m *memTokenRepo) Find(ctx context.Context, category repos.TokenCategory, key string) (*repos.TokenModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[tokenMapKey(category, key)]
	if !ok {
		return nil, repos.ErrNoRecord
	}
	copy := *token
	return &copy, nil
}

func (m *memTokenRepo) FindByValue(ctx context.Context, category repos.TokenCategory, valueHash []byte) (*repos.TokenModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.tokens {
		if token.Category == category && bytes.Equal(token.ValueHash, valueHash) {
			copy := *token
			return &copy, nil
		}
	}
	return nil, repos.ErrNoRecord
}

func (m *memTokenRepo) Delete(ctx context.Context, category repos.TokenCategory, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[tokenMapKey(category, key)]; !ok {
		return repos.ErrNoRecord
	}
	delete(m.tokens, tokenMapKey(category, key))
	return nil
}

// setCreatedAt backdates a stored token to simulate elapsed time.
func (m *memTokenRepo) setCreatedAt(category repos.TokenCategory, key string, createdAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[tokenMapKey(category, key)]; ok {
		token.CreatedAt = createdAt
	}
}

func (m *memTokenRepo) setExpires(category repos.TokenCategory, key string, expires time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.tokens[tokenMapKey(category, key)]; ok {
		token.Expires = expires
	}
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[ulid.ULID]*repos.UserModel
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users: make(map[ulid.ULID]*repos.UserModel),
	}
}

func (m *memUserRepo) Find(ctx context.Context, id ulid.ULID) (*repos.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repos.ErrNoRecord
	}
	copy := *user
	return &copy, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*repos.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, repos.ErrNoRecord
}

func (m *memUserRepo) GetPasswordHash(ctx context.Context, userID ulid.ULID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, repos.ErrNoRecord
	}
	return user.PasswordHash, nil
}

func (m *memUserRepo) Create(ctx context.Context, name, email string, passwordHash []byte) (*repos.UserModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return nil, repos.ErrDuplicateEmail
		}
	}
	user := &repos.UserModel{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader),
		CreatedAt:    time.Now(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	m.users[user.ID] = user
	copy := *user
	return &copy, nil
}

func (m *memUserRepo) UpdateEmailConfirmed(ctx context.Context, id ulid.ULID, confirmed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repos.ErrNoRecord
	}
	user.EmailConfirmed = confirmed
	return nil
}

func (m *memUserRepo) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repos.ErrNoRecord
	}
	user.Email = email
	user.EmailConfirmed = true
	return nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repos.ErrNoRecord
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *memUserRepo) UpdateAdminStatus(ctx context.Context, id ulid.ULID, admin bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repos.ErrNoRecord
	}
	user.Admin = admin
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, id ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repos.ErrNoRecord
	}
	delete(m.users, id)
	return nil
}

type memPetRepo struct {
	mu   sync.Mutex
	pets map[string]*repos.PetModel
}

func newMemPetRepo() *memPetRepo {
	return &memPetRepo{
		pets: make(map[string]*repos.PetModel),
	}
}

func (m *memPetRepo) Find(ctx context.Context, code string) (*repos.PetModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pet, ok := m.pets[code]
	if !ok {
		return nil, repos.ErrNoRecord
	}
	copy := *pet
	return &copy, nil
}

func (m *memPetRepo) FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*repos.PetModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pets := make([]*repos.PetModel, 0)
	for _, pet := range m.pets {
		if pet.OwnerID == ownerID {
			copy := *pet
			pets = append(pets, &copy)
		}
	}
	return pets, nil
}

func (m *memPetRepo) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pets[code]
	return ok, nil
}

func (m *memPetRepo) Create(ctx context.Context, pet *repos.PetModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pets[pet.ID]; ok {
		return repos.ErrExists
	}
	copy := *pet
	m.pets[pet.ID] = &copy
	return nil
}

func (m *memPetRepo) Delete(ctx context.Context, code string, ownerID ulid.ULID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pet, ok := m.pets[code]
	if !ok || pet.OwnerID != ownerID {
		return repos.ErrNoRecord
	}
	delete(m.pets, code)
	return nil
}

type memCodeRepo struct {
	mu    sync.Mutex
	codes map[string]*repos.GenericCodeModel
	pets  *memPetRepo

	// existsAlways simulates a fully saturated code space.
	existsAlways bool
}

func newMemCodeRepo(pets *memPetRepo) *memCodeRepo {
	return &memCodeRepo{
		codes: make(map[string]*repos.GenericCodeModel),
		pets:  pets,
	}
}

func (m *memCodeRepo) Find(ctx context.Context, code string) (*repos.GenericCodeModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok {
		return nil, repos.ErrNoRecord
	}
	copy := *c
	return &copy, nil
}

func (m *memCodeRepo) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsAlways {
		return true, nil
	}
	_, ok := m.codes[code]
	return ok, nil
}

func (m *memCodeRepo) CreateBatch(ctx context.Context, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, code := range codes {
		if _, ok := m.codes[code]; ok {
			return repos.ErrExists
		}
	}
	for _, code := range codes {
		m.codes[code] = &repos.GenericCodeModel{
			ID:        code,
			CreatedAt: time.Now(),
		}
	}
	return nil
}

func (m *memCodeRepo) Claim(ctx context.Context, code string, userID ulid.ULID, at time.Time, pet *repos.PetModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[code]
	if !ok || c.Claimed {
		return repos.ErrNoRecord
	}
	c.Claimed = true
	c.ClaimedAt = &at
	c.ClaimedBy = &userID
	return m.pets.Create(ctx, pet)
}

func (m *memCodeRepo) CountUnclaimed(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.codes {
		if !c.Claimed {
			count++
		}
	}
	return count, nil
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

type memRateLimitRepo struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

func newMemRateLimitRepo() *memRateLimitRepo {
	return &memRateLimitRepo{
		entries: make(map[string]*rateLimitEntry),
	}
}

func (m *memRateLimitRepo) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok || !entry.windowStart.After(now.Add(-window)) {
		entry = &rateLimitEntry{count: 1, windowStart: now}
		m.entries[key] = entry
		return entry.count, entry.windowStart, nil
	}
	entry.count++
	return entry.count, entry.windowStart, nil
}

type sentEmail struct {
	Address string
	Message EmailMessage
	Data    emailTemplateData
}

type stubEmailService struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (s *stubEmailService) SendEmail(address string, message EmailMessage, data emailTemplateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentEmail{
		Address: address,
		Message: message,
		Data:    data,
	})
	return nil
}

func (s *stubEmailService) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *stubEmailService) lastSent() (sentEmail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return sentEmail{}, false
	}
	return s.sent[len(s.sent)-1], true
}

func (s *stubEmailService) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}
