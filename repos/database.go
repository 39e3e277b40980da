package repos

type DB interface {
	NewUserRepository() UserRepository
	NewSessionRepository() SessionRepository
	NewTokenRepository() TokenRepository
	NewPetRepository() PetRepository
	NewCodeRepository() CodeRepository
	NewRateLimitRepository() RateLimitRepository
	Close() error
}
