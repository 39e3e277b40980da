package services

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type PetService interface {
	Find(ctx context.Context, code string) (*repos.PetModel, error)
	FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*repos.PetModel, error)
	Delete(ctx context.Context, code string, ownerID ulid.ULID) error
}

type petService struct {
	petRepo repos.PetRepository
}

func NewPetService(petRepository repos.PetRepository) PetService {
	return &petService{
		petRepo: petRepository,
	}
}

func (p *petService) Find(ctx context.Context, code string) (*repos.PetModel, error) {
	return p.petRepo.Find(ctx, NormalizeCode(code))
}

func (p *petService) FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*repos.PetModel, error) {
	return p.petRepo.FindByOwner(ctx, ownerID)
}

func (p *petService) Delete(ctx context.Context, code string, ownerID ulid.ULID) error {
	err := p.petRepo.Delete(ctx, NormalizeCode(code), ownerID)
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return nil
}
