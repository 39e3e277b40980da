package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type petRepository struct {
	db *pgxpool.Pool
}

func (d *DB) NewPetRepository() repos.PetRepository {
	return &petRepository{
		db: d.db,
	}
}

func scanPet(row interface{ Scan(...any) error }) (*repos.PetModel, error) {
	var pet repos.PetModel
	var createdAt int64
	var ownerID string
	err := row.Scan(&pet.ID, &createdAt, &ownerID, &pet.Name)
	if err != nil {
		return nil, err
	}
	pet.CreatedAt = time.Unix(createdAt, 0)
	pet.OwnerID, err = ulid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("parse pet owner id: %w", err)
	}
	return &pet, nil
}

func (p *petRepository) Find(ctx context.Context, code string) (*repos.PetModel, error) {
	row := p.db.QueryRow(ctx, "SELECT id, created_at, owner_id, name FROM pets WHERE id = $1", code)
	pet, err := scanPet(row)
	if err != nil {
		return nil, repoErr("find pet: %w", err)
	}
	return pet, nil
}

func (p *petRepository) FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*repos.PetModel, error) {
	rows, err := p.db.Query(ctx, "SELECT id, created_at, owner_id, name FROM pets WHERE owner_id = $1 ORDER BY created_at", ownerID.String())
	if err != nil {
		return nil, repoErr("find pets by owner: %w", err)
	}
	defer rows.Close()
	var pets []*repos.PetModel
	for rows.Next() {
		pet, err := scanPet(rows)
		if err != nil {
			return nil, repoErr("find pets by owner: %w", err)
		}
		pets = append(pets, pet)
	}
	if err = rows.Err(); err != nil {
		return nil, repoErr("find pets by owner: %w", err)
	}
	return pets, nil
}

func (p *petRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pets WHERE id = $1)", code).Scan(&exists)
	if err != nil {
		return false, repoErr("pet exists: %w", err)
	}
	return exists, nil
}

func (p *petRepository) Create(ctx context.Context, pet *repos.PetModel) error {
	_, err := p.db.Exec(ctx, "INSERT INTO pets (id, created_at, owner_id, name) VALUES ($1, $2, $3, $4)", pet.ID, pet.CreatedAt.Unix(), pet.OwnerID.String(), pet.Name)
	return repoErr("create pet: %w", err)
}

func (p *petRepository) Delete(ctx context.Context, code string, ownerID ulid.ULID) error {
	result, err := p.db.Exec(ctx, "DELETE FROM pets WHERE id = $1 AND owner_id = $2", code, ownerID.String())
	return repoErrResult("delete pet: %w", result, err)
}
