package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type petRepository struct {
	db *sqlx.DB
}

func (d *DB) NewPetRepository() repos.PetRepository {
	return &petRepository{
		db: d.db,
	}
}

type petRow struct {
	ID        string `db:"id"`
	CreatedAt int64  `db:"created_at"`
	OwnerID   string `db:"owner_id"`
	Name      string `db:"name"`
}

func repoPet(row petRow) (*repos.PetModel, error) {
	ownerID, err := ulid.Parse(row.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("parse pet owner id: %w", err)
	}
	return &repos.PetModel{
		ID:        row.ID,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		OwnerID:   ownerID,
		Name:      row.Name,
	}, nil
}

func (p *petRepository) Find(ctx context.Context, code string) (*repos.PetModel, error) {
	var row petRow
	err := p.db.GetContext(ctx, &row, "SELECT * FROM pets WHERE id = ?", code)
	if err != nil {
		return nil, repoErr("find pet: %w", err)
	}
	return repoPet(row)
}

func (p *petRepository) FindByOwner(ctx context.Context, ownerID ulid.ULID) ([]*repos.PetModel, error) {
	var rows []petRow
	err := p.db.SelectContext(ctx, &rows, "SELECT * FROM pets WHERE owner_id = ? ORDER BY created_at", ownerID.String())
	if err != nil {
		return nil, repoErr("find pets by owner: %w", err)
	}
	pets := make([]*repos.PetModel, len(rows))
	for i, row := range rows {
		pets[i], err = repoPet(row)
		if err != nil {
			return nil, fmt.Errorf("find pets by owner: %w", err)
		}
	}
	return pets, nil
}

func (p *petRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pets WHERE id = ?)", code)
	if err != nil {
		return false, repoErr("pet exists: %w", err)
	}
	return exists, nil
}

func (p *petRepository) Create(ctx context.Context, pet *repos.PetModel) error {
	_, err := p.db.ExecContext(ctx, "INSERT INTO pets (id, created_at, owner_id, name) VALUES (?, ?, ?, ?)", pet.ID, pet.CreatedAt.Unix(), pet.OwnerID.String(), pet.Name)
	return repoErr("create pet: %w", err)
}

func (p *petRepository) Delete(ctx context.Context, code string, ownerID ulid.ULID) error {
	result, err := p.db.ExecContext(ctx, "DELETE FROM pets WHERE id = ? AND owner_id = ?", code, ownerID.String())
	return repoErrResult("delete pet: %w", result, err)
}
