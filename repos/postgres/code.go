package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type codeRepository struct {
	db *pgxpool.Pool
}

func (d *DB) NewCodeRepository() repos.CodeRepository {
	return &codeRepository{
		db: d.db,
	}
}

func scanGenericCode(row interface{ Scan(...any) error }) (*repos.GenericCodeModel, error) {
	var code repos.GenericCodeModel
	var createdAt int64
	var claimedAt *int64
	var claimedBy *string
	err := row.Scan(&code.ID, &createdAt, &code.Claimed, &claimedAt, &claimedBy)
	if err != nil {
		return nil, err
	}
	code.CreatedAt = time.Unix(createdAt, 0)
	if claimedAt != nil {
		at := time.Unix(*claimedAt, 0)
		code.ClaimedAt = &at
	}
	if claimedBy != nil {
		by, err := ulid.Parse(*claimedBy)
		if err != nil {
			return nil, fmt.Errorf("parse claimed_by_user_id: %w", err)
		}
		code.ClaimedBy = &by
	}
	return &code, nil
}

func (c *codeRepository) Find(ctx context.Context, code string) (*repos.GenericCodeModel, error) {
	row := c.db.QueryRow(ctx, "SELECT id, created_at, claimed, claimed_at, claimed_by_user_id FROM generic_codes WHERE id = $1", code)
	genericCode, err := scanGenericCode(row)
	if err != nil {
		return nil, repoErr("find generic code: %w", err)
	}
	return genericCode, nil
}

func (c *codeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := c.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM generic_codes WHERE id = $1)", code).Scan(&exists)
	if err != nil {
		return false, repoErr("generic code exists: %w", err)
	}
	return exists, nil
}

func (c *codeRepository) CreateBatch(ctx context.Context, codes []string) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create code batch: %w", err)
	}
	defer tx.Rollback(ctx)
	now := time.Now().Unix()
	batch := &pgx.Batch{}
	for _, code := range codes {
		batch.Queue("INSERT INTO generic_codes (id, created_at, claimed) VALUES ($1, $2, FALSE)", code, now)
	}
	err = tx.SendBatch(ctx, batch).Close()
	if err != nil {
		return repoErr("create code batch: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("create code batch: %w", err)
	}
	return nil
}

func (c *codeRepository) Claim(ctx context.Context, code string, userID ulid.ULID, at time.Time, pet *repos.PetModel) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("claim code: %w", err)
	}
	defer tx.Rollback(ctx)
	result, err := tx.Exec(ctx, "UPDATE generic_codes SET claimed = TRUE, claimed_by_user_id = $1, claimed_at = $2 WHERE id = $3 AND claimed = FALSE", userID.String(), at.Unix(), code)
	if err = repoErrResult("claim code: %w", result, err); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "INSERT INTO pets (id, created_at, owner_id, name) VALUES ($1, $2, $3, $4)", pet.ID, pet.CreatedAt.Unix(), pet.OwnerID.String(), pet.Name)
	if err != nil {
		return repoErr("claim code: create pet: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("claim code: %w", err)
	}
	return nil
}

func (c *codeRepository) CountUnclaimed(ctx context.Context) (int, error) {
	var count int
	err := c.db.QueryRow(ctx, "SELECT COUNT(*) FROM generic_codes WHERE claimed = FALSE").Scan(&count)
	if err != nil {
		return 0, repoErr("count unclaimed codes: %w", err)
	}
	return count, nil
}
