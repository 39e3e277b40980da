package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type codeRepository struct {
	db *sqlx.DB
}

func (d *DB) NewCodeRepository() repos.CodeRepository {
	return &codeRepository{
		db: d.db,
	}
}

type genericCodeRow struct {
	ID        string         `db:"id"`
	CreatedAt int64          `db:"created_at"`
	Claimed   bool           `db:"claimed"`
	ClaimedAt sql.NullInt64  `db:"claimed_at"`
	ClaimedBy sql.NullString `db:"claimed_by_user_id"`
}

func repoGenericCode(row genericCodeRow) (*repos.GenericCodeModel, error) {
	code := &repos.GenericCodeModel{
		ID:        row.ID,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		Claimed:   row.Claimed,
	}
	if row.ClaimedAt.Valid {
		at := time.Unix(row.ClaimedAt.Int64, 0)
		code.ClaimedAt = &at
	}
	if row.ClaimedBy.Valid {
		by, err := ulid.Parse(row.ClaimedBy.String)
		if err != nil {
			return nil, fmt.Errorf("parse claimed_by_user_id: %w", err)
		}
		code.ClaimedBy = &by
	}
	return code, nil
}

func (c *codeRepository) Find(ctx context.Context, code string) (*repos.GenericCodeModel, error) {
	var row genericCodeRow
	err := c.db.GetContext(ctx, &row, "SELECT * FROM generic_codes WHERE id = ?", code)
	if err != nil {
		return nil, repoErr("find generic code: %w", err)
	}
	return repoGenericCode(row)
}

func (c *codeRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := c.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM generic_codes WHERE id = ?)", code)
	if err != nil {
		return false, repoErr("generic code exists: %w", err)
	}
	return exists, nil
}

func (c *codeRepository) CreateBatch(ctx context.Context, codes []string) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create code batch: %w", err)
	}
	defer tx.Rollback()
	now := time.Now().Unix()
	for _, code := range codes {
		_, err = tx.ExecContext(ctx, "INSERT INTO generic_codes (id, created_at, claimed) VALUES (?, ?, 0)", code, now)
		if err != nil {
			return repoErr("create code batch: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("create code batch: %w", err)
	}
	return nil
}

func (c *codeRepository) Claim(ctx context.Context, code string, userID ulid.ULID, at time.Time, pet *repos.PetModel) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("claim code: %w", err)
	}
	defer tx.Rollback()
	result, err := tx.ExecContext(ctx, "UPDATE generic_codes SET claimed = 1, claimed_by_user_id = ?, claimed_at = ? WHERE id = ? AND claimed = 0", userID.String(), at.Unix(), code)
	if err = repoErrResult("claim code: %w", result, err); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO pets (id, created_at, owner_id, name) VALUES (?, ?, ?, ?)", pet.ID, pet.CreatedAt.Unix(), pet.OwnerID.String(), pet.Name)
	if err != nil {
		return repoErr("claim code: create pet: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("claim code: %w", err)
	}
	return nil
}

func (c *codeRepository) CountUnclaimed(ctx context.Context) (int, error) {
	var count int
	err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM generic_codes WHERE claimed = 0")
	if err != nil {
		return 0, repoErr("count unclaimed codes: %w", err)
	}
	return count, nil
}
