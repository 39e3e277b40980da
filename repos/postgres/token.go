package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juho05/paw-id/repos"
)

type tokenRepository struct {
	db *pgxpool.Pool
}

func (d *DB) NewTokenRepository() repos.TokenRepository {
	return &tokenRepository{
		db: d.db,
	}
}

func scanToken(row interface{ Scan(...any) error }) (*repos.TokenModel, error) {
	var token repos.TokenModel
	var createdAt, expires int64
	var category string
	err := row.Scan(&createdAt, &category, &token.Key, &token.ValueHash, &token.Data, &expires)
	if err != nil {
		return nil, err
	}
	token.CreatedAt = time.Unix(createdAt, 0)
	token.Category = repos.TokenCategory(category)
	token.Expires = time.Unix(expires, 0)
	return &token, nil
}

func (t *tokenRepository) Create(ctx context.Context, category repos.TokenCategory, key string, valueHash []byte, data string, lifetime time.Duration) (*repos.TokenModel, error) {
	token := &repos.TokenModel{
		CreatedAt: time.Now(),
		Category:  category,
		Key:       key,
		ValueHash: valueHash,
		Data:      data,
		Expires:   time.Now().Add(lifetime),
	}
	// Upsert replaces a previous token for the same (category, key) atomically.
	_, err := t.db.Exec(ctx, `
		INSERT INTO tokens (created_at, category, token_key, value_hash, data, expires) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (category, token_key) DO UPDATE SET
			created_at = excluded.created_at,
			value_hash = excluded.value_hash,
			data = excluded.data,
			expires = excluded.expires`,
		token.CreatedAt.Unix(), string(token.Category), token.Key, token.ValueHash, token.Data, token.Expires.Unix())
	if err != nil {
		return nil, repoErr("create token: %w", err)
	}
	return token, nil
}

func (t *tokenRepository) Find(ctx context.Context, category repos.TokenCategory, key string) (*repos.TokenModel, error) {
	row := t.db.QueryRow(ctx, "SELECT created_at, category, token_key, value_hash, data, expires FROM tokens WHERE category = $1 AND token_key = $2", string(category), key)
	token, err := scanToken(row)
	if err != nil {
		return nil, repoErr("find token: %w", err)
	}
	return token, nil
}

func (t *tokenRepository) FindByValue(ctx context.Context, category repos.TokenCategory, valueHash []byte) (*repos.TokenModel, error) {
	row := t.db.QueryRow(ctx, "SELECT created_at, category, token_key, value_hash, data, expires FROM tokens WHERE category = $1 AND value_hash = $2", string(category), valueHash)
	token, err := scanToken(row)
	if err != nil {
		return nil, repoErr("find token by value hash: %w", err)
	}
	return token, nil
}

func (t *tokenRepository) Delete(ctx context.Context, category repos.TokenCategory, key string) error {
	result, err := t.db.Exec(ctx, "DELETE FROM tokens WHERE category = $1 AND token_key = $2", string(category), key)
	return repoErrResult("delete token: %w", result, err)
}
