package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/juho05/paw-id/repos"
)

type tokenRepository struct {
	db *sqlx.DB
}

func (d *DB) NewTokenRepository() repos.TokenRepository {
	return &tokenRepository{
		db: d.db,
	}
}

type tokenRow struct {
	CreatedAt int64  `db:"created_at"`
	Category  string `db:"category"`
	TokenKey  string `db:"token_key"`
	ValueHash []byte `db:"value_hash"`
	Data      string `db:"data"`
	Expires   int64  `db:"expires"`
}

func repoToken(row tokenRow) *repos.TokenModel {
	return &repos.TokenModel{
		CreatedAt: time.Unix(row.CreatedAt, 0),
		Category:  repos.TokenCategory(row.Category),
		Key:       row.TokenKey,
		ValueHash: row.ValueHash,
		Data:      row.Data,
		Expires:   time.Unix(row.Expires, 0),
	}
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
	// REPLACE removes a previous token for the same (category, key) and
	// inserts the new one atomically.
	_, err := t.db.ExecContext(ctx, "REPLACE INTO tokens (created_at, category, token_key, value_hash, data, expires) VALUES (?, ?, ?, ?, ?, ?)", token.CreatedAt.Unix(), token.Category, token.Key, token.ValueHash, token.Data, token.Expires.Unix())
	if err != nil {
		return nil, fmt.Errorf("create token: %w", err)
	}
	return token, nil
}

func (t *tokenRepository) Find(ctx context.Context, category repos.TokenCategory, key string) (*repos.TokenModel, error) {
	var row tokenRow
	err := t.db.GetContext(ctx, &row, "SELECT * FROM tokens WHERE category = ? AND token_key = ?", category, key)
	if err != nil {
		return nil, repoErr("find token: %w", err)
	}
	return repoToken(row), nil
}

func (t *tokenRepository) FindByValue(ctx context.Context, category repos.TokenCategory, valueHash []byte) (*repos.TokenModel, error) {
	var row tokenRow
	err := t.db.GetContext(ctx, &row, "SELECT * FROM tokens WHERE category = ? AND value_hash = ?", category, valueHash)
	if err != nil {
		return nil, repoErr("find token by value hash: %w", err)
	}
	return repoToken(row), nil
}

func (t *tokenRepository) Delete(ctx context.Context, category repos.TokenCategory, key string) error {
	result, err := t.db.ExecContext(ctx, "DELETE FROM tokens WHERE category = ? AND token_key = ?", category, key)
	return repoErrResult("delete token: %w", result, err)
}
