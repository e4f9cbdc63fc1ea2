package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thumbforge/internal/models"
)

var ErrTokenNotFound = errors.New("api token not found")

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, token models.APIToken) error {
	const query = `
		INSERT INTO api_tokens (id, user_id, token_hash, name, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.Name,
	)
	return err
}

func (r *TokenRepository) GetByHash(ctx context.Context, hash []byte) (models.APIToken, error) {
	const query = `
		SELECT id, user_id, token_hash, name, created_at
		FROM api_tokens WHERE token_hash = $1
	`

	row := r.pool.QueryRow(ctx, query, hash)
	var token models.APIToken
	if err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Name,
		&token.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.APIToken{}, ErrTokenNotFound
		}
		return models.APIToken{}, err
	}
	return token, nil
}
