package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thumbforge/internal/models"
)

var ErrTierNotFound = errors.New("account tier not found")

type TierRepository struct {
	pool *pgxpool.Pool
}

func NewTierRepository(pool *pgxpool.Pool) *TierRepository {
	return &TierRepository{pool: pool}
}

func (r *TierRepository) Create(ctx context.Context, tier models.AccountTier) error {
	const query = `
		INSERT INTO account_tiers (id, name, thumbnail_sizes, keep_original, timed_links, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	sizes := make([]int32, len(tier.ThumbnailSizes))
	for i, s := range tier.ThumbnailSizes {
		sizes[i] = int32(s)
	}

	_, err := r.pool.Exec(ctx, query,
		tier.ID,
		tier.Name,
		sizes,
		tier.KeepOriginal,
		tier.TimedLinks,
	)
	return err
}

func (r *TierRepository) GetByID(ctx context.Context, id string) (models.AccountTier, error) {
	const query = `
		SELECT id, name, thumbnail_sizes, keep_original, timed_links, created_at
		FROM account_tiers WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	tier, err := scanTier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AccountTier{}, ErrTierNotFound
		}
		return models.AccountTier{}, err
	}
	return tier, nil
}

func (r *TierRepository) List(ctx context.Context) ([]models.AccountTier, error) {
	const query = `
		SELECT id, name, thumbnail_sizes, keep_original, timed_links, created_at
		FROM account_tiers
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []models.AccountTier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

func scanTier(row pgx.Row) (models.AccountTier, error) {
	var (
		tier  models.AccountTier
		sizes []int32
	)
	if err := row.Scan(
		&tier.ID,
		&tier.Name,
		&sizes,
		&tier.KeepOriginal,
		&tier.TimedLinks,
		&tier.CreatedAt,
	); err != nil {
		return models.AccountTier{}, err
	}

	tier.ThumbnailSizes = make([]int, len(sizes))
	for i, s := range sizes {
		tier.ThumbnailSizes[i] = int(s)
	}
	return tier, nil
}
