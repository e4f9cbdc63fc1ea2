package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thumbforge/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

const imageColumns = `
	id, owner_id, thumbnail_size, bucket, object_key, width, height, slug, expire_seconds, created_at
`

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) error {
	const query = `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query, imageArgs(image)...)
	return err
}

// CreateBatch persists a derived thumbnail set atomically: either every
// record lands or none does.
func (r *ImageRepository) CreateBatch(ctx context.Context, images []models.Image) error {
	if len(images) == 0 {
		return nil
	}

	const query = `
		INSERT INTO images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, image := range images {
		batch.Queue(query, imageArgs(image)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range images {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ImageRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM images WHERE slug = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ImageRepository) GetBySlug(ctx context.Context, slug string) (models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images WHERE slug = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, slug))
}

// GetByOwnerAndID scopes the lookup to the owner: a foreign id behaves
// exactly like an absent one.
func (r *ImageRepository) GetByOwnerAndID(ctx context.Context, ownerID, id string) (models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images WHERE owner_id = $1 AND id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, ownerID, id))
}

func (r *ImageRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images WHERE owner_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *ImageRepository) List(ctx context.Context, limit, offset int) ([]models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM images ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *ImageRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM images WHERE owner_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ImageRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM images WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// ListExpiredBefore returns time-limited thumbnails whose expiry instant
// lies before the cutoff. Used by the retention sweep only; serving
// treats expiry as advisory.
func (r *ImageRepository) ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Image, error) {
	const query = `
		SELECT ` + imageColumns + `
		FROM images
		WHERE expire_seconds IS NOT NULL
		  AND created_at + expire_seconds * INTERVAL '1 second' < $1
	`
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func imageArgs(image models.Image) []any {
	return []any{
		image.ID,
		image.OwnerID,
		image.ThumbnailSize,
		image.Bucket,
		image.ObjectKey,
		image.Width,
		image.Height,
		image.Slug,
		image.ExpireSeconds,
		image.CreatedAt,
	}
}

func (r *ImageRepository) scanOne(row pgx.Row) (models.Image, error) {
	var image models.Image
	if err := row.Scan(
		&image.ID,
		&image.OwnerID,
		&image.ThumbnailSize,
		&image.Bucket,
		&image.ObjectKey,
		&image.Width,
		&image.Height,
		&image.Slug,
		&image.ExpireSeconds,
		&image.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) scanAll(rows pgx.Rows) ([]models.Image, error) {
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		var image models.Image
		if err := rows.Scan(
			&image.ID,
			&image.OwnerID,
			&image.ThumbnailSize,
			&image.Bucket,
			&image.ObjectKey,
			&image.Width,
			&image.Height,
			&image.Slug,
			&image.ExpireSeconds,
			&image.CreatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}
