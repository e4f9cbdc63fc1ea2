package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"thumbforge/internal/config"
	"thumbforge/internal/ids"
	"thumbforge/internal/media/render"
	"thumbforge/internal/media/sniffer"
	"thumbforge/internal/models"
	"thumbforge/internal/repository"
	"thumbforge/internal/slug"
)

// UpgradePrompt replaces the original-image URL for owners whose tier
// does not permit original links. Display policy only; deletion is
// decided separately during derivation.
const UpgradePrompt = "Upgrade account tier to obtain original image link."

const (
	minTimedSize = 50
	maxTimedSize = 4000
	minExpire    = 300
	maxExpire    = 30000
)

// ImageStore is the slice of the image repository the service consumes.
type ImageStore interface {
	Create(ctx context.Context, image models.Image) error
	CreateBatch(ctx context.Context, images []models.Image) error
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (models.Image, error)
	GetByOwnerAndID(ctx context.Context, ownerID, id string) (models.Image, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Image, error)
	DeleteByID(ctx context.Context, id string) error
	ListExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Image, error)
}

// BlobStore abstracts the object store holding image bytes.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Remove(ctx context.Context, bucket, key string) error
	BucketOriginals() string
	BucketVariants() string
}

// TaskQueue hands blob deletions to the worker. May be nil.
type TaskQueue interface {
	EnqueueDeleteBlob(ctx context.Context, bucket, key string) error
}

type ImageService struct {
	images ImageStore
	blobs  BlobStore
	slugs  *slug.Allocator
	queue  TaskQueue
	cfg    *config.AppConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewImageService wires the derivation pipeline. now is the injected
// clock used for record creation and expiry checks; nil means wall
// clock in UTC.
func NewImageService(
	images ImageStore,
	blobs BlobStore,
	slugs *slug.Allocator,
	queue TaskQueue,
	cfg *config.AppConfig,
	log zerolog.Logger,
	now func() time.Time,
) *ImageService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &ImageService{
		images: images,
		blobs:  blobs,
		slugs:  slugs,
		queue:  queue,
		cfg:    cfg,
		log:    log,
		now:    now,
	}
}

type UploadInput struct {
	Owner    models.User
	Tier     *models.AccountTier
	Filename string
	Data     []byte
}

type UploadResult struct {
	Original   models.Image
	ImgURL     string
	ImgSize    string
	Thumbnails map[string]string
}

// Upload stores the original and derives the tier's thumbnail set.
// Labels in Thumbnails are stringified pixel sizes, plus one "WxH"
// entry for the original when the tier keeps it. When the tier does not
// keep originals the original record is deleted after the batch persists
// and ImgURL carries the upgrade prompt instead of a link.
func (s *ImageService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	format, width, height, err := s.validateUpload(input.Filename, input.Data)
	if err != nil {
		return UploadResult{}, err
	}
	if input.Tier == nil {
		return UploadResult{}, ErrTierRequired
	}

	original, err := s.storeOriginal(ctx, input.Owner, format, width, height, input.Data)
	if err != nil {
		return UploadResult{}, err
	}

	thumbnails, originalKept, err := s.deriveAll(ctx, original, input.Data, format, input.Tier)
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{
		Original:   original,
		ImgSize:    original.Dimensions(),
		Thumbnails: thumbnails,
	}
	if originalKept {
		result.ImgURL = s.slugURL(original.Slug)
	} else {
		result.ImgURL = UpgradePrompt
	}
	return result, nil
}

// deriveAll renders one square variant per tier size, persists the set
// as a single batch, then applies the delete-original policy. Rendering
// runs concurrently; any failure aborts the whole derivation, discards
// already-stored variant blobs and persists nothing.
func (s *ImageService) deriveAll(ctx context.Context, original models.Image, data []byte, format sniffer.Format, tier *models.AccountTier) (map[string]string, bool, error) {
	sizes := tier.ThumbnailSizes
	rendered := make([][]byte, len(sizes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.renderParallel())
	for i, size := range sizes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := render.Square(data, format, size)
			if err != nil {
				return fmt.Errorf("render %dpx: %w", size, err)
			}
			rendered[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	now := s.now()
	created := make([]models.Image, 0, len(sizes))
	storedKeys := make([]string, 0, len(sizes))
	discard := func() {
		for _, key := range storedKeys {
			if err := s.blobs.Remove(ctx, s.blobs.BucketVariants(), key); err != nil {
				s.log.Warn().Err(err).Str("object_key", key).Msg("discard partial thumbnail failed")
			}
		}
	}

	for i, size := range sizes {
		id := ids.New()
		key := objectKey(original.OwnerID, id, format.Ext())

		if err := s.blobs.Put(ctx, s.blobs.BucketVariants(), key, rendered[i], format.MIME()); err != nil {
			discard()
			return nil, false, err
		}
		storedKeys = append(storedKeys, key)

		sl, err := s.slugs.Allocate(ctx, s.images.ExistsBySlug)
		if err != nil {
			discard()
			return nil, false, err
		}

		created = append(created, models.Image{
			ID:            id,
			OwnerID:       original.OwnerID,
			ThumbnailSize: &size,
			Bucket:        s.blobs.BucketVariants(),
			ObjectKey:     key,
			Width:         size,
			Height:        size,
			Slug:          sl,
			CreatedAt:     now,
		})
	}

	if err := s.images.CreateBatch(ctx, created); err != nil {
		discard()
		return nil, false, fmt.Errorf("persist thumbnail batch: %w", err)
	}

	thumbnails := make(map[string]string, len(created)+1)
	for _, img := range created {
		thumbnails[strconv.Itoa(*img.ThumbnailSize)] = s.slugURL(img.Slug)
	}

	// The original is touched only after the batch is safely persisted,
	// so a crash mid-derivation leaves the original intact.
	if tier.KeepOriginal {
		thumbnails[original.Dimensions()] = s.slugURL(original.Slug)
		return thumbnails, true, nil
	}

	if err := s.images.DeleteByID(ctx, original.ID); err != nil {
		return nil, false, fmt.Errorf("delete original record: %w", err)
	}
	s.enqueueDelete(ctx, original.Bucket, original.ObjectKey)
	return thumbnails, false, nil
}

type TimedInput struct {
	Owner    models.User
	Filename string
	Data     []byte
	Size     int
	TTL      int
}

type TimedResult struct {
	Size   int
	TTL    int
	ImgURL string
}

// UploadTimed stores the original and derives exactly one time-limited
// thumbnail from it. The tier gate lives in the calling layer; this
// operation never deletes or links the original regardless of tier.
func (s *ImageService) UploadTimed(ctx context.Context, input TimedInput) (TimedResult, error) {
	if err := ValidateTimedParams(input.Size, input.TTL); err != nil {
		return TimedResult{}, err
	}
	format, width, height, err := s.validateUpload(input.Filename, input.Data)
	if err != nil {
		return TimedResult{}, err
	}

	if _, err := s.storeOriginal(ctx, input.Owner, format, width, height, input.Data); err != nil {
		return TimedResult{}, err
	}

	out, err := render.Square(input.Data, format, input.Size)
	if err != nil {
		return TimedResult{}, fmt.Errorf("render %dpx: %w", input.Size, err)
	}

	id := ids.New()
	key := objectKey(input.Owner.ID, id, format.Ext())
	if err := s.blobs.Put(ctx, s.blobs.BucketVariants(), key, out, format.MIME()); err != nil {
		return TimedResult{}, err
	}

	sl, err := s.slugs.Allocate(ctx, s.images.ExistsBySlug)
	if err != nil {
		_ = s.blobs.Remove(ctx, s.blobs.BucketVariants(), key)
		return TimedResult{}, err
	}

	thumbnail := models.Image{
		ID:            id,
		OwnerID:       input.Owner.ID,
		ThumbnailSize: &input.Size,
		Bucket:        s.blobs.BucketVariants(),
		ObjectKey:     key,
		Width:         input.Size,
		Height:        input.Size,
		Slug:          sl,
		ExpireSeconds: &input.TTL,
		CreatedAt:     s.now(),
	}
	if err := s.images.Create(ctx, thumbnail); err != nil {
		_ = s.blobs.Remove(ctx, s.blobs.BucketVariants(), key)
		return TimedResult{}, fmt.Errorf("persist timed thumbnail: %w", err)
	}

	return TimedResult{
		Size:   input.Size,
		TTL:    input.TTL,
		ImgURL: s.slugURL(thumbnail.Slug),
	}, nil
}

// ValidateTimedParams enforces the time-limited ranges at the request
// boundary, before the derivation component runs.
func ValidateTimedParams(size, ttl int) error {
	fields := make(map[string]string)
	if size < minTimedSize || size > maxTimedSize {
		fields["thumbnail_size"] = fmt.Sprintf("must be between %d and %d", minTimedSize, maxTimedSize)
	}
	if ttl < minExpire || ttl > maxExpire {
		fields["expire_time"] = fmt.Sprintf("must be between %d and %d", minExpire, maxExpire)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ImageView is the list/detail serialization of an asset.
type ImageView struct {
	ID      string `json:"id"`
	ImgURL  string `json:"img_url"`
	ImgSize string `json:"img_size"`
}

func (s *ImageService) List(ctx context.Context, owner models.User, tier *models.AccountTier) ([]ImageView, error) {
	images, err := s.images.ListByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	views := make([]ImageView, 0, len(images))
	for _, img := range images {
		views = append(views, s.view(img, tier))
	}
	return views, nil
}

func (s *ImageService) Get(ctx context.Context, owner models.User, tier *models.AccountTier, id string) (ImageView, error) {
	img, err := s.images.GetByOwnerAndID(ctx, owner.ID, id)
	if err != nil {
		if isNotFound(err) {
			return ImageView{}, ErrNotFound
		}
		return ImageView{}, err
	}
	return s.view(img, tier), nil
}

type ServeResult struct {
	Data        []byte
	ContentType string
	Expired     bool
}

// Serve resolves a public slug. Expiry is advisory: an expired asset is
// reported as such, nothing is deleted.
func (s *ImageService) Serve(ctx context.Context, slugStr string) (ServeResult, error) {
	img, err := s.images.GetBySlug(ctx, slugStr)
	if err != nil {
		if isNotFound(err) {
			return ServeResult{}, ErrNotFound
		}
		return ServeResult{}, err
	}

	if img.Expired(s.now()) {
		return ServeResult{Expired: true}, nil
	}

	data, err := s.blobs.Get(ctx, img.Bucket, img.ObjectKey)
	if err != nil {
		return ServeResult{}, err
	}
	return ServeResult{
		Data:        data,
		ContentType: sniffer.FormatFromKey(img.ObjectKey).MIME(),
	}, nil
}

// SweepExpired deletes time-limited thumbnails whose expiry lies past
// the retention grace period. Serve-time expiry stays advisory; this is
// a separate retention policy run by the scheduler.
func (s *ImageService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.Jobs.RetentionGrace)
	expired, err := s.images.ListExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, img := range expired {
		if err := s.images.DeleteByID(ctx, img.ID); err != nil {
			s.log.Error().Err(err).Str("image_id", img.ID).Msg("retention delete failed")
			continue
		}
		s.enqueueDelete(ctx, img.Bucket, img.ObjectKey)
		removed++
	}
	return removed, nil
}

func (s *ImageService) validateUpload(filename string, data []byte) (sniffer.Format, int, int, error) {
	if len(data) == 0 {
		return "", 0, 0, NewValidationError("image", "No file was submitted.")
	}
	if max := s.cfg.Upload.MaxBytes; max > 0 && int64(len(data)) > max {
		return "", 0, 0, NewValidationError("image", fmt.Sprintf("file exceeds %d bytes", max))
	}

	format, err := sniffer.Detect(filename, data)
	if err != nil {
		return "", 0, 0, NewValidationError("image", err.Error())
	}

	width, height, err := render.Dimensions(data)
	if err != nil {
		return "", 0, 0, NewValidationError("image", "corrupt image data")
	}
	return format, width, height, nil
}

func (s *ImageService) storeOriginal(ctx context.Context, owner models.User, format sniffer.Format, width, height int, data []byte) (models.Image, error) {
	id := ids.New()
	key := objectKey(owner.ID, id, format.Ext())

	if err := s.blobs.Put(ctx, s.blobs.BucketOriginals(), key, data, format.MIME()); err != nil {
		return models.Image{}, err
	}

	sl, err := s.slugs.Allocate(ctx, s.images.ExistsBySlug)
	if err != nil {
		_ = s.blobs.Remove(ctx, s.blobs.BucketOriginals(), key)
		return models.Image{}, err
	}

	original := models.Image{
		ID:        id,
		OwnerID:   owner.ID,
		Bucket:    s.blobs.BucketOriginals(),
		ObjectKey: key,
		Width:     width,
		Height:    height,
		Slug:      sl,
		CreatedAt: s.now(),
	}
	if err := s.images.Create(ctx, original); err != nil {
		_ = s.blobs.Remove(ctx, s.blobs.BucketOriginals(), key)
		return models.Image{}, fmt.Errorf("persist original: %w", err)
	}
	return original, nil
}

func (s *ImageService) view(img models.Image, tier *models.AccountTier) ImageView {
	view := ImageView{
		ID:      img.ID,
		ImgSize: img.Dimensions(),
	}
	if img.IsOriginal() && (tier == nil || !tier.KeepOriginal) {
		view.ImgURL = UpgradePrompt
	} else {
		view.ImgURL = s.slugURL(img.Slug)
	}
	return view
}

func (s *ImageService) enqueueDelete(ctx context.Context, bucket, key string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.EnqueueDeleteBlob(ctx, bucket, key); err != nil {
		s.log.Warn().Err(err).Str("object_key", key).Msg("enqueue blob delete failed")
	}
}

func (s *ImageService) slugURL(sl string) string {
	base := strings.TrimSuffix(s.cfg.HTTP.PublicBaseURL, "/")
	return base + "/i/" + sl + "/"
}

func (s *ImageService) renderParallel() int {
	if n := s.cfg.Upload.RenderParallel; n > 0 {
		return n
	}
	return 4
}

func objectKey(ownerID, imageID, ext string) string {
	return fmt.Sprintf("user_%s/%s.%s", ownerID, imageID, ext)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrImageNotFound)
}
