package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"thumbforge/internal/config"
	"thumbforge/internal/middleware"
	"thumbforge/internal/models"
	"thumbforge/internal/repository"
	"thumbforge/internal/service"
)

// TierStore is the slice of the tier repository the handlers consume.
type TierStore interface {
	GetByID(ctx context.Context, id string) (models.AccountTier, error)
	List(ctx context.Context) ([]models.AccountTier, error)
	Create(ctx context.Context, tier models.AccountTier) error
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	authService  *service.AuthService
	imageService *service.ImageService
	db           *pgxpool.Pool
	cache        *redis.Client
	users        *repository.UserRepository
	tokens       *repository.TokenRepository
	tiers        TierStore
	images       *repository.ImageRepository
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *pgxpool.Pool,
	cache *redis.Client,
	authService *service.AuthService,
	imageService *service.ImageService,
	users *repository.UserRepository,
	tokens *repository.TokenRepository,
	tiers TierStore,
	images *repository.ImageRepository,
) HandlerSet {
	return HandlerSet{
		log:          log,
		cfg:          cfg,
		authService:  authService,
		imageService: imageService,
		db:           db,
		cache:        cache,
		users:        users,
		tokens:       tokens,
		tiers:        tiers,
		images:       images,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	// Public slug-addressed image endpoint, mirroring /i/<slug>/.
	engine.GET("/i/:slug", h.ServeImage)

	api := engine.Group("/api")
	api.GET("/healthz", h.Health)

	v1 := api.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/tokens", middleware.Auth(h.cfg, h.users, h.tokens), h.IssueToken)

	thumbnails := v1.Group("/thumbnails")
	thumbnails.Use(middleware.Auth(h.cfg, h.users, h.tokens))
	thumbnails.GET("", h.ListImages)
	thumbnails.GET("/:id", h.GetImage)
	thumbnails.POST("", h.UploadImage)

	timed := v1.Group("/timed")
	timed.Use(middleware.Auth(h.cfg, h.users, h.tokens))
	timed.POST("", h.UploadTimed)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.users, h.tokens),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/images", h.AdminListImages)
	admin.GET("/tiers", h.AdminListTiers)
	admin.POST("/tiers", h.AdminCreateTier)
}

// resolveTier loads the caller's tier. A missing or dangling tier
// reference resolves to nil, which tier-gated handlers treat as its own
// case rather than an authorization failure.
func (h HandlerSet) resolveTier(c *gin.Context, user models.User) (*models.AccountTier, error) {
	if user.TierID == nil {
		return nil, nil
	}
	tier, err := h.tiers.GetByID(c.Request.Context(), *user.TierID)
	if err != nil {
		if errors.Is(err, repository.ErrTierNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// respondError maps the service error taxonomy onto HTTP responses.
// Internals are never leaked; 5xx bodies stay generic.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, vErr.Fields)
	case errors.Is(err, service.ErrTierRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrTierRequired.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Item not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
