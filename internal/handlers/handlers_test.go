package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbforge/internal/middleware"
	"thumbforge/internal/models"
	"thumbforge/internal/service"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/timed", nil)
	return c, rec
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/timed", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestRespondErrorMapping(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop()}

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", service.NewValidationError("image", "No file was submitted."), http.StatusBadRequest, `{"image":"No file was submitted."}`},
		{"missing tier", service.ErrTierRequired, http.StatusBadRequest, `{"error":"account has no tier assigned"}`},
		{"not found", service.ErrNotFound, http.StatusNotFound, `{"detail":"Item not found"}`},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid credentials"}`},
		{"internal", assert.AnError, http.StatusInternalServerError, `{"error":"internal_server_error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := testContext(t)
			h.respondError(c, tt.err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestReadTimedParams(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop()}

	t.Run("missing fields", func(t *testing.T) {
		c, rec := testContext(t)
		c.Request = formRequest(url.Values{})

		_, _, ok := h.readTimedParams(c)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"thumbnail_size":"This field is required.","expire_time":"This field is required."}`, rec.Body.String())
	})

	t.Run("out of range", func(t *testing.T) {
		c, rec := testContext(t)
		c.Request = formRequest(url.Values{
			"thumbnail_size": {"300"},
			"expire_time":    {"299"},
		})

		_, _, ok := h.readTimedParams(c)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "expire_time")
	})

	t.Run("valid", func(t *testing.T) {
		c, _ := testContext(t)
		c.Request = formRequest(url.Values{
			"thumbnail_size": {"300"},
			"expire_time":    {"400"},
		})

		size, ttl, ok := h.readTimedParams(c)
		require.True(t, ok)
		assert.Equal(t, 300, size)
		assert.Equal(t, 400, ttl)
	})
}

// fakeTierStore resolves every lookup to one fixed tier.
type fakeTierStore struct {
	tier models.AccountTier
	err  error
}

func (f fakeTierStore) GetByID(ctx context.Context, id string) (models.AccountTier, error) {
	if f.err != nil {
		return models.AccountTier{}, f.err
	}
	return f.tier, nil
}

func (f fakeTierStore) List(ctx context.Context) ([]models.AccountTier, error) {
	return []models.AccountTier{f.tier}, f.err
}

func (f fakeTierStore) Create(ctx context.Context, tier models.AccountTier) error {
	return f.err
}

func TestUploadTimedRejectedForTierWithoutTimedLinks(t *testing.T) {
	// imageService stays nil: reaching it would panic, so a passing
	// test also proves the gate creates nothing.
	h := HandlerSet{
		log: zerolog.Nop(),
		tiers: fakeTierStore{tier: models.AccountTier{
			ID:             "t2",
			Name:           "Premium",
			ThumbnailSizes: []int{200, 400},
			KeepOriginal:   true,
			TimedLinks:     false,
		}},
	}

	c, rec := testContext(t)
	tierID := "t2"
	c.Set(middleware.CurrentUserKey, models.User{ID: "user1", Username: "alice", TierID: &tierID})

	h.UploadTimed(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Upgrade your account, to access time limited thumbnails"}`, rec.Body.String())
}

func TestUploadTimedAdmittedForTierWithTimedLinks(t *testing.T) {
	h := HandlerSet{
		log: zerolog.Nop(),
		tiers: fakeTierStore{tier: models.AccountTier{
			ID:         "t3",
			Name:       "Enterprise",
			TimedLinks: true,
		}},
	}

	c, rec := testContext(t)
	c.Request = formRequest(url.Values{})
	tierID := "t3"
	c.Set(middleware.CurrentUserKey, models.User{ID: "user1", Username: "alice", TierID: &tierID})

	h.UploadTimed(c)

	// Past the gate: the request fails on the missing form fields, not
	// with the upgrade message.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"thumbnail_size":"This field is required.","expire_time":"This field is required."}`, rec.Body.String())
}

func TestUploadTimedRequiresTier(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop()}

	c, rec := testContext(t)
	c.Set(middleware.CurrentUserKey, models.User{ID: "user1", Username: "alice"})

	h.UploadTimed(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"account has no tier assigned"}`, rec.Body.String())
}

func TestUploadTimedRequiresAuthenticatedUser(t *testing.T) {
	h := HandlerSet{log: zerolog.Nop()}

	c, rec := testContext(t)
	h.UploadTimed(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
