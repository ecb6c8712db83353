package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setJWTContext simulates an authenticated request without a real token
func setJWTContext(c *gin.Context, tenantID, userID uuid.UUID) {
	c.Set("jwt_tenant_id", tenantID.String())
	c.Set("jwt_user_id", userID.String())
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetTenantID(t *testing.T) {
	t.Run("from JWT claims", func(t *testing.T) {
		c, _ := newTestContext(t)
		tenantID := uuid.New()
		setJWTContext(c, tenantID, uuid.New())

		got, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("from header when no claims", func(t *testing.T) {
		c, _ := newTestContext(t)
		tenantID := uuid.New()
		c.Request.Header.Set("X-Tenant-ID", tenantID.String())

		got, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, tenantID, got)
	})

	t.Run("development default when absent", func(t *testing.T) {
		c, _ := newTestContext(t)

		got, err := getTenantID(c)
		require.NoError(t, err)
		assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000001"), got)
	})

	t.Run("invalid header value", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-Tenant-ID", "not-a-uuid")

		_, err := getTenantID(c)
		assert.Error(t, err)
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("from context", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set("request_id", "ctx-id")
		c.Request.Header.Set("X-Request-ID", "header-id")
		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("header fallback", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-Request-ID", "header-id")
		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty when unset", func(t *testing.T) {
		c, _ := newTestContext(t)
		assert.Equal(t, "", getRequestID(c))
	})
}

func TestGetActor(t *testing.T) {
	t.Run("prefers username", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set("jwt_username", "cashier-3")
		c.Set("jwt_user_id", uuid.New().String())
		assert.Equal(t, "cashier-3", getActor(c))
	})

	t.Run("falls back to user ID", func(t *testing.T) {
		c, _ := newTestContext(t)
		userID := uuid.New()
		c.Set("jwt_user_id", userID.String())
		assert.Equal(t, userID.String(), getActor(c))
	})

	t.Run("system when unauthenticated", func(t *testing.T) {
		c, _ := newTestContext(t)
		assert.Equal(t, "system", getActor(c))
	})
}

func TestToFilter(t *testing.T) {
	t.Run("defaults preserved for zero request", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{})
		assert.Equal(t, 1, filter.Page)
		assert.Equal(t, 20, filter.PageSize)
		assert.Equal(t, "created_at", filter.OrderBy)
		assert.Equal(t, "desc", filter.OrderDir)
	})

	t.Run("request values override defaults", func(t *testing.T) {
		filter := toFilter(dto.ListRequest{
			Page:     3,
			PageSize: 50,
			OrderBy:  "code",
			OrderDir: "asc",
			Search:   "walk-in",
		})
		assert.Equal(t, 3, filter.Page)
		assert.Equal(t, 50, filter.PageSize)
		assert.Equal(t, "code", filter.OrderBy)
		assert.Equal(t, "asc", filter.OrderDir)
		assert.Equal(t, "walk-in", filter.Search)
	})
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"optimistic lock", shared.ErrOptimisticLock, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"exceeds due", shared.ErrExceedsDue, http.StatusUnprocessableEntity, dto.ErrCodeExceedsDue},
		{"amount mismatch", shared.ErrAmountMismatch, http.StatusUnprocessableEntity, dto.ErrCodeAmountMismatch},
		{"unsupported gateway", shared.ErrUnsupportedGateway, http.StatusBadRequest, dto.ErrCodeUnsupportedGateway},
		{"unknown error hides details", errors.New("pq: connection refused"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)

			if tt.expectedCode == dto.ErrCodeInternal {
				assert.NotContains(t, resp.Error.Message, "pq:")
			}
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
		_ = c
	})
}
