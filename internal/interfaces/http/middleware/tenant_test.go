package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func tenantTestEngine(cfg TenantMiddlewareConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(TenantMiddlewareWithConfig(cfg))
	engine.GET("/api/v1/customers", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant_id": GetTenantID(c)})
	})
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func TestTenantMiddleware(t *testing.T) {
	t.Run("header sets tenant", func(t *testing.T) {
		tenantID := uuid.New()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
		req.Header.Set(TenantHeaderKey, tenantID.String())
		w := httptest.NewRecorder()
		tenantTestEngine(DefaultTenantConfig()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), tenantID.String())
	})

	t.Run("jwt claim wins over header", func(t *testing.T) {
		jwtTenant := uuid.New()
		headerTenant := uuid.New()

		engine := gin.New()
		engine.Use(func(c *gin.Context) {
			c.Set(JWTTenantIDKey, jwtTenant.String())
		})
		engine.Use(TenantMiddlewareWithConfig(DefaultTenantConfig()))
		engine.GET("/api/v1/customers", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"tenant_id": GetTenantID(c)})
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
		req.Header.Set(TenantHeaderKey, headerTenant.String())
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Contains(t, w.Body.String(), jwtTenant.String())
	})

	t.Run("invalid tenant format rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
		req.Header.Set(TenantHeaderKey, "'; DROP TABLE customers; --")
		w := httptest.NewRecorder()
		tenantTestEngine(DefaultTenantConfig()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("required mode rejects missing tenant", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = true

		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
		w := httptest.NewRecorder()
		tenantTestEngine(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip path bypasses requirement", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.Required = true

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		tenantTestEngine(cfg).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
