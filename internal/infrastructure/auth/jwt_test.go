package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailpos/backend/internal/infrastructure/config"
)

func newTestService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test-secret-at-least-32-characters-long",
		Expiration: expiration,
		Issuer:     "retailpos-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	t.Run("round-trips tenant and user claims", func(t *testing.T) {
		svc := newTestService(time.Hour)
		tenantID := uuid.New()
		userID := uuid.New()

		token, expiresAt, err := svc.GenerateToken(GenerateTokenInput{
			TenantID: tenantID,
			UserID:   userID,
			Username: "cashier1",
			Role:     "cashier",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, tenantID.String(), claims.TenantID)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, "cashier1", claims.Username)
		assert.Equal(t, "cashier", claims.Role)

		gotTenant, err := claims.GetTenantUUID()
		require.NoError(t, err)
		assert.Equal(t, tenantID, gotTenant)

		gotUser, err := claims.GetUserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, gotUser)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		svc := newTestService(-time.Minute)

		token, _, err := svc.GenerateToken(GenerateTokenInput{
			TenantID: uuid.New(),
			UserID:   uuid.New(),
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, ErrExpiredToken, err)
	})

	t.Run("rejects tokens signed with a different secret", func(t *testing.T) {
		svc := newTestService(time.Hour)
		other := NewJWTService(config.JWTConfig{
			Secret:     "another-secret-also-32-characters-x",
			Expiration: time.Hour,
			Issuer:     "retailpos-test",
		})

		token, _, err := other.GenerateToken(GenerateTokenInput{
			TenantID: uuid.New(),
			UserID:   uuid.New(),
		})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("rejects garbage input", func(t *testing.T) {
		svc := newTestService(time.Hour)

		_, err := svc.ValidateToken("not-a-jwt")
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("rejects tokens missing the tenant claim", func(t *testing.T) {
		svc := newTestService(time.Hour)

		now := time.Now()
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			UserID: uuid.New().String(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte("test-secret-at-least-32-characters-long"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Equal(t, ErrMissingTenantID, err)
	})
}
