package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"
	authdto "github.com/steventyyeh/kailendar-v2/internal/auth/dto"
	"github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	"github.com/steventyyeh/kailendar-v2/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestUsecase(t *testing.T) (*authUsecase, repository.UserRepository, repository.FCMTokenRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&authdomain.User{}, &authdomain.FCMToken{}))

	users := repository.NewUserRepository(db)
	tokens := repository.NewFCMTokenRepository(db)
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Hour, GoogleClientID: "client-1"}
	uc := NewAuthUsecase(users, tokens, cfg).(*authUsecase)
	return uc, users, tokens
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthUsecase_ValidateTokenCreatesUser(t *testing.T) {
	uc, users, _ := newTestUsecase(t)
	token := signed(t, "test-secret", jwt.MapClaims{
		"user_id": "u1",
		"email":   "a@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	user, err := uc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	stored, err := users.FindByID("u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, authdomain.TierFree, stored.SubscriptionTier)

	again, err := uc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
}

func TestAuthUsecase_ValidateTokenRejects(t *testing.T) {
	uc, _, _ := newTestUsecase(t)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signed(t, "other", jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", signed(t, "test-secret", jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no subject", signed(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
		})
	}
}

func TestAuthUsecase_GoogleSignIn(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	info := GoogleTokenInfo{Sub: "g-123", Email: "b@example.com", EmailVerified: "true", Name: "Bea", Aud: "client-1"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") != "good" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(info)
	}))
	defer server.Close()
	uc.tokenInfoURL = server.URL

	resp, err := uc.GoogleSignIn(context.Background(), &authdto.GoogleSignInRequest{Token: "good", Timezone: "Asia/Taipei"})
	require.NoError(t, err)
	assert.Equal(t, "g-123", resp.User.ID)
	assert.Equal(t, "Asia/Taipei", resp.User.Timezone)

	user, err := uc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Bea", user.Name)

	_, err = uc.GoogleSignIn(context.Background(), &authdto.GoogleSignInRequest{Token: "bad"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)

	info.Aud = "someone-else"
	_, err = uc.GoogleSignIn(context.Background(), &authdto.GoogleSignInRequest{Token: "good"})
	assert.ErrorIs(t, err, authdomain.ErrInvalidToken)
}

func TestAuthUsecase_SubscriptionTierSurvivesUpsert(t *testing.T) {
	_, users, _ := newTestUsecase(t)
	require.NoError(t, users.Upsert(&authdomain.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, users.SetSubscriptionTier("u1", authdomain.TierPro))
	require.NoError(t, users.Upsert(&authdomain.User{ID: "u1", Name: "Ann"}))

	user, err := users.FindByID("u1")
	require.NoError(t, err)
	assert.True(t, user.IsPro())
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "a@example.com", user.Email)
}

func TestAuthUsecase_FCMTokens(t *testing.T) {
	uc, _, tokens := newTestUsecase(t)

	require.NoError(t, uc.RegisterFCMToken("u1", &authdto.RegisterFCMTokenRequest{Token: "tok-1", DeviceInfo: "Chrome"}))
	require.NoError(t, uc.RegisterFCMToken("u1", &authdto.RegisterFCMTokenRequest{Token: "tok-2"}))
	require.NoError(t, uc.RegisterFCMToken("u2", &authdto.RegisterFCMTokenRequest{Token: "tok-2"}))

	got, err := tokens.GetTokensByUserID("u1")
	require.NoError(t, err)
	require.Len(t, got, 1, "a re-registered device moves to its new owner")
	assert.Equal(t, "tok-1", got[0].Token)

	require.NoError(t, uc.UnregisterFCMToken("u1", "tok-2"))
	got, _ = tokens.GetTokensByUserID("u2")
	assert.Len(t, got, 1, "users cannot remove each other's devices")

	assert.Error(t, uc.RegisterFCMToken("u1", &authdto.RegisterFCMTokenRequest{}))
}
