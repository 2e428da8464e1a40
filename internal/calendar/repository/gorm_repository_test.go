package repository

import (
	"testing"
	"time"

	"github.com/steventyyeh/kailendar-v2/internal/calendar/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.CalendarConnection{}))
	return db
}

func TestGormConnectionRepository_Lifecycle(t *testing.T) {
	repo := NewGormConnectionRepository(newTestDB(t))

	missing, err := repo.FindByUserID("u1")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, missing.IsConnected())

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.Save(&domain.CalendarConnection{
		UserID:       "u1",
		AccessToken:  "a1",
		RefreshToken: "r1",
		TokenExpiry:  expiry,
	}))

	conn, err := repo.FindByUserID("u1")
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.True(t, conn.IsConnected())
	assert.Equal(t, domain.PrimaryCalendarID, conn.TargetCalendar())

	require.NoError(t, repo.UpdateTokens("u1", "a2", "", expiry.Add(time.Hour)))
	conn, _ = repo.FindByUserID("u1")
	assert.Equal(t, "a2", conn.AccessToken)
	assert.Equal(t, "r1", conn.RefreshToken, "refresh token survives an access-only refresh")

	require.NoError(t, repo.UpdateCalendars("u1", []domain.CalendarSummary{{ID: "primary", Summary: "Me", Primary: true}}))
	require.NoError(t, repo.Save(&domain.CalendarConnection{UserID: "u1", AccessToken: "a3", RefreshToken: "r3"}))
	conn, _ = repo.FindByUserID("u1")
	assert.Equal(t, "r3", conn.RefreshToken, "save upserts")

	require.NoError(t, repo.Delete("u1"))
	conn, err = repo.FindByUserID("u1")
	require.NoError(t, err)
	assert.Nil(t, conn)
}
