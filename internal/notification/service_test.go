package notification

import (
	"context"
	"errors"
	"testing"

	authdomain "github.com/steventyyeh/kailendar-v2/internal/auth/domain"
	authrepo "github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/fcm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePush struct {
	sent   []fcm.NotificationData
	tokens [][]string
	failed []string
	err    error
}

func (f *fakePush) SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) ([]string, error) {
	f.sent = append(f.sent, n)
	f.tokens = append(f.tokens, tokens)
	return f.failed, f.err
}

type fakePublisher struct {
	events []*LifecycleEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event *LifecycleEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func newTokenRepo(t *testing.T) authrepo.FCMTokenRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&authdomain.FCMToken{}))
	return authrepo.NewFCMTokenRepository(db)
}

func TestService_GoalReady(t *testing.T) {
	repo := newTokenRepo(t)
	require.NoError(t, repo.SaveToken("u1", "tok-live", "Chrome"))
	require.NoError(t, repo.SaveToken("u1", "tok-stale", "Firefox"))
	push := &fakePush{failed: []string{"tok-stale"}}
	pub := &fakePublisher{}
	svc := NewService(repo, push, pub, "https://app.example.com")

	goal := &goaldomain.Goal{ID: "g1", UserID: "u1", Specificity: "Learn guitar", Status: goaldomain.GoalStatusReady}
	svc.GoalReady(context.Background(), goal, 12)

	require.Len(t, push.sent, 1)
	assert.ElementsMatch(t, []string{"tok-live", "tok-stale"}, push.tokens[0])
	assert.Equal(t, "12 tasks were added to your calendar.", push.sent[0].Body)
	assert.Equal(t, "https://app.example.com/goals/g1", push.sent[0].Link)
	assert.Equal(t, "12", push.sent[0].Data["task_count"])

	remaining, err := repo.GetTokensByUserID("u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "tok-live", remaining[0].Token)

	require.Len(t, pub.events, 1)
	assert.Equal(t, EventGoalReady, pub.events[0].Type)
	assert.Equal(t, "ready", pub.events[0].Status)
	assert.False(t, pub.events[0].OccurredAt.IsZero())
}

func TestService_GoalFailedIsBestEffort(t *testing.T) {
	repo := newTokenRepo(t)
	require.NoError(t, repo.SaveToken("u1", "tok", ""))
	push := &fakePush{err: errors.New("fcm down")}
	pub := &fakePublisher{err: errors.New("pubsub down")}
	svc := NewService(repo, push, pub, "")

	svc.GoalFailed(context.Background(), &goaldomain.Goal{ID: "g1", UserID: "u1"}, "panic")

	assert.Len(t, push.sent, 1)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "panic", pub.events[0].Reason)
	assert.Equal(t, "deleted", pub.events[0].Status)
}

func TestService_SkipsUnconfiguredChannels(t *testing.T) {
	svc := NewService(nil, nil, nil, "")
	svc.GoalReady(context.Background(), &goaldomain.Goal{ID: "g1"}, 0)

	repo := newTokenRepo(t)
	push := &fakePush{}
	NewService(repo, push, nil, "").GoalReady(context.Background(), &goaldomain.Goal{ID: "g1", UserID: "nobody"}, 0)
	assert.Empty(t, push.sent, "users without devices get no push")
}
