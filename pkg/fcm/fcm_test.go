package fcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMulticast(t *testing.T) {
	msg := BuildMulticast([]string{"a", "b"}, NotificationData{
		Title: "Your plan is ready",
		Body:  "12 tasks were added",
		Data:  map[string]string{"goal_id": "g1"},
		Link:  "https://app.example.com/goals/g1",
	})

	assert.Equal(t, []string{"a", "b"}, msg.Tokens)
	assert.Equal(t, "Your plan is ready", msg.Notification.Title)
	assert.Equal(t, "g1", msg.Data["goal_id"])
	require.NotNil(t, msg.Webpush.FCMOptions)
	assert.Equal(t, "https://app.example.com/goals/g1", msg.Webpush.FCMOptions.Link)
	assert.Equal(t, webIcon, msg.Webpush.Notification.Icon)
}

func TestBuildMulticast_WithoutLink(t *testing.T) {
	msg := BuildMulticast([]string{"a"}, NotificationData{Title: "t"})
	assert.Nil(t, msg.Webpush.FCMOptions)
}
