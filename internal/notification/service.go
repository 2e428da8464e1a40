package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	authrepo "github.com/steventyyeh/kailendar-v2/internal/auth/repository"
	goaldomain "github.com/steventyyeh/kailendar-v2/internal/goal/domain"
	"github.com/steventyyeh/kailendar-v2/pkg/fcm"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// EventType names a goal lifecycle event.
type EventType string

const (
	EventGoalReady  EventType = "goal.ready"
	EventGoalFailed EventType = "goal.failed"
)

// Notifier tells a goal's owner how generation went. Delivery is best effort.
type Notifier interface {
	GoalReady(ctx context.Context, goal *goaldomain.Goal, taskCount int)
	GoalFailed(ctx context.Context, goal *goaldomain.Goal, reason string)
}

// PushSender delivers to device tokens and returns the tokens that are no longer valid.
type PushSender interface {
	SendToDevices(ctx context.Context, tokens []string, notification fcm.NotificationData) ([]string, error)
}

// Publisher emits lifecycle events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, event *LifecycleEvent) error
}

// LifecycleEvent is the bus payload for a goal state change.
type LifecycleEvent struct {
	Type       EventType `json:"type"`
	GoalID     string    `json:"goalId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	TaskCount  int       `json:"taskCount,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Service struct {
	fcmRepo     authrepo.FCMTokenRepository
	push        PushSender
	publisher   Publisher
	frontendURL string
}

// NewService creates a Notifier. push and publisher may be nil to skip that channel.
func NewService(fcmRepo authrepo.FCMTokenRepository, push PushSender, publisher Publisher, frontendURL string) *Service {
	return &Service{
		fcmRepo:     fcmRepo,
		push:        push,
		publisher:   publisher,
		frontendURL: frontendURL,
	}
}

func (s *Service) GoalReady(ctx context.Context, goal *goaldomain.Goal, taskCount int) {
	body := "Your plan is ready to review."
	if taskCount > 0 {
		body = fmt.Sprintf("%d tasks were added to your calendar.", taskCount)
	}
	s.pushToOwner(ctx, goal, fcm.NotificationData{
		Title: "🎯 " + goal.Specificity,
		Body:  body,
		Data: map[string]string{
			"type":       string(EventGoalReady),
			"goal_id":    goal.ID,
			"task_count": strconv.Itoa(taskCount),
		},
		Link: s.goalLink(goal),
	})
	s.publish(ctx, &LifecycleEvent{
		Type:      EventGoalReady,
		GoalID:    goal.ID,
		UserID:    goal.UserID,
		Status:    string(goal.Status),
		TaskCount: taskCount,
	})
}

func (s *Service) GoalFailed(ctx context.Context, goal *goaldomain.Goal, reason string) {
	s.pushToOwner(ctx, goal, fcm.NotificationData{
		Title: "We couldn't build your plan",
		Body:  "Please try creating the goal again.",
		Data: map[string]string{
			"type":    string(EventGoalFailed),
			"goal_id": goal.ID,
		},
		Link: s.frontendURL + "/goals",
	})
	s.publish(ctx, &LifecycleEvent{
		Type:   EventGoalFailed,
		GoalID: goal.ID,
		UserID: goal.UserID,
		Status: string(goaldomain.GoalStatusDeleted),
		Reason: reason,
	})
}

func (s *Service) goalLink(goal *goaldomain.Goal) string {
	if s.frontendURL == "" {
		return ""
	}
	return s.frontendURL + "/goals/" + goal.ID
}

func (s *Service) pushToOwner(ctx context.Context, goal *goaldomain.Goal, n fcm.NotificationData) {
	if s.push == nil || s.fcmRepo == nil {
		return
	}
	tokens, err := s.fcmRepo.GetTokensByUserID(goal.UserID)
	if err != nil {
		log.Printf("[Notification] Error getting FCM tokens for user %s: %v", goal.UserID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	tokenStrings := make([]string, 0, len(tokens))
	for _, t := range tokens {
		tokenStrings = append(tokenStrings, t.Token)
	}
	failed, err := s.push.SendToDevices(ctx, tokenStrings, n)
	if err != nil {
		log.Printf("[Notification] Error sending push for goal %s: %v", goal.ID, err)
		return
	}
	for _, token := range failed {
		if err := s.fcmRepo.DeleteToken(token); err != nil {
			log.Printf("[Notification] Error removing stale token: %v", err)
		}
	}
}

func (s *Service) publish(ctx context.Context, event *LifecycleEvent) {
	if s.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[Notification] Error publishing %s for goal %s: %v", event.Type, event.GoalID, err)
	}
}

// PubSubPublisher publishes lifecycle events to a Pub/Sub topic.
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher connects to the topic. The topic must already exist.
func NewPubSubPublisher(ctx context.Context, projectID, topicName, credentialsFile string) (*PubSubPublisher, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to check topic %s: %w", topicName, err)
	}
	if !exists {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %s does not exist", topicName)
	}

	log.Printf("[PubSub] Publishing goal lifecycle events to %s", topicName)
	return &PubSubPublisher{client: client, topic: topic}, nil
}

func (p *PubSubPublisher) Publish(ctx context.Context, event *LifecycleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":    string(event.Type),
			"goal_id": event.GoalID,
		},
	})
	_, err = result.Get(ctx)
	return err
}

// Close flushes pending messages and releases the client.
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}

type nopNotifier struct{}

// NewNopNotifier returns a Notifier that does nothing.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) GoalReady(ctx context.Context, goal *goaldomain.Goal, taskCount int) {}
func (nopNotifier) GoalFailed(ctx context.Context, goal *goaldomain.Goal, reason string) {}
