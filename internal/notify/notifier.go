// Package notify publishes out-of-band user notifications over redis
// pub/sub. Any session subscribed to the invitee's channel receives
// invitation events as they are created.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// InvitationNotice is the payload published when a user is invited to
// a team.
type InvitationNotice struct {
	InvitationID string `json:"id"`
	TeamName     string `json:"team_name"`
	Token        string `json:"token"`
	InviterName  string `json:"inviter_name"`
}

// Notifier delivers per-user events to whatever transport backs it.
type Notifier interface {
	PublishInvitation(ctx context.Context, email string, notice InvitationNotice) error
}

// RedisNotifier publishes to the channel "user-{email}" with a typed
// envelope, mirroring the channel naming the web client subscribes to.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func (n *RedisNotifier) PublishInvitation(ctx context.Context, email string, notice InvitationNotice) error {
	if n.client == nil {
		return nil
	}

	payload, err := json.Marshal(envelope{Event: "new-invitation", Data: notice})
	if err != nil {
		return fmt.Errorf("marshaling notice: %w", err)
	}

	if err := n.client.Publish(ctx, UserChannel(email), payload).Err(); err != nil {
		return fmt.Errorf("publishing notice: %w", err)
	}
	return nil
}

// UserChannel returns the pub/sub channel for a user's notifications.
func UserChannel(email string) string {
	return "user-" + email
}

var _ Notifier = (*RedisNotifier)(nil)
