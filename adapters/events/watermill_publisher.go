package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/shelby2770/testsso/ports"
)

const (
	// LoginTopic carries session-established events.
	LoginTopic = "sso.login"

	// LogoutTopic carries session-teardown events.
	LogoutTopic = "sso.logout"
)

// SessionEvent is the payload published on session lifecycle changes.
type SessionEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a session-established event.
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID, username string) error {
	return p.publish(LoginTopic, userID, username)
}

// PublishLogout publishes a session-teardown event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID, username string) error {
	return p.publish(LogoutTopic, userID, username)
}

func (p *WatermillPublisher) publish(topic, userID, username string) error {
	payload, err := json.Marshal(SessionEvent{UserID: userID, Username: username})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(userID, payload)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
