package ports

import "context"

// EventPublisher notifies other components about session lifecycle changes.
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID, username string) error
	PublishLogout(ctx context.Context, userID, username string) error
}
