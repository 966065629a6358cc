package interfaces

import "context"

// EventPublisher fans committed ledger mutations out to interested consumers.
// Key selects the partition so events for one account stay ordered.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
