package repo

import "context"

// Sender delivers a reply to the customer's messaging channel.
type Sender interface {
	Send(ctx context.Context, customer, text string) error
}
