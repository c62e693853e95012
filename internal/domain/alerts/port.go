package alerts

import "context"

// Sink consumes alerts (webhook, file, etc.).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, a *Alert) error
	Close(ctx context.Context) error
}
