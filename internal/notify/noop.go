package notify

import "context"

// Noop discards every message. Used in tests and when push delivery is
// disabled by configuration.
type Noop struct{}

// Publish implements Notifier.
func (Noop) Publish(context.Context, ...Message) error {
	return nil
}
