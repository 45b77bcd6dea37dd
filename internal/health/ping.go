package health

import "context"

// HealthPinger is implemented by components that can probe their own
// backing dependency. HealthPing returns nil when the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
