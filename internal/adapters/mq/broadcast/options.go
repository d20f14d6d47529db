package broadcast

type config struct {
	maxListeners int
}

// Option applies a configuration option to a Broadcaster.
type Option func(*config)

// WithMaxListeners caps the number of concurrent subscriptions.
func WithMaxListeners(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxListeners = n
		}
	}
}
