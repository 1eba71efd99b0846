// Package metrics exposes the handful of operational counters and
// gauges this module's components want observed: routing lost
// messages, tunnel heartbeat failures, reconnects, and the telegram
// queue's depth. Each instance of Registry owns its own
// prometheus.Registry rather than registering against the global
// default, so an embedding process can mount several independent
// clients without metric-name collisions.
package metrics
