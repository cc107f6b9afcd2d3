// Package redis connects a go-redis client with retries and exposes a
// health probe.
package redis
