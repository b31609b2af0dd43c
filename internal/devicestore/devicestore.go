// Package devicestore provides the durable key/value persistence every cache
// component writes through. Values are JSON strings serialized by callers;
// the store itself never interprets them.
package devicestore

import "context"

// Store is durable key to string persistence that survives restarts.
// Get returns the empty string for absent keys rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	MultiRemove(ctx context.Context, keys []string) error
}
