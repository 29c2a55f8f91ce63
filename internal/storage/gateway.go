package storage

import (
	"context"
	"errors"
	"fmt"
)

// Gateway is durable string-keyed storage.
// Implementations: Memory, repository/redis, repository/postgresql, repository/sqlite.
type Gateway interface {
	// Get returns ok=false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove succeeds when the key does not exist.
	Remove(ctx context.Context, key string) error
}

var ErrCorrupt = errors.New("corrupt record")

// PersistenceError wraps a failed read, write or decode of a persisted key.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Keys names the two logical records of a batch.
type Keys struct {
	Snapshot string
	Request  string
}

const DefaultKeyPrefix = "bulkgen:batch"

// NewKeys builds the record keys under prefix (DefaultKeyPrefix if empty).
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keys{
		Snapshot: prefix + ":snapshot",
		Request:  prefix + ":request",
	}
}
