package storage

import (
	"context"
	"fmt"
)

// NewStorage creates a storage backend based on the provided configuration
func NewStorage(ctx context.Context, config Config) (Storage, error) {
	switch config.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(config)
	case "postgres":
		return NewPostgresStorage(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
