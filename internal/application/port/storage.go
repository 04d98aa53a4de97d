package port

import (
	"context"
	"time"
)

// ObjectStorage defines durable artifact storage operations
type ObjectStorage interface {
	// Upload stores body under key, replacing any existing object
	Upload(ctx context.Context, key string, body []byte, contentType string) error

	// PresignGet returns a credential-free link to key valid for ttl
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
