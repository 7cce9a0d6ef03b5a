package logging

import (
	"context"

	"github.com/google/uuid"
)

// NewRequestID returns a random request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// NewRequestContext returns ctx tagged with a fresh request ID, plus the ID.
func NewRequestContext(ctx context.Context) (context.Context, string) {
	id := NewRequestID()
	return WithRequestID(ctx, id), id
}
