package session

import (
	"context"
	"fmt"
	"strings"
)

type sessionStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// Checker looks up access sessions written by the auth service. A token
// whose jti has no live session was revoked at logout.
type Checker struct {
	store sessionStore
	keyer sessionKeyer
}

type redisSessionClient interface {
	sessionStore
	sessionKeyer
}

// NewChecker builds a checker over the shared redis client.
func NewChecker(client redisSessionClient) (*Checker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Checker{store: client, keyer: client}, nil
}

// HasSession reports whether the provided access ID still has an active session.
func (c *Checker) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	return c.store.Exists(ctx, c.keyer.AccessSessionKey(accessID))
}
