package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

const keyPrefix = "kyc:ready:"

// Tracker stores validated document types in one Redis set per customer so
// several workers share the same readiness view. Each write refreshes the TTL.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// New parses url and pings the server.
func New(ctx context.Context, url string, ttl time.Duration) (*Tracker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tracker{client: client, ttl: ttl}
}

func (t *Tracker) MarkValidated(ctx context.Context, customerID string, docType domain.DocumentType) ([]domain.DocumentType, error) {
	key := keyPrefix + customerID
	var members *redis.StringSliceCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, string(docType))
		pipe.Expire(ctx, key, t.ttl)
		members = pipe.SMembers(ctx, key)
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "mark readiness", err)
	}
	return ordered(members.Val()), nil
}

func (t *Tracker) Reset(ctx context.Context, customerID string) error {
	if err := t.client.Del(ctx, keyPrefix+customerID).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "reset readiness", err)
	}
	return nil
}

func (t *Tracker) Health(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *Tracker) Close() error {
	return t.client.Close()
}

func ordered(members []string) []domain.DocumentType {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	out := make([]domain.DocumentType, 0, len(members))
	for _, t := range append(domain.SupportedDocumentTypes(), domain.DocUnknown) {
		if _, ok := set[string(t)]; ok {
			out = append(out, t)
		}
	}
	return out
}
