// Package redis provides a Redis-backed merchant activity store for
// deployments where presence churn should stay out of the SQL database.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"negoshop/internal/domain"
)

const keyPrefix = "negoshop:activity:"

// ActivityRepo stores one hash per merchant under negoshop:activity:<id>.
type ActivityRepo struct {
	rdb *redis.Client
}

func NewActivityRepo(rdb *redis.Client) *ActivityRepo {
	return &ActivityRepo{rdb: rdb}
}

var _ domain.ActivityRepository = (*ActivityRepo)(nil)

func key(merchantID int64) string {
	return keyPrefix + strconv.FormatInt(merchantID, 10)
}

func (r *ActivityRepo) Get(ctx context.Context, merchantID int64) (*domain.MerchantActivity, error) {
	fields, err := r.rdb.HGetAll(ctx, key(merchantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseActivity(merchantID, fields)
}

func (r *ActivityRepo) Upsert(ctx context.Context, a *domain.MerchantActivity) error {
	err := r.rdb.HSet(ctx, key(a.MerchantID), map[string]any{
		"session_key":       a.SessionKey,
		"is_online":         strconv.FormatBool(a.IsOnline),
		"is_active_in_chat": strconv.FormatBool(a.IsActiveInChat),
		"last_seen":         a.LastSeen.UTC().Format(time.RFC3339Nano),
		"last_login":        a.LastLogin.UTC().Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepo) MarkOffline(ctx context.Context, staleBefore time.Time) (int64, error) {
	var changed int64
	err := r.forEach(ctx, func(a *domain.MerchantActivity) error {
		if !a.IsOnline || !a.LastSeen.Before(staleBefore) {
			return nil
		}
		if err := r.rdb.HSet(ctx, key(a.MerchantID), "is_online", "false").Err(); err != nil {
			return err
		}
		changed++
		return nil
	})
	if err != nil {
		return changed, fmt.Errorf("mark offline: %w", err)
	}
	return changed, nil
}

func (r *ActivityRepo) MarkOnline(ctx context.Context, activeSince time.Time) (int64, error) {
	var changed int64
	err := r.forEach(ctx, func(a *domain.MerchantActivity) error {
		if a.IsOnline || a.LastSeen.Before(activeSince) {
			return nil
		}
		if err := r.rdb.HSet(ctx, key(a.MerchantID), "is_online", "true").Err(); err != nil {
			return err
		}
		changed++
		return nil
	})
	if err != nil {
		return changed, fmt.Errorf("mark online: %w", err)
	}
	return changed, nil
}

func (r *ActivityRepo) SetChatActive(ctx context.Context, merchantIDs []int64) error {
	active := make(map[int64]bool, len(merchantIDs))
	for _, id := range merchantIDs {
		active[id] = true
	}
	err := r.forEach(ctx, func(a *domain.MerchantActivity) error {
		want := active[a.MerchantID]
		if a.IsActiveInChat == want {
			return nil
		}
		return r.rdb.HSet(ctx, key(a.MerchantID), "is_active_in_chat", strconv.FormatBool(want)).Err()
	})
	if err != nil {
		return fmt.Errorf("set chat active: %w", err)
	}
	return nil
}

func (r *ActivityRepo) forEach(ctx context.Context, fn func(*domain.MerchantActivity) error) error {
	iter := r.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		id, err := strconv.ParseInt(k[len(keyPrefix):], 10, 64)
		if err != nil {
			continue
		}
		fields, err := r.rdb.HGetAll(ctx, k).Result()
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			continue
		}
		a, err := parseActivity(id, fields)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
	}
	return iter.Err()
}

func parseActivity(merchantID int64, fields map[string]string) (*domain.MerchantActivity, error) {
	lastSeen, err := time.Parse(time.RFC3339Nano, fields["last_seen"])
	if err != nil {
		return nil, fmt.Errorf("parse last_seen: %w", err)
	}
	lastLogin, err := time.Parse(time.RFC3339Nano, fields["last_login"])
	if err != nil {
		return nil, fmt.Errorf("parse last_login: %w", err)
	}
	return &domain.MerchantActivity{
		MerchantID:     merchantID,
		SessionKey:     fields["session_key"],
		IsOnline:       fields["is_online"] == "true",
		IsActiveInChat: fields["is_active_in_chat"] == "true",
		LastSeen:       lastSeen,
		LastLogin:      lastLogin,
	}, nil
}
