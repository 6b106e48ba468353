package presence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"negoshop/internal/domain"
)

// Presence thresholds. The per-message gate recomputes freshness from
// last_seen directly; the sweep only reconciles the stored flags.
const (
	OnlineWindow     = 2 * time.Minute
	OfflineAfter     = 5 * time.Minute
	ChatActiveWindow = 10 * time.Minute
)

// Merchant status labels as exposed by the status APIs.
const (
	StatusOnline  = "online"
	StatusIdle    = "idle"
	StatusOffline = "offline"
)

// Tracker maintains merchant presence and decides whether the automated
// assistant may answer in a conversation.
type Tracker struct {
	activities domain.ActivityRepository
	messages   domain.MessageRepository
	log        *zap.Logger
}

func NewTracker(activities domain.ActivityRepository, messages domain.MessageRepository, log *zap.Logger) *Tracker {
	return &Tracker{activities: activities, messages: messages, log: log}
}

// RecordActivity marks the merchant as seen now. It creates the activity
// record on first contact and stamps last_login on creation and on every
// offline-to-online transition.
func (t *Tracker) RecordActivity(ctx context.Context, merchantID int64, sessionKey string, now time.Time) (*domain.MerchantActivity, error) {
	act, err := t.activities.Get(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if act == nil {
		act = &domain.MerchantActivity{MerchantID: merchantID, LastLogin: now}
	} else if !act.IsOnline {
		act.LastLogin = now
	}

	act.SessionKey = sessionKey
	act.LastSeen = now
	act.IsOnline = true

	if err := t.activities.Upsert(ctx, act); err != nil {
		return nil, fmt.Errorf("upsert activity: %w", err)
	}
	return act, nil
}

// ShouldAutomationRespond reports whether the assistant may reply in the
// conversation. The merchant keeps the floor while actively present (online
// and seen within the last 2 minutes) or after writing a message in the
// conversation within the last 10 minutes. With no presence record the
// merchant is presumed away and automation may respond.
func (t *Tracker) ShouldAutomationRespond(ctx context.Context, conv *domain.Conversation, now time.Time) bool {
	act, err := t.activities.Get(ctx, conv.MerchantID)
	if err != nil {
		t.log.Warn("presence lookup failed, presuming merchant away",
			zap.Int64("merchant_id", conv.MerchantID), zap.Error(err))
	} else if act != nil && act.IsOnline && now.Sub(act.LastSeen) < OnlineWindow {
		return false
	}

	last, err := t.messages.LastMerchantMessageAt(ctx, conv.ID, conv.MerchantID)
	if err != nil {
		t.log.Warn("recent message lookup failed, presuming merchant away",
			zap.Int64("conversation_id", conv.ID), zap.Error(err))
		return true
	}
	if last != nil && now.Sub(*last) < ChatActiveWindow {
		return false
	}
	return true
}

// Status derives the display status for a merchant from its activity record.
func Status(act *domain.MerchantActivity, now time.Time) string {
	switch {
	case act == nil || !act.IsOnline:
		return StatusOffline
	case now.Sub(act.LastSeen) < OnlineWindow:
		return StatusOnline
	default:
		return StatusIdle
	}
}

// Sweep is the periodic reconciliation pass: it demotes stale records,
// promotes recently seen ones, and recomputes the active-in-chat flag from
// recent merchant-authored messages. It is idempotent and best-effort; the
// per-message gate does not depend on it.
func (t *Tracker) Sweep(ctx context.Context, now time.Time) error {
	offline, err := t.activities.MarkOffline(ctx, now.Add(-OfflineAfter))
	if err != nil {
		return fmt.Errorf("mark offline: %w", err)
	}
	online, err := t.activities.MarkOnline(ctx, now.Add(-OnlineWindow))
	if err != nil {
		return fmt.Errorf("mark online: %w", err)
	}

	active, err := t.messages.RecentMerchantSenders(ctx, now.Add(-ChatActiveWindow))
	if err != nil {
		return fmt.Errorf("recent merchant senders: %w", err)
	}
	if err := t.activities.SetChatActive(ctx, active); err != nil {
		return fmt.Errorf("set chat active: %w", err)
	}

	t.log.Debug("presence sweep completed",
		zap.Int64("marked_online", online),
		zap.Int64("marked_offline", offline),
		zap.Int("active_in_chat", len(active)))
	return nil
}

// RunSweeper runs Sweep on the given interval until the context is canceled.
func (t *Tracker) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.Sweep(ctx, time.Now()); err != nil {
				t.log.Warn("presence sweep failed", zap.Error(err))
			}
		}
	}
}
