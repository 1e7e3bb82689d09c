package event

import (
	"strings"
	"sync"
)

const (
	EventTierChanged    = "user.tier.changed"
	EventReferralLinked = "user.referral.linked"
)

type TierChangedPayload struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	OldTier  int    `json:"old_tier"`
	NewTier  int    `json:"new_tier"`
	TierName string `json:"tier_name"`
}

type ReferralLinkedPayload struct {
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
	Points     int64  `json:"points"`
}

type Bus struct {
	handlers sync.Map
	mu       sync.Mutex
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(event string, handler func(payload any)) {
	if b == nil || handler == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := make([]func(payload any), 0, 1)
	if current, ok := b.handlers.Load(eventName); ok {
		if casted, valid := current.([]func(payload any)); valid {
			handlers = append(handlers, casted...)
		}
	}
	handlers = append(handlers, handler)
	b.handlers.Store(eventName, handlers)
}

func (b *Bus) Publish(event string, payload any) {
	if b == nil {
		return
	}

	eventName := strings.TrimSpace(event)
	if eventName == "" {
		return
	}

	current, ok := b.handlers.Load(eventName)
	if !ok {
		return
	}

	handlers, ok := current.([]func(payload any))
	if !ok || len(handlers) == 0 {
		return
	}

	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		go handler(payload)
	}
}
