package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/event"
	"github.com/Prasadchowdar/100CroresClub/pkg/telegram"
)

// NotificationService announces club milestones to the ops Telegram
// channel. Delivery is best-effort; a failed send is logged and dropped.
type NotificationService struct {
	bot       *telegram.BotClient
	opsChatID int64
	logger    *zap.Logger
}

func NewNotificationService(bot *telegram.BotClient, opsChatID int64, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		bot:       bot,
		opsChatID: opsChatID,
		logger:    logger,
	}
}

// SubscribeTo wires the service onto the event bus. Handlers run on bus
// goroutines, so they must not block on anything but the send itself.
func (s *NotificationService) SubscribeTo(bus *event.Bus) {
	if bus == nil {
		return
	}

	bus.Subscribe(event.EventTierChanged, func(payload any) {
		changed, ok := payload.(event.TierChangedPayload)
		if !ok {
			return
		}
		s.announceTierChange(changed)
	})
}

func (s *NotificationService) announceTierChange(changed event.TierChangedPayload) {
	if s.bot == nil || s.opsChatID == 0 {
		return
	}

	text := fmt.Sprintf(
		"%s entered the %s club (tier %d, up from %d).",
		changed.Name,
		changed.TierName,
		changed.NewTier,
		changed.OldTier,
	)

	if err := s.bot.SendMessage(s.opsChatID, text); err != nil {
		s.logger.Warn("tier announcement failed",
			zap.String("user_id", changed.UserID),
			zap.Int("new_tier", changed.NewTier),
			zap.Error(err),
		)
	}
}
