package chat

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/metrics"
)

// Broadcaster fans events out to every connection subscribed to a chat.
type Broadcaster struct {
	registry *Registry
	logger   zerolog.Logger
}

// NewBroadcaster returns a broadcaster over the registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "broadcaster").Logger(),
	}
}

// Broadcast marshals the event once and delivers it to every authenticated
// connection that has joined the chat, skipping connections bound to
// excludeUserID. A failed delivery is logged and counted; it never stops the
// remaining deliveries.
func (b *Broadcaster) Broadcast(chatID, excludeUserID int64, event any) {
	frame, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to marshal broadcast event")
		return
	}

	for _, rcpt := range b.registry.Recipients(chatID, excludeUserID) {
		if err := rcpt.Conn.Send(frame); err != nil {
			metrics.DeliveryFailures.Inc()
			b.logger.Warn().Err(err).
				Int64("chat_id", chatID).
				Int64("conn_id", rcpt.ConnID).
				Int64("user_id", rcpt.UserID).
				Msg("Dropping frame for slow or closed connection")
			continue
		}
		metrics.EventsDelivered.Inc()
	}
}
