package messaging

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Consume decodes every message on channel and hands it to handler until
// ctx is cancelled or the subscription closes. Undecodable messages and
// handler errors are logged and skipped.
func Consume(ctx context.Context, broker Broker, channel string, handler func(*Message) error) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgChan:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping undecodable message")
				continue
			}
			if err := handler(&msg); err != nil {
				log.Error().Err(err).Str("event_type", msg.Type).Msg("message handler failed")
			}
		}
	}
}
