// Package events holds the wire envelope shared by every event transport.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
)

func NewEvent(topic, key string, payload map[string]any, at time.Time) domain.Event {
	return domain.Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		Key:         key,
		Payload:     payload,
		PublishedAt: at.UTC(),
	}
}

func Encode(event domain.Event) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return raw, nil
}

func Decode(raw []byte) (domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return domain.Event{}, domain.WrapError(domain.ErrInvalidInput, "decode event", err)
	}
	if event.Topic == "" {
		return domain.Event{}, domain.WrapError(domain.ErrInvalidInput, "decode event", fmt.Errorf("missing topic"))
	}
	return event, nil
}
