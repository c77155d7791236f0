package broker

import (
	"context"
	"time"

	"tillpoint/internal/domain/sale"
)

// SaleEvent is the wire envelope for sale events.
type SaleEvent struct {
	EventType  string     `json:"eventType"`
	OccurredAt time.Time  `json:"occurredAt"`
	Sale       *sale.Sale `json:"sale"`
}

// SaleEventPublisher publishes sale events straight to Kafka. Used in
// deployments without the outbox; delivery is at-most-once.
type SaleEventPublisher struct {
	producer *Producer
}

// NewSaleEventPublisher creates a Kafka-backed sale event publisher.
func NewSaleEventPublisher(producer *Producer) *SaleEventPublisher {
	return &SaleEventPublisher{producer: producer}
}

// SaleCommitted publishes the committed-sale event.
func (p *SaleEventPublisher) SaleCommitted(ctx context.Context, s *sale.Sale) error {
	return p.producer.PublishEvent(ctx, s.ID.String(), SaleEvent{
		EventType:  "sale.committed",
		OccurredAt: time.Now().UTC(),
		Sale:       s,
	})
}
