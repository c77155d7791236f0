package postgres

import (
	"context"

	"tillpoint/internal/domain/sale"
)

// EventTypeSaleCommitted is the outbox event type for committed sales.
const EventTypeSaleCommitted = "sale.committed"

// SaleEventPublisher writes sale events to the transactional outbox.
// Implements the settlement engine's event sink; delivery to the
// broker is the relay worker's job.
type SaleEventPublisher struct {
	outbox *OutboxPublisher
}

// NewSaleEventPublisher creates an outbox-backed sale event publisher.
func NewSaleEventPublisher(outbox *OutboxPublisher) *SaleEventPublisher {
	return &SaleEventPublisher{outbox: outbox}
}

// SaleCommitted records the committed-sale event in the outbox.
func (p *SaleEventPublisher) SaleCommitted(ctx context.Context, s *sale.Sale) error {
	return p.outbox.Publish(ctx, DomainEvent{
		AggregateType: "sale",
		AggregateID:   s.ID,
		EventType:     EventTypeSaleCommitted,
		Payload:       s,
	})
}
