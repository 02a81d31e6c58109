package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.PaymentEventRepository = (*PaymentEventRepo)(nil)

// PaymentEventRepo eventos de pasarela procesados; la PK (provider, event_id) deduplica reintentos.
type PaymentEventRepo struct {
	q Querier
}

func NewPaymentEventRepository(q Querier) *PaymentEventRepo {
	return &PaymentEventRepo{q: q}
}

func (r *PaymentEventRepo) Insert(ctx context.Context, ev *entity.PaymentEvent) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO payment_events (provider, event_id, reference, outcome, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, event_id) DO NOTHING`,
		ev.Provider, ev.EventID, ev.Reference, ev.Outcome, ev.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("insert payment event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
