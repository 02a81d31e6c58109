package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/domain"
	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/order"
	"github.com/jhoicas/Tienda-api/internal/domain/payment"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
	"github.com/jhoicas/Tienda-api/pkg/logger"
)

// Acciones resultantes de reconciliar un evento.
const (
	ActionIgnored          = "ignored"
	ActionDuplicate        = "duplicate"
	ActionConfirmed        = "confirmed"
	ActionAlreadyConfirmed = "already_confirmed"
	ActionDeclined         = "payment_declined"
	ActionPending          = "none"
	ActionCancelled        = "cancelled"
	ActionVoidIgnored      = "void_ignored"
	ActionNeedsRefund      = "needs_refund"
	ActionAmountMismatch   = "amount_mismatch"

	actionError = "error" // solo métricas
)

const (
	lockTTL                = 15 * time.Second
	voidCancellationReason = "pago anulado por la pasarela"
)

// Result resultado de la reconciliación.
type Result struct {
	Provider  string
	Reference string
	Outcome   payment.Outcome
	Action    string
	Duplicate bool
}

// UseCase reconcilia los eventos de las pasarelas contra el estado del pedido.
type UseCase struct {
	txRunner  TxRunner
	canceller OrderCanceller
	locker    Locker
	adapters  map[string]ProviderAdapter
	log       *logger.Logger
	metrics   Recorder
	now       func() time.Time
}

// NewUseCase construye el caso de uso. metrics puede ser nil.
func NewUseCase(
	txRunner TxRunner,
	canceller OrderCanceller,
	locker Locker,
	log *logger.Logger,
	metrics Recorder,
	adapters ...ProviderAdapter,
) *UseCase {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	byName := make(map[string]ProviderAdapter, len(adapters))
	for _, a := range adapters {
		byName[a.Provider()] = a
	}
	return &UseCase{
		txRunner:  txRunner,
		canceller: canceller,
		locker:    locker,
		adapters:  byName,
		log:       log,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// HandleWebhook verifica y normaliza el webhook del proveedor y lo reconcilia.
// Retorna domain.ErrInvalidSignature sin tocar nada si la firma no es válida.
func (uc *UseCase) HandleWebhook(ctx context.Context, provider string, payload []byte, header http.Header) (*Result, error) {
	adapter, ok := uc.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: proveedor %q no configurado", domain.ErrInvalidInput, provider)
	}
	ev, err := adapter.Parse(payload, header)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			uc.log.Warn().Str("provider", provider).Err(err).Msg("webhook con firma inválida")
		}
		return nil, err
	}
	if ev == nil {
		return &Result{Provider: provider, Action: ActionIgnored}, nil
	}
	return uc.Reconcile(ctx, *ev)
}

// Reconcile aplica un evento normalizado. Es idempotente por (Provider, EventID):
// un reintento del proveedor no vuelve a confirmar ni a registrar ingresos.
func (uc *UseCase) Reconcile(ctx context.Context, ev payment.NormalizedPaymentEvent) (*Result, error) {
	if ev.Provider == "" || ev.EventID == "" || ev.Reference == "" || !ev.Outcome.IsValid() {
		return nil, fmt.Errorf("%w: evento de pago incompleto", domain.ErrInvalidInput)
	}
	release, err := uc.locker.Obtain(ctx, "pago:"+ev.Reference, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock de pago %s: %w", ev.Reference, err)
	}
	defer release()

	now := uc.now()
	res := &Result{Provider: ev.Provider, Reference: ev.Reference, Outcome: ev.Outcome}
	log := uc.log.With().
		Str("provider", ev.Provider).
		Str("event_id", ev.EventID).
		Str("order_number", ev.Reference).
		Str("outcome", string(ev.Outcome)).
		Logger()

	err = uc.txRunner.Run(ctx, func(r repository.Repos) error {
		inserted, err := r.PaymentEvents.Insert(ctx, &entity.PaymentEvent{
			Provider:   ev.Provider,
			EventID:    ev.EventID,
			Reference:  ev.Reference,
			Outcome:    string(ev.Outcome),
			ReceivedAt: now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			res.Duplicate = true
			res.Action = ActionDuplicate
			return nil
		}
		o, err := r.Orders.GetByNumberForUpdate(ctx, ev.Reference)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, ev.Reference)
		}

		switch ev.Outcome {
		case payment.OutcomeApproved:
			res.Action, err = uc.applyApproved(ctx, r, o, ev, now)
		case payment.OutcomeDeclined:
			res.Action = ActionDeclined
			if !order.IsTerminal(o.Status) {
				err = r.Orders.StampPayment(ctx, o.OrderNumber, repository.PaymentStamp{
					Provider:  ev.Provider,
					PaymentID: ev.PaymentID,
					Status:    entity.PaymentStatusDeclined,
				}, now)
			}
		case payment.OutcomePending:
			res.Action = ActionPending
		case payment.OutcomeVoided:
			res.Action, err = uc.applyVoided(ctx, r, o, ev, now)
		}
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("falló la reconciliación del pago")
		uc.metrics.PaymentEvent(ev.Provider, string(ev.Outcome), actionError)
		return nil, err
	}

	uc.metrics.PaymentEvent(ev.Provider, string(ev.Outcome), res.Action)
	switch res.Action {
	case ActionNeedsRefund:
		log.Warn().Str("payment_id", ev.PaymentID).Msg("pago aprobado para un pedido cancelado: requiere reembolso manual")
	case ActionAmountMismatch:
		log.Error().Str("amount", ev.Amount.String()).Msg("monto aprobado menor al total del pedido, no se confirma")
	case ActionDeclined:
		log.Warn().Str("failure_reason", ev.FailureReason).Str("raw_status", ev.RawStatus).Msg("pago rechazado")
	default:
		log.Info().Str("action", res.Action).Bool("duplicate", res.Duplicate).Msg("evento de pago reconciliado")
	}
	return res, nil
}

func (uc *UseCase) applyApproved(ctx context.Context, r repository.Repos, o *entity.Order, ev payment.NormalizedPaymentEvent, now time.Time) (string, error) {
	stamp := repository.PaymentStamp{Provider: ev.Provider, PaymentID: ev.PaymentID, Status: entity.PaymentStatusApproved}
	if o.Status == entity.OrderStatusCancelled {
		// Solo campos de auditoría; el pedido no se reabre.
		return ActionNeedsRefund, r.Orders.StampPayment(ctx, o.OrderNumber, stamp, now)
	}
	if ev.Amount.IsPositive() && ev.Amount.LessThan(o.Total) {
		return ActionAmountMismatch, nil
	}
	transitioned, err := r.Orders.UpdateStatus(ctx, o.OrderNumber, entity.OrderStatusConfirmed,
		[]string{entity.OrderStatusPending, entity.OrderStatusProcessing}, now)
	if err != nil {
		return "", err
	}
	if err := r.Orders.StampPayment(ctx, o.OrderNumber, stamp, now); err != nil {
		return "", err
	}
	if !transitioned {
		return ActionAlreadyConfirmed, nil
	}
	err = r.Finance.Create(ctx, &entity.FinanceRecord{
		ID:          uuid.New().String(),
		Type:        entity.FinanceTypeIncome,
		Description: "Pedido en línea " + o.OrderNumber,
		Amount:      o.Total,
		Category:    entity.FinanceCategoryOnlineSales,
		Source:      entity.FinanceSourceOnlineOrder,
		Reference:   o.OrderNumber,
		CreatedBy:   ev.Provider,
		CreatedAt:   now,
	})
	return ActionConfirmed, err
}

func (uc *UseCase) applyVoided(ctx context.Context, r repository.Repos, o *entity.Order, ev payment.NormalizedPaymentEvent, now time.Time) (string, error) {
	if err := r.Orders.StampPayment(ctx, o.OrderNumber, repository.PaymentStamp{
		Provider:  ev.Provider,
		PaymentID: ev.PaymentID,
		Status:    entity.PaymentStatusVoided,
	}, now); err != nil {
		return "", err
	}
	_, err := uc.canceller.CancelBySystemInTx(ctx, r, o.OrderNumber, voidCancellationReason, now)
	if errors.Is(err, domain.ErrNotCancellable) {
		return ActionVoidIgnored, nil
	}
	if err != nil {
		return "", err
	}
	return ActionCancelled, nil
}
