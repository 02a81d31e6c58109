package inventory

import (
	"context"

	"github.com/jhoicas/Tienda-api/internal/application/dto"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso ApplyMovement.
// Usar desde handlers HTTP; userID queda como autor del movimiento.
func (uc *LedgerUseCase) RegisterMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*MovementResult, error) {
	return uc.ApplyMovement(ctx, MovementInput{
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		Reference: in.Reference,
		Actor:     userID,
		UnitCost:  in.UnitCost,
	})
}
