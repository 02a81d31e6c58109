package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/Tienda-api/internal/domain/entity"
	"github.com/jhoicas/Tienda-api/internal/domain/repository"
)

var _ repository.FinanceRepository = (*FinanceRepo)(nil)

// FinanceRepo publica ingresos y egresos en finance_records.
type FinanceRepo struct {
	q Querier
}

func NewFinanceRepository(q Querier) *FinanceRepo {
	return &FinanceRepo{q: q}
}

func (r *FinanceRepo) Create(ctx context.Context, rec *entity.FinanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
		INSERT INTO finance_records (id, type, description, amount, category, source, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.Type, rec.Description, rec.Amount, rec.Category, rec.Source, rec.Reference,
		nullIfEmpty(rec.CreatedBy), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert finance record: %w", err)
	}
	return nil
}

func (r *FinanceRepo) ListByReference(ctx context.Context, reference string) ([]*entity.FinanceRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, type, description, amount, category, source, reference, COALESCE(created_by, ''), created_at
		FROM finance_records WHERE reference = $1 ORDER BY created_at, id`, reference)
	if err != nil {
		return nil, fmt.Errorf("list finance records: %w", err)
	}
	defer rows.Close()
	var list []*entity.FinanceRecord
	for rows.Next() {
		var rec entity.FinanceRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.Description, &rec.Amount, &rec.Category, &rec.Source,
			&rec.Reference, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finance record: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
