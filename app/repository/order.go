package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Put upserts the correlation record keyed by order_id. A checkout retry may
// reuse a truncated order id; the newest intent wins.
func (r *OrderRepository) Put(ctx context.Context, order *entity.Order) error {
	extraJSON, err := serializeMetadata(order.Extra)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			order_id, subject_ref, amount_cents, kind, description, return_url, extra_json,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			subject_ref = VALUES(subject_ref),
			amount_cents = VALUES(amount_cents),
			kind = VALUES(kind),
			description = VALUES(description),
			return_url = VALUES(return_url),
			extra_json = VALUES(extra_json),
			updated_at = VALUES(updated_at)
	`

	_, err = r.db.ExecContext(ctx, query,
		order.OrderID,
		nullableStringValue(order.SubjectRef),
		order.AmountCents,
		order.Kind,
		order.Description,
		order.ReturnURL,
		extraJSON,
		order.CreatedAt,
		order.UpdatedAt,
	)
	return err
}

func (r *OrderRepository) FindByOrderID(ctx context.Context, orderID string) (*entity.Order, error) {
	query := `
		SELECT order_id, subject_ref, amount_cents, kind, description, return_url, extra_json,
			created_at, updated_at
		FROM orders
		WHERE order_id = ?
	`

	order := &entity.Order{}
	var subjectRef sql.NullString
	var extraJSON string

	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.OrderID,
		&subjectRef,
		&order.AmountCents,
		&order.Kind,
		&order.Description,
		&order.ReturnURL,
		&extraJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	order.SubjectRef = stringPtrFromNull(subjectRef)
	extra, err := parseMetadata(extraJSON)
	if err != nil {
		return nil, err
	}
	order.Extra = extra

	return order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE order_id = ?`, orderID)
	return err
}

// DeleteExpired removes correlation records older than the cutoff and returns
// how many were dropped.
func (r *OrderRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
