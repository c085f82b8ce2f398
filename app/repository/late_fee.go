package repository

import (
	"context"
	"database/sql"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type LateFeeRepository struct {
	db DBTX
}

func NewLateFeeRepository(db DBTX) *LateFeeRepository {
	return &LateFeeRepository{db: db}
}

func (r *LateFeeRepository) Create(ctx context.Context, fee *entity.LateFee) error {
	query := `
		INSERT INTO late_fees (
			payment_id, subject_ref, period, original_amount_cents, fee_amount_cents,
			fee_type, rate, days_overdue, applied_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableUint64Value(fee.PaymentID),
		fee.SubjectRef,
		fee.Period,
		fee.OriginalAmountCents,
		fee.FeeAmountCents,
		fee.FeeType,
		fee.Rate,
		fee.DaysOverdue,
		fee.AppliedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	fee.ID = uint64(id)

	return nil
}

// ExistsForPeriod is the at-most-one probe. There is deliberately no unique
// index behind it: a force reapply must be able to insert a second row, and
// the late-fee batch never runs concurrently with itself.
func (r *LateFeeRepository) ExistsForPeriod(ctx context.Context, subjectRef, period string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM late_fees
		WHERE subject_ref = ? AND period = ?
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, subjectRef, period).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LateFeeRepository) ListForPeriod(ctx context.Context, period string) ([]*entity.LateFee, error) {
	query := `
		SELECT id, payment_id, subject_ref, period, original_amount_cents, fee_amount_cents,
			fee_type, rate, days_overdue, applied_at
		FROM late_fees
		WHERE period = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fees := make([]*entity.LateFee, 0)
	for rows.Next() {
		fee := &entity.LateFee{}
		var paymentID sql.NullInt64
		if err := rows.Scan(
			&fee.ID,
			&paymentID,
			&fee.SubjectRef,
			&fee.Period,
			&fee.OriginalAmountCents,
			&fee.FeeAmountCents,
			&fee.FeeType,
			&fee.Rate,
			&fee.DaysOverdue,
			&fee.AppliedAt,
		); err != nil {
			return nil, err
		}
		fee.PaymentID = uint64PtrFromNull(paymentID)
		fees = append(fees, fee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fees, nil
}
