package repository

import (
	"context"
	"database/sql"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

// SubscriberRepository is a read-only view over the enrollment system's
// subscribers table.
type SubscriberRepository struct {
	db DBTX
}

func NewSubscriberRepository(db DBTX) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

const subscriberColumns = `id, name, status, monthly_fee_cents, enrolled_at`

func (r *SubscriberRepository) FindByID(ctx context.Context, id string) (*entity.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE id = ?
	`

	subscriber := &entity.Subscriber{}
	if err := scanSubscriber(r.db.QueryRowContext(ctx, query, id), subscriber); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return subscriber, nil
}

// ListBillable returns subscribers eligible for monthly charges: active, not
// scholarship, not pending.
func (r *SubscriberRepository) ListBillable(ctx context.Context) ([]*entity.Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE status = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, entity.SubscriberStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := make([]*entity.Subscriber, 0)
	for rows.Next() {
		subscriber := &entity.Subscriber{}
		if err := scanSubscriber(rows, subscriber); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, subscriber)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subscribers, nil
}

func scanSubscriber(scan rowScanner, subscriber *entity.Subscriber) error {
	var monthlyFee sql.NullInt64

	err := scan.Scan(
		&subscriber.ID,
		&subscriber.Name,
		&subscriber.Status,
		&monthlyFee,
		&subscriber.EnrolledAt,
	)
	if err != nil {
		return err
	}

	subscriber.MonthlyFeeCents = int64PtrFromNull(monthlyFee)
	return nil
}
