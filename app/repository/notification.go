package repository

import (
	"context"

	"github.com/vegaexperiences/ms-go-billing/app/entity"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.GatewayNotification) error {
	query := `
		INSERT INTO gateway_notifications (
			payment_id, gateway, operation_id, source, payload_json, status, error,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		nullableUint64Value(notification.PaymentID),
		notification.Gateway,
		notification.OperationID,
		notification.Source,
		notification.PayloadJSON,
		notification.Status,
		nullableStringValue(notification.Error),
		notification.CreatedAt,
		notification.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	notification.ID = uint64(id)

	return nil
}
